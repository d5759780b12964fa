package server

import (
	"net/http"

	"silverrail/internal/api"
)

func (s *Server) handleListAbilities(w http.ResponseWriter, r *http.Request) {
	characterID, err := queryInt64(r, "character_id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp, err := s.abilities.List(r.Context(), characterID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAbility(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.abilities.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateAbility(w http.ResponseWriter, r *http.Request) {
	var req api.AbilityCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	resp, err := s.abilities.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateAbility(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.AbilityUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	resp, err := s.abilities.Update(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAbility(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	if err := s.abilities.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadAbilityIcon(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	s.withUpload(w, r, func(up upload) {
		resp, err := s.abilities.SetIcon(r.Context(), id, up)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}
