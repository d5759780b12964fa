package server

import (
	"net/http"
	"strings"

	"silverrail/internal/api"
	"silverrail/internal/models"
	"silverrail/internal/store"
)

func (s *Server) handleListCharacters(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := queryPage(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	rarity, err := queryInt(r, "rarity")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	filter := store.CharacterFilter{Rarity: rarity, Limit: limit, Offset: offset}
	if raw := strings.TrimSpace(r.URL.Query().Get("element")); raw != "" {
		if filter.Element, err = normalizeElement(raw); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("path")); raw != "" {
		if filter.Path, err = normalizePath(raw); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}

	resp, err := s.characters.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.characters.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCharacter(w http.ResponseWriter, r *http.Request) {
	var req api.CharacterCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	resp, err := s.characters.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.CharacterUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	resp, err := s.characters.Update(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteCharacter(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	if err := s.characters.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadCharacterImage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	s.withUpload(w, r, func(up upload) {
		resp, err := s.characters.SetImage(r.Context(), id, up)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handleListCharacterAbilities(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.abilities.List(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCharacterStats(w http.ResponseWriter, r *http.Request) {
	s.listOwnerStats(w, r, models.StatOwnerCharacter)
}

func (s *Server) handleSetCharacterStat(w http.ResponseWriter, r *http.Request) {
	s.setOwnerStat(w, r, models.StatOwnerCharacter)
}
