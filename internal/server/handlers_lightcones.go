package server

import (
	"net/http"
	"strings"

	"silverrail/internal/api"
	"silverrail/internal/models"
	"silverrail/internal/store"
)

func (s *Server) handleListLightcones(w http.ResponseWriter, r *http.Request) {
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
	filter := store.LightconeFilter{Rarity: rarity, Limit: limit, Offset: offset}
	if raw := strings.TrimSpace(r.URL.Query().Get("path")); raw != "" {
		if filter.Path, err = normalizePath(raw); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}

	resp, err := s.lightcones.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetLightcone(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.lightcones.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateLightcone(w http.ResponseWriter, r *http.Request) {
	var req api.LightconeCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	resp, err := s.lightcones.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateLightcone(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.LightconeUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	resp, err := s.lightcones.Update(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteLightcone(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	if err := s.lightcones.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadLightconeImage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	s.withUpload(w, r, func(up upload) {
		resp, err := s.lightcones.SetImage(r.Context(), id, up)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handleListLightconeStats(w http.ResponseWriter, r *http.Request) {
	s.listOwnerStats(w, r, models.StatOwnerLightcone)
}

func (s *Server) handleSetLightconeStat(w http.ResponseWriter, r *http.Request) {
	s.setOwnerStat(w, r, models.StatOwnerLightcone)
}
