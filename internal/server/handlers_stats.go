package server

import (
	"net/http"

	"silverrail/internal/api"
	"silverrail/internal/models"
)

func (s *Server) listOwnerStats(w http.ResponseWriter, r *http.Request, owner models.StatOwner) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	stats, err := s.stats.List(r.Context(), owner, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) setOwnerStat(w http.ResponseWriter, r *http.Request, owner models.StatOwner) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.StatUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	stat, err := s.stats.Set(r.Context(), owner, id, r.PathValue("type"), req.Value)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stat)
}

func (s *Server) handleUpdateStat(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.StatUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	stat, err := s.stats.Update(r.Context(), id, req.Value)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stat)
}
