package server

import (
	"net/http"

	"silverrail/internal/api"
)

func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	principal, _ := authPrincipalFromContext(r.Context())
	teams, err := s.teams.List(r.Context(), principal)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, teams)
}

func (s *Server) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	principal, _ := authPrincipalFromContext(r.Context())
	team, err := s.teams.Get(r.Context(), principal, id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, team)
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req api.TeamRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	principal, _ := authPrincipalFromContext(r.Context())
	team, err := s.teams.Create(r.Context(), principal, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, team)
}

func (s *Server) handleUpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.TeamRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	principal, _ := authPrincipalFromContext(r.Context())
	team, err := s.teams.Update(r.Context(), principal, id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, team)
}

func (s *Server) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	principal, _ := authPrincipalFromContext(r.Context())
	if err := s.teams.Delete(r.Context(), principal, id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
