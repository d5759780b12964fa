package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"silverrail/internal/api"
	"silverrail/internal/models"
)

func (s *Server) handleAdminCreateUser(w http.ResponseWriter, r *http.Request) {
	var req api.AdminCreateUserRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	created, err := s.authService.CreateUser(r.Context(), req.Username, req.Email, req.Password, req.Role, time.Now().UTC())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, adminUserResponse(*created))
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.authService.ListUsers(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, mapSlice(users, adminUserResponse))
}

func (s *Server) handleAdminSetUserDisabled(w http.ResponseWriter, r *http.Request) {
	username, err := pathUsername(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req api.AdminSetUserDisabledRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	updated, err := s.authService.SetUserDisabled(r.Context(), username, req.Disabled, time.Now().UTC())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, adminUserResponse(*updated))
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	username, err := pathUsername(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.authService.DeleteUser(r.Context(), username); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathUsername(r *http.Request) (string, error) {
	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		return "", badRequestCode(fmt.Errorf("username is required"), ErrCodeMissingRequired)
	}
	return username, nil
}

// adminUserResponse drops the password hash and renders times as RFC 3339.
func adminUserResponse(user models.User) api.AdminUser {
	return api.AdminUser{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		Disabled:  user.Disabled,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
