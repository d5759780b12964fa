package server

import (
	"fmt"
	"net/http"
	"time"

	"silverrail/internal/api"
)

// handleAdminRehash recomputes hash columns from current blob content.
func (s *Server) handleAdminRehash(w http.ResponseWriter, r *http.Request) {
	if !s.acquireLimiter(s.rehashLimiter, w, r, "rehash") {
		return
	}
	defer s.releaseLimiter(s.rehashLimiter)

	resp, err := s.rehash.Rehash(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdminCleanupSessions(w http.ResponseWriter, r *http.Request) {
	var req api.CleanupSessionsRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	if req.OlderThanDays < 0 {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("older_than_days must be >= 0"), ErrCodeInvalidQuery))
		return
	}
	if !req.DryRun && r.Header.Get("X-Confirm") != "true" {
		s.writeErrorReq(w, r, http.StatusBadRequest, badRequestCode(fmt.Errorf("non-dry-run requires X-Confirm: true header"), ErrCodeMissingRequired))
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -req.OlderThanDays)
	result, err := s.authService.CleanupSessions(r.Context(), cutoff, req.DryRun)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.CleanupSessionsResponse{Count: result.Count, DryRun: result.DryRun})
}
