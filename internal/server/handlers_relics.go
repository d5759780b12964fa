package server

import (
	"net/http"
	"strings"

	"silverrail/internal/api"
	"silverrail/internal/store"
)

func (s *Server) handleListRelics(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := queryPage(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	filter := store.RelicFilter{
		SetName: strings.TrimSpace(r.URL.Query().Get("set_name")),
		Limit:   limit,
		Offset:  offset,
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("slot")); raw != "" {
		if filter.Slot, err = normalizeSlot(raw); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}

	resp, err := s.relics.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetRelic(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	resp, err := s.relics.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateRelic(w http.ResponseWriter, r *http.Request) {
	var req api.RelicCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	resp, err := s.relics.Create(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateRelic(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	var req api.RelicUpdateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	resp, err := s.relics.Update(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteRelic(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	if err := s.relics.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadRelicIcon(w http.ResponseWriter, r *http.Request) {
	s.uploadRelicFile(w, r, relicFieldIcon)
}

func (s *Server) handleUploadRelicSetIcon(w http.ResponseWriter, r *http.Request) {
	s.uploadRelicFile(w, r, relicFieldSetIcon)
}

func (s *Server) uploadRelicFile(w http.ResponseWriter, r *http.Request, field string) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}
	s.withUpload(w, r, func(up upload) {
		resp, err := s.relics.SetFile(r.Context(), id, field, up)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}
