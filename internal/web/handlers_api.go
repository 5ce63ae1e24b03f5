package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/bomview/internal/audit"
	"github.com/JonMunkholm/bomview/internal/core"
)

// maxEventBody caps the size of a POST /api/events body.
const maxEventBody = 1 << 20

// StateResponse is the JSON form of a session's state.
type StateResponse struct {
	SessionID string            `json:"session_id"`
	State     core.State        `json:"state"`
	View      []core.IndexedRow `json:"view"`
	Summary   core.Summary      `json:"summary"`
}

// HealthResponse is returned by /healthz and /api/status.
type HealthResponse struct {
	Status   string                   `json:"status"`
	Sessions int                      `json:"sessions"`
	Sample   bool                     `json:"sample"`
	Uploads  core.UploadLimiterStatus `json:"uploads"`
}

// handleAPIState returns the caller's state, filtered view and totals.
func (s *Server) handleAPIState(w http.ResponseWriter, r *http.Request) {
	s.writeState(w, r, http.StatusOK)
}

func (s *Server) writeState(w http.ResponseWriter, r *http.Request, status int) {
	id := sessionID(r)
	state, err := s.service.Snapshot(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	view := state.View()
	if view == nil {
		view = []core.IndexedRow{}
	}
	writeJSON(w, r, status, StateResponse{
		SessionID: id,
		State:     state,
		View:      view,
		Summary:   core.Summarize(state.Table),
	})
}

// handleAPIEvents applies one JSON event or an array of them. An array is
// applied as a unit: if any event fails, none is applied.
func (s *Server) handleAPIEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBody))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %w", core.ErrInvalidEvent, err))
		return
	}

	events, err := decodeEvents(body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if _, err := s.service.Dispatch(ctx, sessionID(r), events...); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeState(w, r, http.StatusOK)
}

// decodeEvents accepts a single event object or an array of them.
func decodeEvents(body []byte) ([]core.Event, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", core.ErrInvalidEvent)
	}

	if trimmed[0] != '[' {
		ev, err := core.DecodeEvent(trimmed)
		if err != nil {
			return nil, err
		}
		return []core.Event{ev}, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidEvent, err)
	}
	events := make([]core.Event, 0, len(raws))
	for i, raw := range raws {
		ev, err := core.DecodeEvent(raw)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// handleAPIUpload accepts either a multipart "file" part or a raw CSV body.
// A raw body is named by the "name" query parameter.
func (s *Server) handleAPIUpload(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := s.upload(w, r); err != nil {
			s.respondError(w, r, err)
			return
		}
		s.writeState(w, r, http.StatusOK)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.csv"
	}
	ctx := WithRequestMetadata(r.Context(), r)
	if _, err := s.service.Upload(ctx, sessionID(r), name, r.Body); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeState(w, r, http.StatusOK)
}

// handleAPISample loads the sample table and returns the new state.
func (s *Server) handleAPISample(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	if _, err := s.service.LoadSample(ctx, sessionID(r)); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeState(w, r, http.StatusOK)
}

// handleAPIHistory returns the session's recent audit entries, newest first.
func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	limit := audit.DefaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = min(n, 1000)
		}
	}

	entries, err := s.service.History(r.Context(), sessionID(r), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// handleAPIStatus reports upload slots and session counts.
func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.health())
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.health())
}

func (s *Server) health() HealthResponse {
	return HealthResponse{
		Status:   "ok",
		Sessions: s.service.SessionCount(),
		Sample:   s.service.HasSample(),
		Uploads:  s.service.UploadLimiterStatus(),
	}
}
