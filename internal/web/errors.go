package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error and calls respondError(w, r, err)
//  2. The status code is derived from the error with statusFor
//  3. The error is mapped via core.MapError to a user-friendly message
//  4. The technical error is logged with request and session IDs
//  5. The message is rendered as JSON, an HTMX fragment, or the full page

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/bomview/internal/core"
	"github.com/JonMunkholm/bomview/internal/logging"
	"github.com/JonMunkholm/bomview/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errNoFile is returned when a multipart upload has no "file" part.
var errNoFile = errors.New("no file provided")

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrInvalidCSV),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrUnknownField),
		errors.Is(err, core.ErrUnknownEvent),
		errors.Is(err, core.ErrInvalidEvent),
		errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrIndexOutOfRange),
		errors.Is(err, core.ErrSampleUnavailable),
		errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrEditInProgress),
		errors.Is(err, core.ErrNotLoaded):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// respondError handles error responses with user-friendly messages.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= 500 {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	switch {
	case isHTMX(r):
		s.renderErrorPartial(w, r, userMsg, statusCode)
	case wantsJSON(r):
		respondErrorJSON(w, r, userMsg, statusCode)
	default:
		s.renderPage(w, r, statusCode, &templates.Alert{
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		})
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	writeJSON(w, r, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func (s *Server) renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error alert", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}
