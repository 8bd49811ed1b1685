package web

// errors.go turns errors into responses. Every error is mapped through
// core.MapError; the technical error is logged with the request ID and only
// the user message leaves the server. Browsers asking for HTML get a
// rendered page, everything else JSON.

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvmap/internal/core"
	"github.com/JonMunkholm/csvmap/internal/logging"
	"github.com/JonMunkholm/csvmap/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)
	status := statusFor(msg.Code)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.ErrorPage(msg.Message, msg.Action, msg.Code).Render(r.Context(), w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// statusFor picks the HTTP status for an error code.
func statusFor(code string) int {
	switch code {
	case "SCH001", "JOB004":
		return http.StatusNotFound
	case "SRC003":
		return http.StatusRequestEntityTooLarge
	case "JOB001", "DB004", "DB005", "DB008":
		return http.StatusServiceUnavailable
	case "JOB003":
		return http.StatusGatewayTimeout
	case "DB001", "DB002", "DB003", "DB006":
		return http.StatusConflict
	case "MAP003", "DB007", "ERR000":
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// wantsHTML reports whether the client prefers an HTML page.
func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
