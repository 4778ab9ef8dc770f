package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/thedub2001/skull01/internal/domain/graph"
	appErrors "github.com/thedub2001/skull01/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     bool           `json:"error"`
	Message   string         `json:"message"`
	Status    int            `json:"status"`
	Type      string         `json:"type,omitempty"`
	Code      string         `json:"code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func respondMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:     true,
		Message:   message,
		Status:    status,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// respondError maps err to its HTTP status. Server-side failures are logged.
func respondError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := appErrors.HTTPStatus(err)
	body := ErrorResponse{
		Error:     true,
		Message:   err.Error(),
		Status:    status,
		RequestID: middleware.GetReqID(r.Context()),
	}
	if appErr := appErrors.GetAppError(err); appErr != nil {
		body.Type = string(appErr.Type)
		body.Code = appErr.Code
		body.Details = appErr.Details
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
		if status == http.StatusInternalServerError {
			body.Message = "Internal server error"
		}
	}
	respondJSON(w, status, body)
}

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return appErrors.NewValidationError("invalid request body: " + err.Error())
	}
	return graph.Validate(v)
}
