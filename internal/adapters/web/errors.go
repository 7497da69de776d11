package web

import (
	"encoding/json"
	"net/http"

	"stock-ledger/internal/core"
	"stock-ledger/internal/logging"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code"`
	RequestID string            `json:"request_id,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeJSONStatus(w, status, errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeValidationError reports request fields that failed their validate tags.
func writeValidationError(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	writeJSONStatus(w, http.StatusUnprocessableEntity, errorResponse{
		Error:     "request validation failed",
		Code:      core.CodeValidation,
		RequestID: requestIDFromContext(r.Context()),
		Fields:    fields,
	})
}

// statusForCode maps a core error code onto an HTTP status.
func statusForCode(code string) int {
	switch code {
	case core.CodeValidation:
		return http.StatusBadRequest
	case core.CodeNotFound:
		return http.StatusNotFound
	case core.CodeInvalidTransition, core.CodeConflict:
		return http.StatusConflict
	case core.CodeInsufficientStock:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError classifies err and writes it. Storage failures are logged
// and reported without their cause.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := core.KindOf(err)
	status := statusForCode(code)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context(), nil).Error("request failed", zap.Error(err))
		msg = "internal server error"
	}
	writeError(w, r, msg, code, status)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
