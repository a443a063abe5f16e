package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
)

// Error codes returned in the error envelope.
const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeDuplicatePayment = "DUPLICATE_PAYMENT"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeUnavailable      = "UNAVAILABLE"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorBody is the error envelope: {"error":{"code":...,"message":...}}.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// errBadRequest marks input that could not be decoded at all.
type errBadRequest struct{ err error }

func (e errBadRequest) Error() string { return e.err.Error() }
func (e errBadRequest) Unwrap() error { return e.err }

// errPayloadTooLarge marks a body cut off by the size limit.
type errPayloadTooLarge struct{ limit int64 }

func (e errPayloadTooLarge) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.limit)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, code, message, field string) {
	respondJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: message, Field: field}})
}

// writeError maps an error kind to its status code. Unknown errors are
// logged and reported as 500 without leaking their text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	var br errBadRequest
	var tooLarge errPayloadTooLarge
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusUnprocessableEntity, ErrCodeInvalidInput, ve.Error(), ve.Field)
	case errors.Is(err, core.ErrValidation):
		respondError(w, http.StatusUnprocessableEntity, ErrCodeInvalidInput, err.Error(), "")
	case errors.As(err, &tooLarge):
		respondError(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, tooLarge.Error(), "")
	case errors.As(err, &br):
		respondError(w, http.StatusBadRequest, ErrCodeBadRequest, br.Error(), "")
	case errors.Is(err, core.ErrNotAuthenticated),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		respondError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required", "")
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "resource not found", "")
	case errors.Is(err, core.ErrDuplicatePayment):
		respondError(w, http.StatusConflict, ErrCodeDuplicatePayment, core.ErrDuplicatePayment.Error(), "")
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		respondError(w, http.StatusInternalServerError, ErrCodeInternal, "an internal error occurred", "")
	}
}
