package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

var domainErrors = []struct {
	err    error
	appErr *AppError
}{
	{domain.ErrInvalidAmount, ErrInvalidAmount},
	{domain.ErrInvalidParticipant, ErrInvalidParticipant},
	{domain.ErrInsufficientFunds, ErrInsufficientFunds},
	{domain.ErrSelfTransfer, ErrSelfTransfer},
	{domain.ErrApplicationNotFound, ErrApplicationNotFound},
	{domain.ErrAlreadyDecided, ErrAlreadyDecided},
	{domain.ErrInvalidDecision, ErrInvalidDecision},
	{domain.ErrInvalidField, ErrInvalidField},
	{domain.ErrSessionNotFound, ErrSessionNotFound},
	{domain.ErrStepOutOfOrder, ErrStepOutOfOrder},
	{domain.ErrLockUnavailable, ErrLockUnavailable},
	{domain.ErrNotFound, ErrResourceNotFound},
	{domain.ErrVersionConflict, ErrVersionConflict},
	{domain.ErrInvalidRequest, ErrInvalidRequest},
	{domain.ErrStorageFailure, ErrStorageFailure},
}

// RespondDomainError maps the first matching domain sentinel in err's chain
// to its API error. Rejections are checked before ErrStorageFailure because
// storage errors wrap their cause.
func RespondDomainError(w http.ResponseWriter, err error) {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			if m.appErr == ErrStorageFailure {
				slog.Error("storage failure", "error", err)
			}
			RespondAppError(w, m.appErr, nil)
			return
		}
	}

	slog.Error("unhandled domain error", "error", err)
	RespondAppError(w, ErrInternalError, nil)
}
