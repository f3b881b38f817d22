package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrForbidden        = &AppError{http.StatusForbidden, "FORBIDDEN", "Missing required capability"}
	ErrRateLimited      = &AppError{http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, slow down"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be a positive number"}
	ErrInvalidParticipant  = &AppError{http.StatusBadRequest, "INVALID_PARTICIPANT", "Participant id is required"}
	ErrInsufficientFunds   = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrSelfTransfer        = &AppError{http.StatusUnprocessableEntity, "SELF_TRANSFER_NOT_ALLOWED", "Cannot transfer to the same account"}
	ErrVersionConflict     = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrStorageFailure      = &AppError{http.StatusServiceUnavailable, "STORAGE_FAILURE", "The operation could not be completed, please retry"}
	ErrApplicationNotFound = &AppError{http.StatusNotFound, "APPLICATION_NOT_FOUND", "Application not found"}
	ErrAlreadyDecided      = &AppError{http.StatusConflict, "ALREADY_DECIDED", "Application was already decided"}
	ErrInvalidDecision     = &AppError{http.StatusBadRequest, "INVALID_DECISION", "Decision must be accept or reject"}
	ErrInvalidField        = &AppError{http.StatusBadRequest, "INVALID_FIELD", "Invalid value, registration must be restarted"}
	ErrSessionNotFound     = &AppError{http.StatusNotFound, "SESSION_NOT_FOUND", "No registration in progress, start again"}
	ErrStepOutOfOrder      = &AppError{http.StatusConflict, "STEP_OUT_OF_ORDER", "Unexpected registration step, registration must be restarted"}
	ErrLockUnavailable     = &AppError{http.StatusServiceUnavailable, "BUSY", "Another request for this applicant is in progress"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyInProgress = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "A request with this idempotency key is still being processed"}
)
