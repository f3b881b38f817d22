package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("amount must be a positive number")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrSelfTransfer        = errors.New("cannot transfer to same account")
	ErrInvalidParticipant  = errors.New("participant id is required")
	ErrVersionConflict     = errors.New("optimistic lock conflict")
	ErrStorageFailure      = errors.New("storage failure")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrApplicationNotFound = errors.New("application not found")
	ErrAlreadyDecided      = errors.New("application already decided")
	ErrInvalidDecision     = errors.New("decision must be accept or reject")
	ErrInvalidField        = errors.New("invalid field value")
	ErrSessionNotFound     = errors.New("registration session not found or expired")
	ErrStepOutOfOrder      = errors.New("registration step out of order")
	ErrLockUnavailable     = errors.New("lock unavailable")
)
