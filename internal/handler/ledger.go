package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/logging"
)

type ledgerService interface {
	Deposit(ctx context.Context, accountID, amount string) (*domain.Operation, error)
	Withdraw(ctx context.Context, accountID, amount string) (*domain.Operation, error)
	Transfer(ctx context.Context, senderID, receiverID, amount string) (*domain.Operation, error)
	AdminCredit(ctx context.Context, accountID, amount, actorID string) (*domain.Operation, error)
	AdminDebit(ctx context.Context, accountID, amount, actorID string) (*domain.Operation, error)
	Statement(ctx context.Context, accountID string) (*domain.Statement, error)
	History(ctx context.Context, accountID string, limit, offset int) ([]domain.TransactionRecord, int, error)
}

type LedgerHandler struct {
	ledger   ledgerService
	currency string
}

func NewLedgerHandler(ledger ledgerService, currency string) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, currency: currency}
}

func (h *LedgerHandler) Statement(w http.ResponseWriter, r *http.Request) {
	id, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	s, err := h.ledger.Statement(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Error("statement failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toStatementDTO(*s, h.currency))
}

func (h *LedgerHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	id, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	limit, offset, fields := pagination(r)
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	records, total, err := h.ledger.History(r.Context(), id, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("history failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, historyDTO{
		Records: toRecordDTOs(records),
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	})
}

func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, "deposit", h.ledger.Deposit)
}

func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, "withdraw", h.ledger.Withdraw)
}

func (h *LedgerHandler) move(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	fn func(ctx context.Context, accountID, amount string) (*domain.Operation, error),
) {
	id, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	op, err := fn(r.Context(), id, req.Amount)
	if err != nil {
		logging.FromContext(r.Context()).Warn(name+" failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toOperationDTO(op, h.currency))
}

func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	op, err := h.ledger.Transfer(r.Context(), id, req.TargetID, req.Amount)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transfer failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toOperationDTO(op, h.currency))
}

func pagination(r *http.Request) (int, int, []FieldError) {
	var (
		limit, offset int
		errs          []FieldError
	)
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{Field: "limit", Message: "must be a non-negative integer"})
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{Field: "offset", Message: "must be a non-negative integer"})
		}
		offset = n
	}
	return limit, offset, errs
}
