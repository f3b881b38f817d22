package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/logging"
)

const adminHistoryLimit = 10

type AdminHandler struct {
	ledger   ledgerService
	currency string
}

func NewAdminHandler(ledger ledgerService, currency string) *AdminHandler {
	return &AdminHandler{ledger: ledger, currency: currency}
}

func (h *AdminHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, "admin credit", h.ledger.AdminCredit)
}

func (h *AdminHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.adjust(w, r, "admin debit", h.ledger.AdminDebit)
}

func (h *AdminHandler) adjust(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	fn func(ctx context.Context, accountID, amount, actorID string) (*domain.Operation, error),
) {
	actorID, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}
	targetID, appErr := participantFromPath(r)
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

	op, err := fn(r.Context(), targetID, req.Amount, actorID)
	if err != nil {
		logging.FromContext(r.Context()).Warn(name+" failed", "target_id", targetID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toOperationDTO(op, h.currency))
}

type adminStatementDTO struct {
	Statement statementDTO `json:"statement"`
	Recent    []recordDTO  `json:"recent"`
	Total     int          `json:"total_records"`
}

// Statement reports any participant's balances with their latest records.
func (h *AdminHandler) Statement(w http.ResponseWriter, r *http.Request) {
	targetID, appErr := participantFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	s, err := h.ledger.Statement(r.Context(), targetID)
	if err != nil {
		logging.FromContext(r.Context()).Error("admin statement failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	records, total, err := h.ledger.History(r.Context(), targetID, adminHistoryLimit, 0)
	if err != nil {
		logging.FromContext(r.Context()).Error("admin history failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, adminStatementDTO{
		Statement: toStatementDTO(*s, h.currency),
		Recent:    toRecordDTOs(records),
		Total:     total,
	})
}
