package handler

import (
	"context"
	"net/http"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/logging"
)

type accountService interface {
	EnsureAccount(ctx context.Context, participantID string) (*domain.Account, error)
}

type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Open returns the caller's account, provisioning it on first use.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	id, appErr := callerID(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	account, err := h.accounts.EnsureAccount(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to ensure account", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAccountDTO(account))
}
