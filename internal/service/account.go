package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/logging"
)

// AccountStore provisions accounts on first reference.
type AccountStore struct {
	accounts accountRepository
}

func NewAccountStore(accounts accountRepository) *AccountStore {
	return &AccountStore{accounts: accounts}
}

// EnsureAccount returns the participant's account, creating it with zero
// balances if needed. Safe for concurrent first use of the same id.
func (s *AccountStore) EnsureAccount(ctx context.Context, participantID string) (*domain.Account, error) {
	participantID = strings.TrimSpace(participantID)
	if participantID == "" {
		return nil, fmt.Errorf("EnsureAccount: %w", domain.ErrInvalidParticipant)
	}

	account, err := s.accounts.Ensure(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("EnsureAccount: %w: %w", domain.ErrStorageFailure, err)
	}

	logging.FromContext(ctx).Debug("account ensured", "account_id", participantID, "version", account.Version)
	return account, nil
}
