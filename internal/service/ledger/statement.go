package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Statement reads both balances. Unknown participants report zero balances
// and no account is created.
func (e *Engine) Statement(ctx context.Context, accountID string) (*domain.Statement, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, fmt.Errorf("Statement: %w", domain.ErrInvalidParticipant)
	}

	acct, err := e.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.Statement{ParticipantID: accountID}, nil
		}
		return nil, fmt.Errorf("Statement: %w: %w", domain.ErrStorageFailure, err)
	}

	return &domain.Statement{
		ParticipantID:      acct.ParticipantID,
		InstitutionBalance: acct.InstitutionBalance,
		OnHandBalance:      acct.OnHandBalance,
	}, nil
}

// History lists an account's records, newest first.
func (e *Engine) History(ctx context.Context, accountID string, limit, offset int) ([]domain.TransactionRecord, int, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, 0, fmt.Errorf("History: %w", domain.ErrInvalidParticipant)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)
	offset = max(offset, 0)

	records, total, err := e.records.GetByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("History: %w: %w", domain.ErrStorageFailure, err)
	}
	return records, total, nil
}
