package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/repository"
)

// posting is one side effect of an operation: a balance delta on one account
// and the record describing it. The record amount is the institution delta.
type posting struct {
	accountID   string
	kind        domain.TransactionKind
	institution int64
	onHand      int64
	note        string
}

// planFunc decides the postings from the locked accounts. Returning
// domain.ErrInsufficientFunds rejects the operation without retry.
type planFunc func(locked map[string]*domain.Account) ([]posting, error)

func (e *Engine) execute(ctx context.Context, name string, ids []string, plan planFunc) (*domain.Operation, error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "ledger."+name)
	defer span.End()
	span.SetAttributes(attribute.StringSlice("ledger.accounts", ids))

	op, err := e.executeWithRetry(ctx, name, ids, plan)
	if err != nil {
		outcome := "storage_failure"
		if errors.Is(err, domain.ErrInsufficientFunds) {
			outcome = "insufficient_funds"
		}
		e.metrics.ObserveLedger(name, outcome, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}

	e.metrics.ObserveLedger(name, "ok", start)
	span.SetAttributes(attribute.String("ledger.operation_id", op.ID.String()))
	return op, nil
}

func (e *Engine) executeWithRetry(ctx context.Context, name string, ids []string, plan planFunc) (*domain.Operation, error) {
	for _, id := range ids {
		if _, err := e.accounts.Ensure(ctx, id); err != nil {
			return nil, fmt.Errorf("execute: %w: %w", domain.ErrStorageFailure, err)
		}
	}

	var (
		result   *domain.Operation
		rejected error
		attempt  int
	)
	run := func() error {
		attempt++
		if attempt > 1 {
			e.metrics.IncrementLedgerRetry(name)
		}

		op, err := e.runOnce(ctx, ids, plan)
		switch {
		case err == nil:
			result = op
			return nil
		case errors.Is(err, domain.ErrInsufficientFunds):
			rejected = err
			return nil
		case repository.IsTransient(err):
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), uint64(e.cfg.MaxRetries)), ctx)
	if err := backoff.Retry(run, policy); err != nil {
		return nil, fmt.Errorf("execute: %w: %w", domain.ErrStorageFailure, err)
	}
	if rejected != nil {
		return nil, fmt.Errorf("execute: %w", rejected)
	}
	return result, nil
}

func newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	return b
}

func (e *Engine) runOnce(ctx context.Context, ids []string, plan planFunc) (*domain.Operation, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("runOnce: begin tx: %w", err)
	}
	defer tx.Rollback()

	locked, err := lockAccountsInOrder(ctx, tx, e.accounts, ids...)
	if err != nil {
		return nil, fmt.Errorf("runOnce: %w", err)
	}

	postings, err := plan(locked)
	if err != nil {
		return nil, fmt.Errorf("runOnce: %w", err)
	}

	balances, err := e.applyPostings(ctx, tx, locked, postings)
	if err != nil {
		return nil, fmt.Errorf("runOnce: %w", err)
	}

	op := &domain.Operation{
		ID:       uuid.New(),
		Balances: balances,
	}
	now := e.now()
	for _, p := range postings {
		rec := domain.TransactionRecord{
			ID:          uuid.New(),
			OperationID: op.ID,
			AccountID:   p.accountID,
			Kind:        p.kind,
			Amount:      p.institution,
			Note:        p.note,
			CreatedAt:   now,
		}
		if err := e.records.Create(ctx, tx, &rec); err != nil {
			return nil, fmt.Errorf("runOnce: record %s: %w", p.kind, err)
		}
		op.Records = append(op.Records, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("runOnce: commit: %w", err)
	}
	return op, nil
}

// applyPostings sums deltas per account and writes the resulting balances.
// A negative result on either balance rejects the whole operation.
func (e *Engine) applyPostings(ctx context.Context, tx *sql.Tx, locked map[string]*domain.Account, postings []posting) (map[string]domain.Statement, error) {
	type delta struct{ institution, onHand int64 }
	deltas := make(map[string]*delta)
	for _, p := range postings {
		d, ok := deltas[p.accountID]
		if !ok {
			d = &delta{}
			deltas[p.accountID] = d
		}
		d.institution += p.institution
		d.onHand += p.onHand
	}

	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	balances := make(map[string]domain.Statement, len(ids))
	for _, id := range ids {
		acct, ok := locked[id]
		if !ok {
			return nil, fmt.Errorf("applyPostings: account %s not locked", id)
		}
		d := deltas[id]
		institution := acct.InstitutionBalance + d.institution
		onHand := acct.OnHandBalance + d.onHand
		if institution < 0 || onHand < 0 {
			return nil, fmt.Errorf("applyPostings: %s: %w", id, domain.ErrInsufficientFunds)
		}
		if err := e.accounts.UpdateBalances(ctx, tx, id, institution, onHand, acct.Version+1); err != nil {
			return nil, fmt.Errorf("applyPostings: %w", err)
		}
		balances[id] = domain.Statement{
			ParticipantID:      id,
			InstitutionBalance: institution,
			OnHandBalance:      onHand,
		}
	}
	return balances, nil
}

func lockAccountsInOrder(ctx context.Context, tx *sql.Tx, accounts accountRepo, ids ...string) (map[string]*domain.Account, error) {
	sorted := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			sorted = append(sorted, id)
		}
	}
	sort.Strings(sorted)

	result := make(map[string]*domain.Account, len(sorted))
	for _, id := range sorted {
		acct, err := accounts.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, fmt.Errorf("lockAccountsInOrder: %w", err)
		}
		result[id] = acct
	}
	return result, nil
}
