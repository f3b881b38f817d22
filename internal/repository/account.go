package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

const accountColumns = `participant_id, institution_balance, on_hand_balance, version, created_at, updated_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE participant_id = $1`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

// Ensure returns the account for id, creating it with zero balances when absent.
// Concurrent first use resolves through the primary key: the losing insert is a no-op.
func (r *AccountRepository) Ensure(ctx context.Context, id string) (*domain.Account, error) {
	a, err := ensureAccount(ctx, r.db, id)
	if err != nil {
		return nil, fmt.Errorf("Ensure: %w", err)
	}
	return a, nil
}

// EnsureTx is Ensure inside the caller's transaction.
func (r *AccountRepository) EnsureTx(ctx context.Context, tx *sql.Tx, id string) (*domain.Account, error) {
	a, err := ensureAccount(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("EnsureTx: %w", err)
	}
	return a, nil
}

func ensureAccount(ctx context.Context, q querier, id string) (*domain.Account, error) {
	_, err := q.ExecContext(ctx,
		`INSERT INTO accounts (participant_id) VALUES ($1) ON CONFLICT (participant_id) DO NOTHING`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}

	a, err := scanAccount(q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE participant_id = $1`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}
	return a, nil
}

func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE participant_id = $1 FOR UPDATE`, id,
	)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

// UpdateBalances writes both balances if the row is still at newVersion-1.
func (r *AccountRepository) UpdateBalances(ctx context.Context, tx *sql.Tx, id string, institution, onHand, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE accounts
		SET institution_balance = $1, on_hand_balance = $2, version = $3, updated_at = now()
		WHERE participant_id = $4 AND version = $5`,
		institution, onHand, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalances: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalances: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalances: %w", domain.ErrVersionConflict)
	}
	return nil
}

func scanAccount(s scanner) (*domain.Account, error) {
	var a domain.Account
	err := s.Scan(
		&a.ParticipantID, &a.InstitutionBalance, &a.OnHandBalance,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
