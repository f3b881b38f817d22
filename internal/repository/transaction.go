package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

const transactionColumns = `id, operation_id, account_id, kind, amount, note, created_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, rec *domain.TransactionRecord) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (id, operation_id, account_id, kind, amount, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.OperationID, rec.AccountID, rec.Kind, rec.Amount, rec.Note, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByAccountID(ctx context.Context, accountID string, limit, offset int) ([]domain.TransactionRecord, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: %w", err)
	}
	defer rows.Close()

	records, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByAccountID: %w", err)
	}
	return records, total, nil
}

func (r *TransactionRepository) GetByOperationID(ctx context.Context, operationID uuid.UUID) ([]domain.TransactionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE operation_id = $1 ORDER BY created_at, kind`, operationID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByOperationID: %w", err)
	}
	defer rows.Close()

	records, err := collectTransactions(rows)
	if err != nil {
		return nil, fmt.Errorf("GetByOperationID: %w", err)
	}
	return records, nil
}

func collectTransactions(rows *sql.Rows) ([]domain.TransactionRecord, error) {
	var records []domain.TransactionRecord
	for rows.Next() {
		var rec domain.TransactionRecord
		if err := rows.Scan(
			&rec.ID, &rec.OperationID, &rec.AccountID, &rec.Kind,
			&rec.Amount, &rec.Note, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return records, nil
}
