package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

const notificationColumns = `id, recipient_id, message, artifact_ref, actions, status,
	attempts, last_attempt, last_error, created_at`

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	actions, err := json.Marshal(actionsOrEmpty(n.Actions))
	if err != nil {
		return fmt.Errorf("Create: marshal actions: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO notifications (
			id, recipient_id, message, artifact_ref, actions, status, attempts, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.RecipientID, n.Message, n.ArtifactRef, actions,
		n.Status, n.Attempts, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// ClaimPending marks up to limit never-attempted notifications as attempted
// and returns them. SKIP LOCKED keeps concurrent processors from claiming the
// same rows, and the attempts filter makes delivery at-most-once.
func (r *NotificationRepository) ClaimPending(ctx context.Context, limit int) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`UPDATE notifications SET attempts = attempts + 1, last_attempt = now()
		WHERE id IN (
			SELECT id FROM notifications
			WHERE status = $1 AND attempts = 0
			ORDER BY created_at LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+notificationColumns,
		domain.NotificationStatusPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ClaimPending: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("ClaimPending: scan: %w", err)
		}
		out = append(out, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ClaimPending: rows: %w", err)
	}
	return out, nil
}

func (r *NotificationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NotificationStatus, lastErr *string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET status = $1, last_error = $2 WHERE id = $3`,
		status, lastErr, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func actionsOrEmpty(a []domain.Action) []domain.Action {
	if a == nil {
		return []domain.Action{}
	}
	return a
}

func scanNotification(s scanner) (*domain.Notification, error) {
	var (
		n       domain.Notification
		actions []byte
	)
	err := s.Scan(
		&n.ID, &n.RecipientID, &n.Message, &n.ArtifactRef, &actions, &n.Status,
		&n.Attempts, &n.LastAttempt, &n.LastError, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(actions) > 0 {
		if err := json.Unmarshal(actions, &n.Actions); err != nil {
			return nil, fmt.Errorf("unmarshal actions: %w", err)
		}
	}
	return &n, nil
}
