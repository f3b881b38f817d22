package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

type ApplicationEventRepository struct {
	db *sql.DB
}

func NewApplicationEventRepository(db *sql.DB) *ApplicationEventRepository {
	return &ApplicationEventRepository{db: db}
}

func (r *ApplicationEventRepository) Create(ctx context.Context, tx *sql.Tx, event *domain.ApplicationEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO application_events (id, application_id, event_type, actor, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.ApplicationID, event.EventType, event.Actor, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ApplicationEventRepository) GetByApplicationID(ctx context.Context, applicationID uuid.UUID) ([]domain.ApplicationEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, application_id, event_type, actor, created_at FROM application_events
		WHERE application_id = $1 ORDER BY created_at, seq`, applicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByApplicationID: %w", err)
	}
	defer rows.Close()

	var events []domain.ApplicationEvent
	for rows.Next() {
		var e domain.ApplicationEvent
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.EventType, &e.Actor, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("GetByApplicationID: scan: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByApplicationID: rows: %w", err)
	}
	return events, nil
}
