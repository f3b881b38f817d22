package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

type ArtifactRepository struct {
	db *sql.DB
}

func NewArtifactRepository(db *sql.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

func (r *ArtifactRepository) Create(ctx context.Context, tx *sql.Tx, a *domain.Artifact) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO artifacts (id, content_type, data, created_at) VALUES ($1, $2, $3, $4)`,
		a.ID, a.ContentType, a.Data, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ArtifactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	var a domain.Artifact
	err := r.db.QueryRowContext(ctx,
		`SELECT id, content_type, data, created_at FROM artifacts WHERE id = $1`, id,
	).Scan(&a.ID, &a.ContentType, &a.Data, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return &a, nil
}
