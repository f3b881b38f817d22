package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

const applicationColumns = `id, applicant_id, display_name, origin_label, occupation, salary,
	status, account_number, card_expiry, submitted_artifact_ref, artifact_ref,
	decided_by, decided_at, created_at, updated_at`

type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, tx *sql.Tx, app *domain.Application) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO applications (
			id, applicant_id, display_name, origin_label, occupation, salary,
			status, submitted_artifact_ref, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		app.ID, app.ApplicantID, app.Profile.DisplayName, app.Profile.OriginLabel,
		app.Profile.Occupation, app.Profile.Salary,
		app.Status, app.SubmittedArtifactRef, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id,
	)
	a, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrApplicationNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *ApplicationRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Application, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`, id,
	)
	a, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrApplicationNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return a, nil
}

// UpdateDecision moves a pending application to its terminal state. A row that
// is no longer pending is reported as ErrAlreadyDecided.
func (r *ApplicationRepository) UpdateDecision(ctx context.Context, tx *sql.Tx, app *domain.Application) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE applications
		SET status = $1, account_number = $2, card_expiry = $3, artifact_ref = $4,
			decided_by = $5, decided_at = $6, updated_at = $7
		WHERE id = $8 AND status = $9`,
		app.Status, app.AccountNumber, app.CardExpiry, app.ArtifactRef,
		app.DecidedBy, app.DecidedAt, app.UpdatedAt,
		app.ID, domain.ApplicationStatusPending,
	)
	if err != nil {
		return fmt.Errorf("UpdateDecision: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateDecision: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateDecision: %w", domain.ErrAlreadyDecided)
	}
	return nil
}

func scanApplication(s scanner) (*domain.Application, error) {
	var a domain.Application
	err := s.Scan(
		&a.ID, &a.ApplicantID, &a.Profile.DisplayName, &a.Profile.OriginLabel,
		&a.Profile.Occupation, &a.Profile.Salary,
		&a.Status, &a.AccountNumber, &a.CardExpiry, &a.SubmittedArtifactRef, &a.ArtifactRef,
		&a.DecidedBy, &a.DecidedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
