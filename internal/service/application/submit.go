package application

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/josh-kwaku/community-bank/internal/artifact"
	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/logging"
	"github.com/josh-kwaku/community-bank/internal/repository"
)

// Submit stores a pending application with its rendered summary and posts it
// to the review queue with accept and reject action handles.
func (w *Workflow) Submit(ctx context.Context, applicantID string, profile domain.Profile) (*domain.Application, error) {
	ctx, span := w.tracer.Start(ctx, "application.submit")
	defer span.End()

	applicantID = strings.TrimSpace(applicantID)
	if applicantID == "" {
		return nil, fmt.Errorf("Submit: %w", domain.ErrInvalidParticipant)
	}
	profile, err := profile.Normalize()
	if err != nil {
		return nil, fmt.Errorf("Submit: %w", err)
	}

	data, err := w.renderer.RenderApplication(ctx, artifact.ApplicationCard{
		ApplicantID: applicantID,
		DisplayName: profile.DisplayName,
		OriginLabel: profile.OriginLabel,
		Occupation:  profile.Occupation,
		Salary:      domain.FormatAmount(profile.Salary, w.cfg.CurrencyCode),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("Submit: render: %w", err)
	}

	now := w.now()
	art := &domain.Artifact{
		ID:          uuid.New(),
		ContentType: w.renderer.ContentType(),
		Data:        data,
		CreatedAt:   now,
	}
	app := &domain.Application{
		ID:                   uuid.New(),
		ApplicantID:          applicantID,
		Profile:              profile,
		Status:               domain.ApplicationStatusPending,
		SubmittedArtifactRef: &art.ID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err = repository.WithTx(ctx, w.db, func(tx *sql.Tx) error {
		if err := w.artifacts.Create(ctx, tx, art); err != nil {
			return err
		}
		if err := w.applications.Create(ctx, tx, app); err != nil {
			return err
		}
		return w.events.Create(ctx, tx, &domain.ApplicationEvent{
			ID:            uuid.New(),
			ApplicationID: app.ID,
			EventType:     domain.ApplicationEventSubmitted,
			Actor:         applicantID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage_failure")
		return nil, fmt.Errorf("Submit: %w: %w", domain.ErrStorageFailure, err)
	}
	span.SetAttributes(attribute.String("application.id", app.ID.String()))
	w.metrics.IncrementSubmitted()

	w.notifier.Notify(ctx, domain.Notification{
		RecipientID: w.cfg.ReviewQueueID,
		Message: fmt.Sprintf("New application for %s\nName: %s\nFrom: %s\nOccupation: %s\nSalary: %s",
			w.cfg.BankName,
			profile.DisplayName,
			profile.OriginLabel,
			profile.Occupation,
			domain.FormatAmount(profile.Salary, w.cfg.CurrencyCode),
		),
		ArtifactRef: &art.ID,
		Actions: []domain.Action{
			{ID: ActionID(app.ID, domain.DecisionAccept), Label: "Accept"},
			{ID: ActionID(app.ID, domain.DecisionReject), Label: "Reject"},
		},
	})

	logging.FromContext(ctx).Info("application submitted",
		"application_id", app.ID,
		"applicant_id", applicantID,
	)
	return app, nil
}
