package application

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/josh-kwaku/community-bank/internal/artifact"
	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/logging"
	"github.com/josh-kwaku/community-bank/internal/repository"
)

const accountNumberDigits = 11

// Decide moves a pending application to its terminal state. The pending check
// runs under a row lock, so account provisioning and card issuance happen at
// most once per application; any later decision fails with ErrAlreadyDecided.
func (w *Workflow) Decide(ctx context.Context, id uuid.UUID, decision domain.Decision, reviewerID string) (*domain.Application, error) {
	ctx, span := w.tracer.Start(ctx, "application.decide")
	defer span.End()
	span.SetAttributes(
		attribute.String("application.id", id.String()),
		attribute.String("application.decision", string(decision)),
	)

	if !decision.IsValid() {
		return nil, fmt.Errorf("Decide: %w", domain.ErrInvalidDecision)
	}
	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		return nil, fmt.Errorf("Decide: reviewer: %w", domain.ErrInvalidParticipant)
	}

	var decided *domain.Application
	err := repository.WithTx(ctx, w.db, func(tx *sql.Tx) error {
		app, err := w.applications.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if app.IsTerminal() {
			return domain.ErrAlreadyDecided
		}

		now := w.now()
		event := domain.ApplicationEventRejected
		app.Status = domain.ApplicationStatusRejected

		if decision == domain.DecisionAccept {
			event = domain.ApplicationEventAccepted
			if err := w.issue(ctx, tx, app); err != nil {
				return err
			}
			app.Status = domain.ApplicationStatusAccepted
		}

		app.DecidedBy = &reviewerID
		app.DecidedAt = &now
		app.UpdatedAt = now
		if err := w.applications.UpdateDecision(ctx, tx, app); err != nil {
			return err
		}
		if err := w.events.Create(ctx, tx, &domain.ApplicationEvent{
			ID:            uuid.New(),
			ApplicationID: app.ID,
			EventType:     event,
			Actor:         reviewerID,
			CreatedAt:     now,
		}); err != nil {
			return err
		}

		decided = app
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrApplicationNotFound) || errors.Is(err, domain.ErrAlreadyDecided) {
			span.SetStatus(codes.Error, "rejected")
			return nil, fmt.Errorf("Decide: %w", err)
		}
		span.SetStatus(codes.Error, "storage_failure")
		return nil, fmt.Errorf("Decide: %w: %w", domain.ErrStorageFailure, err)
	}

	w.metrics.IncrementDecision(string(decision))
	w.notifyApplicant(ctx, decided)

	logging.FromContext(ctx).Info("application decided",
		"application_id", decided.ID,
		"applicant_id", decided.ApplicantID,
		"status", decided.Status,
		"reviewer_id", reviewerID,
	)
	return decided, nil
}

// issue provisions the applicant's account and stores the final card on app,
// all inside the decision transaction.
func (w *Workflow) issue(ctx context.Context, tx *sql.Tx, app *domain.Application) error {
	number, err := w.newNumber()
	if err != nil {
		return err
	}
	expiry := cardExpiry(w.now().AddDate(w.cfg.CardValidityYears, 0, 0))

	data, err := w.renderer.RenderAccountCard(ctx, artifact.AccountCard{
		DisplayName:   app.Profile.DisplayName,
		AccountNumber: number,
		Expiry:        expiry,
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	card := &domain.Artifact{
		ID:          uuid.New(),
		ContentType: w.renderer.ContentType(),
		Data:        data,
		CreatedAt:   w.now(),
	}
	if err := w.artifacts.Create(ctx, tx, card); err != nil {
		return err
	}
	if _, err := w.accounts.EnsureTx(ctx, tx, app.ApplicantID); err != nil {
		return err
	}

	app.AccountNumber = &number
	app.CardExpiry = &expiry
	app.ArtifactRef = &card.ID
	return nil
}

func (w *Workflow) notifyApplicant(ctx context.Context, app *domain.Application) {
	n := domain.Notification{RecipientID: app.ApplicantID}
	if app.Status == domain.ApplicationStatusAccepted {
		n.Message = fmt.Sprintf("Your application to %s was accepted. Here is your card.", w.cfg.BankName)
		n.ArtifactRef = app.ArtifactRef
	} else {
		n.Message = fmt.Sprintf("Your application to %s was rejected.", w.cfg.BankName)
	}
	w.notifier.Notify(ctx, n)
}

func generateAccountNumber() (string, error) {
	digits := make([]byte, accountNumberDigits)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generateAccountNumber: %w", err)
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return string(digits), nil
}

// cardExpiry formats t as MM/YYYY.
func cardExpiry(t time.Time) string {
	return t.Format("01/2006")
}
