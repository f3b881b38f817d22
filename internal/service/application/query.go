package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

const actionSeparator = ":"

// ActionID builds the review-queue handle for deciding id, e.g. "app_accept:<id>".
func ActionID(id uuid.UUID, d domain.Decision) string {
	return "app_" + string(d) + actionSeparator + id.String()
}

// ParseAction is the inverse of ActionID.
func ParseAction(handle string) (uuid.UUID, domain.Decision, error) {
	prefix, rawID, ok := strings.Cut(handle, actionSeparator)
	if !ok {
		return uuid.Nil, "", fmt.Errorf("ParseAction: %w", domain.ErrInvalidDecision)
	}
	d := domain.Decision(strings.TrimPrefix(prefix, "app_"))
	if !strings.HasPrefix(prefix, "app_") || !d.IsValid() {
		return uuid.Nil, "", fmt.Errorf("ParseAction: %w", domain.ErrInvalidDecision)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("ParseAction: %w", domain.ErrApplicationNotFound)
	}
	return id, d, nil
}

func (w *Workflow) Get(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	app, err := w.applications.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return app, nil
}

// Events returns the application's audit trail, oldest first.
func (w *Workflow) Events(ctx context.Context, id uuid.UUID) ([]domain.ApplicationEvent, error) {
	events, err := w.events.GetByApplicationID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Events: %w", err)
	}
	return events, nil
}

func (w *Workflow) Artifact(ctx context.Context, ref uuid.UUID) (*domain.Artifact, error) {
	a, err := w.artifacts.GetByID(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("Artifact: %w", err)
	}
	return a, nil
}
