package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

type accountRepository interface {
	Ensure(ctx context.Context, id string) (*domain.Account, error)
}

type notificationWriter interface {
	Create(ctx context.Context, n *domain.Notification) error
}

type notificationQueue interface {
	ClaimPending(ctx context.Context, limit int) ([]domain.Notification, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.NotificationStatus, lastErr *string) error
}

type artifactReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error)
}
