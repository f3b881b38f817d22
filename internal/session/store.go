// Package session holds in-progress registration sessions and serializes
// work per applicant. Sessions expire after an idle TTL; both an in-process
// and a Redis-backed implementation are provided.
package session

import (
	"context"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

// Store persists registration sessions keyed by applicant id. Get returns
// domain.ErrSessionNotFound for absent or expired sessions.
type Store interface {
	Get(ctx context.Context, applicantID string) (*domain.RegistrationSession, error)
	Put(ctx context.Context, s *domain.RegistrationSession) error
	Delete(ctx context.Context, applicantID string) error
}

// Locker runs fn while holding an exclusive lock on key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
