package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

type memoryEntry struct {
	session   domain.RegistrationSession
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Reads ignore expired entries;
// Start runs a janitor that evicts them.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, applicantID string) (*domain.RegistrationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[applicantID]
	if !ok || !s.now().Before(e.expiresAt) {
		delete(s.entries, applicantID)
		return nil, fmt.Errorf("Get: %w", domain.ErrSessionNotFound)
	}
	sess := e.session
	return &sess, nil
}

func (s *MemoryStore) Put(_ context.Context, sess *domain.RegistrationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sess.ApplicantID] = memoryEntry{
		session:   *sess,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, applicantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, applicantID)
	return nil
}

// Sweep evicts expired sessions and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Start(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("session janitor started", "interval", interval, "ttl", s.ttl)

	for {
		select {
		case <-ctx.Done():
			logger.Info("session janitor stopped")
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug("expired registration sessions evicted", "count", n)
			}
		}
	}
}
