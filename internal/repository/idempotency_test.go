package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepository_Reserve(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	entry := &IdempotencyCacheEntry{
		Key:           "k1",
		ParticipantID: "alice",
		RequestHash:   "abc",
		CreatedAt:     now,
		ExpiresAt:     now.Add(time.Hour),
	}

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "free key is reserved", affected: 1, want: true},
		{name: "live key is taken", affected: 0, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewIdempotencyRepository(db)

			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO idempotency_cache`)).
				WithArgs("k1", "alice", "abc", now, now.Add(time.Hour)).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))

			got, err := repo.Reserve(context.Background(), entry)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIdempotencyRepository_ReleaseOnlyPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIdempotencyRepository(db)

	mock.ExpectExec(`(?s)`+regexp.QuoteMeta(`DELETE FROM idempotency_cache`)+`.*status_code = 0`).
		WithArgs("k1", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Release(context.Background(), "k1", "alice"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyCacheEntry_Pending(t *testing.T) {
	assert.True(t, (&IdempotencyCacheEntry{}).Pending())
	assert.False(t, (&IdempotencyCacheEntry{StatusCode: 201}).Pending())
}
