package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/metrics"
	"github.com/josh-kwaku/community-bank/internal/notify"
)

type fakeAccountRepo struct {
	ensured []string
	err     error
}

func (f *fakeAccountRepo) Ensure(_ context.Context, id string) (*domain.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.ensured = append(f.ensured, id)
	return &domain.Account{ParticipantID: id, Version: 1}, nil
}

func TestAccountStore_EnsureAccount(t *testing.T) {
	repo := &fakeAccountRepo{}
	store := NewAccountStore(repo)

	acct, err := store.EnsureAccount(context.Background(), " 1234 ")
	require.NoError(t, err)
	assert.Equal(t, "1234", acct.ParticipantID)
	assert.Equal(t, []string{"1234"}, repo.ensured)

	_, err = store.EnsureAccount(context.Background(), "  ")
	require.ErrorIs(t, err, domain.ErrInvalidParticipant)
}

func TestAccountStore_StorageError(t *testing.T) {
	store := NewAccountStore(&fakeAccountRepo{err: errors.New("connection refused")})

	_, err := store.EnsureAccount(context.Background(), "1234")
	require.ErrorIs(t, err, domain.ErrStorageFailure)
}

type fakeNotificationRepo struct {
	created []domain.Notification
	err     error
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if f.err != nil {
		return f.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.created = append(f.created, *n)
	return nil
}

func TestOutbox_Notify(t *testing.T) {
	repo := &fakeNotificationRepo{}
	m := metrics.New(prometheus.NewRegistry())
	outbox := NewOutbox(repo, m)

	outbox.Notify(context.Background(), domain.Notification{RecipientID: "r1", Message: "hello"})

	require.Len(t, repo.created, 1)
	n := repo.created[0]
	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.Equal(t, domain.NotificationStatusPending, n.Status)
	assert.False(t, n.CreatedAt.IsZero())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("enqueue", "ok")))
}

func TestOutbox_NotifySurvivesCancelledRequest(t *testing.T) {
	repo := &fakeNotificationRepo{}
	m := metrics.New(prometheus.NewRegistry())
	outbox := NewOutbox(repo, m)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outbox.Notify(ctx, domain.Notification{RecipientID: "r1", Message: "transfer received"})

	require.Len(t, repo.created, 1)
	assert.Equal(t, "r1", repo.created[0].RecipientID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("enqueue", "ok")))
}

func TestOutbox_NotifySwallowsErrors(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	outbox := NewOutbox(&fakeNotificationRepo{err: errors.New("db down")}, m)

	assert.NotPanics(t, func() {
		outbox.Notify(context.Background(), domain.Notification{RecipientID: "r1"})
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("enqueue", "failed")))
}

type fakeQueue struct {
	pending  []domain.Notification
	statuses map[uuid.UUID]domain.NotificationStatus
	reasons  map[uuid.UUID]string
}

func newFakeQueue(pending ...domain.Notification) *fakeQueue {
	return &fakeQueue{
		pending:  pending,
		statuses: make(map[uuid.UUID]domain.NotificationStatus),
		reasons:  make(map[uuid.UUID]string),
	}
}

func (q *fakeQueue) ClaimPending(_ context.Context, limit int) ([]domain.Notification, error) {
	n := min(limit, len(q.pending))
	claimed := q.pending[:n]
	q.pending = q.pending[n:]
	return claimed, nil
}

func (q *fakeQueue) UpdateStatus(_ context.Context, id uuid.UUID, status domain.NotificationStatus, lastErr *string) error {
	q.statuses[id] = status
	if lastErr != nil {
		q.reasons[id] = *lastErr
	}
	return nil
}

type fakeArtifacts map[uuid.UUID]*domain.Artifact

func (f fakeArtifacts) GetByID(_ context.Context, id uuid.UUID) (*domain.Artifact, error) {
	a, ok := f[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

type recordingChannel struct {
	delivered []notify.Message
	failFor   string
}

func (c *recordingChannel) Name() string { return "recording" }

func (c *recordingChannel) Deliver(_ context.Context, msg notify.Message) error {
	if msg.RecipientID == c.failFor {
		return errors.New("recipient unreachable")
	}
	c.delivered = append(c.delivered, msg)
	return nil
}

func TestNotificationProcessor_Poll(t *testing.T) {
	artID := uuid.New()
	missingArt := uuid.New()
	ok := domain.Notification{ID: uuid.New(), RecipientID: "a", Message: "hi", ArtifactRef: &artID}
	unreachable := domain.Notification{ID: uuid.New(), RecipientID: "blocked", Message: "hi"}
	noArtifact := domain.Notification{ID: uuid.New(), RecipientID: "c", Message: "hi", ArtifactRef: &missingArt}

	queue := newFakeQueue(ok, unreachable, noArtifact)
	channel := &recordingChannel{failFor: "blocked"}
	m := metrics.New(prometheus.NewRegistry())
	p := NewNotificationProcessor(
		queue,
		fakeArtifacts{artID: {ID: artID, ContentType: "image/png", Data: []byte("png")}},
		channel,
		m,
		slog.Default(),
		time.Second,
		10,
	)

	p.poll(context.Background())

	require.Len(t, channel.delivered, 1)
	assert.Equal(t, "a", channel.delivered[0].RecipientID)
	require.NotNil(t, channel.delivered[0].Attachment)
	assert.Equal(t, []byte("png"), channel.delivered[0].Attachment.Data)

	assert.Equal(t, domain.NotificationStatusDispatched, queue.statuses[ok.ID])
	assert.Equal(t, domain.NotificationStatusFailed, queue.statuses[unreachable.ID])
	assert.Equal(t, domain.NotificationStatusFailed, queue.statuses[noArtifact.ID])
	assert.Contains(t, queue.reasons[unreachable.ID], "unreachable")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Notifications.WithLabelValues("deliver", "failed")))

	// Nothing is retried on the next poll.
	p.poll(context.Background())
	assert.Len(t, channel.delivered, 1)
}
