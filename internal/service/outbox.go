package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/logging"
	"github.com/josh-kwaku/community-bank/internal/metrics"
)

// Outbox queues notifications for asynchronous delivery. Notify never fails:
// an enqueue error is logged and counted, and the caller's committed state
// stands.
type Outbox struct {
	repo    notificationWriter
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutbox(repo notificationWriter, m *metrics.Metrics) *Outbox {
	return &Outbox{
		repo:    repo,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (o *Outbox) Notify(ctx context.Context, n domain.Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.Status = domain.NotificationStatusPending
	n.Attempts = 0
	n.CreatedAt = o.now()

	// Enqueue even when the request was cancelled after the caller committed.
	if err := o.repo.Create(context.WithoutCancel(ctx), &n); err != nil {
		logging.FromContext(ctx).Error("failed to enqueue notification",
			"notification_id", n.ID,
			"recipient_id", n.RecipientID,
			"error", err,
		)
		o.metrics.IncrementNotification("enqueue", "failed")
		return
	}
	o.metrics.IncrementNotification("enqueue", "ok")
}
