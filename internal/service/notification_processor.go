package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/metrics"
	"github.com/josh-kwaku/community-bank/internal/notify"
)

// NotificationProcessor drains the notification outbox. Each notification is
// attempted once; failures are recorded and never retried.
type NotificationProcessor struct {
	queue     notificationQueue
	artifacts artifactReader
	channel   notify.Channel
	metrics   *metrics.Metrics
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewNotificationProcessor(
	queue notificationQueue,
	artifacts artifactReader,
	channel notify.Channel,
	m *metrics.Metrics,
	logger *slog.Logger,
	interval time.Duration,
	batchSize int,
) *NotificationProcessor {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &NotificationProcessor{
		queue:     queue,
		artifacts: artifacts,
		channel:   channel,
		metrics:   m,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

func (p *NotificationProcessor) Start(ctx context.Context) {
	p.logger.Info("notification processor started", "interval", p.interval, "channel", p.channel.Name())

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification processor stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *NotificationProcessor) poll(ctx context.Context) {
	pending, err := p.queue.ClaimPending(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to claim pending notifications", "error", err)
		return
	}

	for _, n := range pending {
		if err := p.process(ctx, n); err != nil {
			p.logger.Error("failed to record notification outcome",
				"notification_id", n.ID,
				"error", err,
			)
		}
	}
}

func (p *NotificationProcessor) process(ctx context.Context, n domain.Notification) error {
	msg, err := p.buildMessage(ctx, n)
	if err == nil {
		err = p.channel.Deliver(ctx, msg)
	}

	if err != nil {
		p.logger.Warn("notification delivery failed",
			"notification_id", n.ID,
			"recipient_id", n.RecipientID,
			"error", err,
		)
		p.metrics.IncrementNotification("deliver", "failed")
		reason := err.Error()
		return p.queue.UpdateStatus(ctx, n.ID, domain.NotificationStatusFailed, &reason)
	}

	p.metrics.IncrementNotification("deliver", "ok")
	return p.queue.UpdateStatus(ctx, n.ID, domain.NotificationStatusDispatched, nil)
}

func (p *NotificationProcessor) buildMessage(ctx context.Context, n domain.Notification) (notify.Message, error) {
	msg := notify.Message{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Text:        n.Message,
		Actions:     n.Actions,
	}
	if n.ArtifactRef != nil {
		art, err := p.artifacts.GetByID(ctx, *n.ArtifactRef)
		if err != nil {
			return msg, fmt.Errorf("buildMessage: artifact %s: %w", *n.ArtifactRef, err)
		}
		msg.Attachment = &notify.Attachment{ContentType: art.ContentType, Data: art.Data}
	}
	return msg, nil
}
