package notify

import (
	"context"
	"log/slog"
)

// LogChannel writes deliveries to the structured log. It is the default
// channel for local development.
type LogChannel struct {
	logger *slog.Logger
}

func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Deliver(_ context.Context, msg Message) error {
	attrs := []any{
		"notification_id", msg.ID,
		"recipient_id", msg.RecipientID,
		"text", msg.Text,
		"actions", len(msg.Actions),
	}
	if msg.Attachment != nil {
		attrs = append(attrs, "attachment_bytes", len(msg.Attachment.Data))
	}
	c.logger.Info("notification delivered", attrs...)
	return nil
}
