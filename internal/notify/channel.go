// Package notify delivers messages to participants over an outbound channel.
// Delivery is one-way and best-effort: callers log failures and move on.
package notify

import (
	"context"

	"github.com/google/uuid"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

type Attachment struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

type Message struct {
	ID          uuid.UUID       `json:"id"`
	RecipientID string          `json:"recipient_id"`
	Text        string          `json:"text"`
	Attachment  *Attachment     `json:"attachment,omitempty"`
	Actions     []domain.Action `json:"actions,omitempty"`
}

type Channel interface {
	Deliver(ctx context.Context, msg Message) error
	Name() string
}
