package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending    NotificationStatus = "pending"
	NotificationStatusDispatched NotificationStatus = "dispatched"
	NotificationStatusFailed     NotificationStatus = "failed"
)

// Action is an interactive handle attached to a notification, e.g. the
// accept/reject buttons on a review-queue message.
type Action struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Notification struct {
	ID          uuid.UUID
	RecipientID string
	Message     string
	ArtifactRef *uuid.UUID
	Actions     []Action
	Status      NotificationStatus
	Attempts    int
	LastAttempt *time.Time
	LastError   *string
	CreatedAt   time.Time
}
