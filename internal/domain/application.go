package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

func (d Decision) IsValid() bool {
	return d == DecisionAccept || d == DecisionReject
}

// Profile is the data collected by registration and frozen at submission.
type Profile struct {
	DisplayName string
	OriginLabel string
	Occupation  string
	Salary      int64
}

const MaxTextFieldLength = 100

// NormalizeText trims value and checks it holds between 1 and
// MaxTextFieldLength characters.
func NormalizeText(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" || utf8.RuneCountInString(v) > MaxTextFieldLength {
		return "", ErrInvalidField
	}
	return v, nil
}

// Normalize returns p with trimmed text fields, or an error naming the first
// field that fails validation.
func (p Profile) Normalize() (Profile, error) {
	fields := []struct {
		name string
		dst  *string
	}{
		{"display_name", &p.DisplayName},
		{"origin_label", &p.OriginLabel},
		{"occupation", &p.Occupation},
	}
	for _, f := range fields {
		v, err := NormalizeText(*f.dst)
		if err != nil {
			return Profile{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = v
	}
	if p.Salary <= 0 {
		return Profile{}, fmt.Errorf("salary: %w", ErrInvalidAmount)
	}
	return p, nil
}

type Application struct {
	ID                   uuid.UUID
	ApplicantID          string
	Profile              Profile
	Status               ApplicationStatus
	AccountNumber        *string
	CardExpiry           *string
	SubmittedArtifactRef *uuid.UUID
	ArtifactRef          *uuid.UUID
	DecidedBy            *string
	DecidedAt            *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (a *Application) IsTerminal() bool {
	return a.Status != ApplicationStatusPending
}

type ApplicationEventType string

const (
	ApplicationEventSubmitted ApplicationEventType = "submitted"
	ApplicationEventAccepted  ApplicationEventType = "accepted"
	ApplicationEventRejected  ApplicationEventType = "rejected"
)

type ApplicationEvent struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	EventType     ApplicationEventType
	Actor         string
	CreatedAt     time.Time
}

// Artifact is opaque rendered content, referenced from applications and notifications.
type Artifact struct {
	ID          uuid.UUID
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}
