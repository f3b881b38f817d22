// Package registration collects an applicant's profile one field at a time
// (name, origin, occupation, salary) and submits it for review. Any invalid
// input discards the session and the applicant starts over.
package registration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/logging"
	"github.com/josh-kwaku/community-bank/internal/metrics"
	"github.com/josh-kwaku/community-bank/internal/session"
)

type Submitter interface {
	Submit(ctx context.Context, applicantID string, profile domain.Profile) (*domain.Application, error)
}

type Prompt struct {
	Field   domain.RegistrationField `json:"field"`
	Message string                   `json:"message"`
}

// StepResult is either the next prompt or, after the last field, the
// submitted application.
type StepResult struct {
	Next        *Prompt
	Application *domain.Application
}

type Workflow struct {
	store     session.Store
	locker    session.Locker
	submitter Submitter
	bankName  string
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewWorkflow(store session.Store, locker session.Locker, submitter Submitter, bankName string, m *metrics.Metrics) *Workflow {
	return &Workflow{
		store:     store,
		locker:    locker,
		submitter: submitter,
		bankName:  bankName,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start discards any session in progress and returns the first prompt.
func (w *Workflow) Start(ctx context.Context, applicantID string) (*Prompt, error) {
	applicantID = strings.TrimSpace(applicantID)
	if applicantID == "" {
		return nil, fmt.Errorf("Start: %w", domain.ErrInvalidParticipant)
	}

	err := w.locker.WithLock(ctx, applicantID, func(ctx context.Context) error {
		return w.store.Put(ctx, &domain.RegistrationSession{
			ApplicantID: applicantID,
			Expected:    domain.FieldName,
			UpdatedAt:   w.now(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("Start: %w", err)
	}

	logging.FromContext(ctx).Info("registration started", "applicant_id", applicantID)
	return w.prompt(domain.FieldName), nil
}

// Collect records one field. The name field always begins a fresh session;
// every other field must match the field the session expects.
func (w *Workflow) Collect(ctx context.Context, applicantID string, field domain.RegistrationField, value string) (*StepResult, error) {
	applicantID = strings.TrimSpace(applicantID)
	if applicantID == "" {
		return nil, fmt.Errorf("Collect: %w", domain.ErrInvalidParticipant)
	}
	if !field.IsValid() {
		return nil, fmt.Errorf("Collect: unknown field %q: %w", field, domain.ErrInvalidField)
	}

	var result *StepResult
	err := w.locker.WithLock(ctx, applicantID, func(ctx context.Context) error {
		var err error
		result, err = w.collect(ctx, applicantID, field, value)
		return err
	})
	w.metrics.IncrementRegistrationStep(string(field), stepOutcome(result, err))
	if err != nil {
		return nil, fmt.Errorf("Collect: %w", err)
	}
	return result, nil
}

func (w *Workflow) collect(ctx context.Context, applicantID string, field domain.RegistrationField, value string) (*StepResult, error) {
	sess := &domain.RegistrationSession{ApplicantID: applicantID, Expected: domain.FieldName}
	if field != domain.FieldName {
		current, err := w.store.Get(ctx, applicantID)
		if err != nil {
			return nil, err
		}
		if current.Expected != field {
			w.discard(ctx, applicantID, "out of order")
			return nil, fmt.Errorf("expected %s, got %s: %w", current.Expected, field, domain.ErrStepOutOfOrder)
		}
		sess = current
	}

	if err := apply(sess, field, value); err != nil {
		w.discard(ctx, applicantID, "invalid "+string(field))
		return nil, err
	}

	next := field.Next()
	if next == "" {
		return w.submit(ctx, sess, value)
	}

	sess.Expected = next
	sess.UpdatedAt = w.now()
	if err := w.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return &StepResult{Next: w.prompt(next)}, nil
}

// submit hands the completed profile to review. The session survives a failed
// submission so the applicant can resend the last field.
func (w *Workflow) submit(ctx context.Context, sess *domain.RegistrationSession, salary string) (*StepResult, error) {
	amount, err := domain.ParseAmount(salary)
	if err != nil {
		return nil, err
	}
	profile := domain.Profile{
		DisplayName: sess.DisplayName,
		OriginLabel: sess.OriginLabel,
		Occupation:  sess.Occupation,
		Salary:      amount,
	}

	app, err := w.submitter.Submit(ctx, sess.ApplicantID, profile)
	if err != nil {
		return nil, err
	}

	if err := w.store.Delete(ctx, sess.ApplicantID); err != nil {
		logging.FromContext(ctx).Warn("failed to discard completed registration session",
			"applicant_id", sess.ApplicantID,
			"error", err,
		)
	}
	return &StepResult{Application: app}, nil
}

func (w *Workflow) discard(ctx context.Context, applicantID, reason string) {
	logger := logging.FromContext(ctx)
	if err := w.store.Delete(ctx, applicantID); err != nil {
		logger.Warn("failed to discard registration session", "applicant_id", applicantID, "error", err)
		return
	}
	logger.Info("registration session discarded", "applicant_id", applicantID, "reason", reason)
}

func apply(sess *domain.RegistrationSession, field domain.RegistrationField, value string) error {
	if field == domain.FieldSalary {
		if _, err := domain.ParseAmount(value); err != nil {
			return err
		}
		return nil
	}

	v, err := domain.NormalizeText(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	switch field {
	case domain.FieldName:
		sess.DisplayName = v
	case domain.FieldOrigin:
		sess.OriginLabel = v
	case domain.FieldOccupation:
		sess.Occupation = v
	}
	return nil
}

func (w *Workflow) prompt(field domain.RegistrationField) *Prompt {
	var msg string
	switch field {
	case domain.FieldName:
		msg = fmt.Sprintf("Welcome to %s. What is your name?", w.bankName)
	case domain.FieldOrigin:
		msg = "Where are you from?"
	case domain.FieldOccupation:
		msg = "What is your occupation?"
	case domain.FieldSalary:
		msg = "What is your monthly salary?"
	}
	return &Prompt{Field: field, Message: msg}
}

func stepOutcome(result *StepResult, err error) string {
	switch {
	case err == nil && result.Application != nil:
		return "submitted"
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "expired"
	case errors.Is(err, domain.ErrStepOutOfOrder):
		return "out_of_order"
	case errors.Is(err, domain.ErrInvalidField), errors.Is(err, domain.ErrInvalidAmount):
		return "invalid"
	default:
		return "error"
	}
}
