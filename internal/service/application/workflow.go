// Package application runs the onboarding review: a submitted profile becomes
// a pending application, and a single reviewer decision moves it to accepted
// (provisioning the account and issuing the card) or rejected.
package application

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/josh-kwaku/community-bank/internal/artifact"
	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/metrics"
)

const tracerName = "github.com/josh-kwaku/community-bank/internal/service/application"

type applicationRepo interface {
	Create(ctx context.Context, tx *sql.Tx, app *domain.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Application, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Application, error)
	UpdateDecision(ctx context.Context, tx *sql.Tx, app *domain.Application) error
}

type eventRepo interface {
	Create(ctx context.Context, tx *sql.Tx, event *domain.ApplicationEvent) error
	GetByApplicationID(ctx context.Context, applicationID uuid.UUID) ([]domain.ApplicationEvent, error)
}

type artifactRepo interface {
	Create(ctx context.Context, tx *sql.Tx, a *domain.Artifact) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error)
}

type accountRepo interface {
	EnsureTx(ctx context.Context, tx *sql.Tx, id string) (*domain.Account, error)
}

type renderer interface {
	RenderApplication(ctx context.Context, card artifact.ApplicationCard) ([]byte, error)
	RenderAccountCard(ctx context.Context, card artifact.AccountCard) ([]byte, error)
	ContentType() string
}

type notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type Config struct {
	BankName          string
	CurrencyCode      string
	ReviewQueueID     string
	CardValidityYears int
}

type Workflow struct {
	db           *sql.DB
	applications applicationRepo
	events       eventRepo
	artifacts    artifactRepo
	accounts     accountRepo
	renderer     renderer
	notifier     notifier
	cfg          Config
	metrics      *metrics.Metrics
	tracer       trace.Tracer
	now          func() time.Time
	newNumber    func() (string, error)
}

func NewWorkflow(
	db *sql.DB,
	applications applicationRepo,
	events eventRepo,
	artifacts artifactRepo,
	accounts accountRepo,
	r renderer,
	n notifier,
	cfg Config,
	m *metrics.Metrics,
) *Workflow {
	if cfg.CardValidityYears <= 0 {
		cfg.CardValidityYears = 5
	}
	return &Workflow{
		db:           db,
		applications: applications,
		events:       events,
		artifacts:    artifacts,
		accounts:     accounts,
		renderer:     r,
		notifier:     n,
		cfg:          cfg,
		metrics:      m,
		tracer:       otel.Tracer(tracerName),
		now:          func() time.Time { return time.Now().UTC() },
		newNumber:    generateAccountNumber,
	}
}
