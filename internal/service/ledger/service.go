// Package ledger applies money movements to accounts. Every operation runs in
// one database transaction that locks the touched accounts in a fixed order,
// checks balances, writes version-checked balance updates and appends the
// transaction records. Concurrency conflicts are retried a bounded number of
// times before surfacing as domain.ErrStorageFailure.
package ledger

import (
	"context"
	"database/sql"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/josh-kwaku/community-bank/internal/domain"
	"github.com/josh-kwaku/community-bank/internal/metrics"
)

const tracerName = "github.com/josh-kwaku/community-bank/internal/service/ledger"

type accountRepo interface {
	Ensure(ctx context.Context, id string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (*domain.Account, error)
	UpdateBalances(ctx context.Context, tx *sql.Tx, id string, institution, onHand, newVersion int64) error
}

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, rec *domain.TransactionRecord) error
	GetByAccountID(ctx context.Context, accountID string, limit, offset int) ([]domain.TransactionRecord, int, error)
}

type notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

type Config struct {
	TransferFee  int64
	TreasuryID   string
	MaxRetries   int
	BankName     string
	CurrencyCode string
}

type Engine struct {
	db       *sql.DB
	accounts accountRepo
	records  transactionRepo
	notifier notifier
	cfg      Config
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

func NewEngine(
	db *sql.DB,
	accounts accountRepo,
	records transactionRepo,
	notifier notifier,
	cfg Config,
	m *metrics.Metrics,
) *Engine {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Engine{
		db:       db,
		accounts: accounts,
		records:  records,
		notifier: notifier,
		cfg:      cfg,
		metrics:  m,
		tracer:   otel.Tracer(tracerName),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (e *Engine) format(minor int64) string {
	return domain.FormatAmount(minor, e.cfg.CurrencyCode)
}
