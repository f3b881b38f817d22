package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/josh-kwaku/community-bank/internal/config"
	"github.com/josh-kwaku/community-bank/internal/handler"
	"github.com/josh-kwaku/community-bank/internal/metrics"
	"github.com/josh-kwaku/community-bank/internal/middleware"
	"github.com/josh-kwaku/community-bank/internal/repository"
)

type routerDeps struct {
	cfg          *config.Config
	metrics      *metrics.Metrics
	metricsReg   *prometheus.Registry
	limiter      *middleware.RateLimiter
	idempotency  *repository.IdempotencyRepository
	health       *handler.HealthHandler
	accounts     *handler.AccountHandler
	ledger       *handler.LedgerHandler
	admin        *handler.AdminHandler
	registration *handler.RegistrationHandler
	applications *handler.ApplicationHandler
}

func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func newRouter(d routerDeps) http.Handler {
	idem := middleware.Idempotency(d.idempotency)
	admin := middleware.RequireCapability(d.cfg.AdminCapability)
	reviewer := middleware.RequireCapability(d.cfg.ReviewerCapability)

	api := http.NewServeMux()

	api.HandleFunc("POST /api/v1/me/account", d.accounts.Open)
	api.HandleFunc("GET /api/v1/me/statement", d.ledger.Statement)
	api.HandleFunc("GET /api/v1/me/transactions", d.ledger.Transactions)
	api.Handle("POST /api/v1/me/deposit", idem(http.HandlerFunc(d.ledger.Deposit)))
	api.Handle("POST /api/v1/me/withdraw", idem(http.HandlerFunc(d.ledger.Withdraw)))
	api.Handle("POST /api/v1/me/transfers", idem(http.HandlerFunc(d.ledger.Transfer)))

	api.Handle("POST /api/v1/admin/accounts/{id}/credit", chain(http.HandlerFunc(d.admin.Credit), admin, idem))
	api.Handle("POST /api/v1/admin/accounts/{id}/debit", chain(http.HandlerFunc(d.admin.Debit), admin, idem))
	api.Handle("GET /api/v1/admin/accounts/{id}/statement", admin(http.HandlerFunc(d.admin.Statement)))

	api.HandleFunc("POST /api/v1/registration", d.registration.Start)
	api.HandleFunc("POST /api/v1/registration/steps", d.registration.Step)

	api.Handle("GET /api/v1/applications/{id}", reviewer(http.HandlerFunc(d.applications.Get)))
	api.Handle("GET /api/v1/applications/{id}/artifact", reviewer(http.HandlerFunc(d.applications.Artifact)))
	api.Handle("POST /api/v1/applications/{id}/decision", reviewer(http.HandlerFunc(d.applications.Decide)))
	api.Handle("POST /api/v1/review-actions", reviewer(http.HandlerFunc(d.applications.ReviewAction)))

	root := http.NewServeMux()
	root.HandleFunc("GET /health", d.health.Liveness)
	root.HandleFunc("GET /ready", d.health.Readiness)
	root.Handle("GET /metrics", metrics.Handler(d.metricsReg))
	root.Handle("/api/", chain(api,
		middleware.Auth(d.cfg.JWTSecret),
		middleware.Logging,
		d.limiter.Middleware,
		middleware.Metrics(d.metrics),
	))

	return chain(root, middleware.Recovery, middleware.Tracing)
}
