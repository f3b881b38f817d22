package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/community-bank/internal/auth"
	"github.com/josh-kwaku/community-bank/internal/handler"
	"github.com/josh-kwaku/community-bank/internal/repository"
)

const testSecret = "test-secret"

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := auth.ParticipantIDFromContext(r.Context())
		handler.RespondSuccess(w, http.StatusOK, map[string]string{"participant_id": id})
	})
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	if resp.Error == nil {
		return ""
	}
	return resp.Error.Code
}

func TestAuth(t *testing.T) {
	valid, err := auth.GenerateToken(auth.Principal{ParticipantID: "alice"}, testSecret, time.Hour)
	require.NoError(t, err)
	foreign, err := auth.GenerateToken(auth.Principal{ParticipantID: "alice"}, "other", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{name: "valid token", header: "Bearer " + valid, wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantCode: "MISSING_TOKEN"},
		{name: "wrong scheme", header: "Basic " + valid, wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
		{name: "wrong secret", header: "Bearer " + foreign, wantStatus: http.StatusUnauthorized, wantCode: "INVALID_TOKEN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me/statement", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			Auth(testSecret)(okHandler()).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, tc.wantCode, errorCode(t, rr))
		})
	}
}

func TestRequireCapability(t *testing.T) {
	h := RequireCapability("bank:admin")(okHandler())

	tests := []struct {
		name       string
		principal  *auth.Principal
		wantStatus int
	}{
		{name: "admin", principal: &auth.Principal{ParticipantID: "a", Capabilities: []string{"bank:admin"}}, wantStatus: http.StatusOK},
		{name: "regular participant", principal: &auth.Principal{ParticipantID: "b"}, wantStatus: http.StatusForbidden},
		{name: "anonymous", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/accounts/x/credit", nil)
			if tc.principal != nil {
				req = req.WithContext(auth.ContextWithPrincipal(req.Context(), *tc.principal))
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}

type memoryIdempotencyRepo struct {
	mu      sync.Mutex
	entries map[string]*repository.IdempotencyCacheEntry
}

func (m *memoryIdempotencyRepo) Reserve(_ context.Context, e *repository.IdempotencyCacheEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := e.ParticipantID + "/" + e.Key
	if existing, ok := m.entries[id]; ok && existing.ExpiresAt.After(time.Now()) {
		return false, nil
	}
	pending := *e
	pending.StatusCode = 0
	pending.ResponseBody = nil
	m.entries[id] = &pending
	return true, nil
}

func (m *memoryIdempotencyRepo) Get(_ context.Context, key, participantID string) (*repository.IdempotencyCacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[participantID+"/"+key]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *memoryIdempotencyRepo) Complete(_ context.Context, e *repository.IdempotencyCacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.entries[e.ParticipantID+"/"+e.Key]
	stored.StatusCode = e.StatusCode
	stored.ResponseBody = append([]byte(nil), e.ResponseBody...)
	return nil
}

func (m *memoryIdempotencyRepo) Release(_ context.Context, key, participantID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := participantID + "/" + key
	if e, ok := m.entries[id]; ok && e.Pending() {
		delete(m.entries, id)
	}
	return nil
}

func TestIdempotency(t *testing.T) {
	repo := &memoryIdempotencyRepo{entries: make(map[string]*repository.IdempotencyCacheEntry)}
	calls := 0
	status := http.StatusCreated
	h := Idempotency(repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler.RespondSuccess(w, status, map[string]int{"call": calls})
	}))

	send := func(participant, key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/me/deposit", strings.NewReader(body))
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{ParticipantID: participant}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	first := send("alice", "k1", `{"amount":"10"}`)
	assert.Equal(t, http.StatusCreated, first.Code)

	replay := send("alice", "k1", `{"amount":"10"}`)
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("X-Idempotent-Replayed"))
	assert.Equal(t, first.Body.String(), replay.Body.String())
	assert.Equal(t, 1, calls)

	conflict := send("alice", "k1", `{"amount":"99"}`)
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Equal(t, "IDEMPOTENCY_CONFLICT", errorCode(t, conflict))

	other := send("bob", "k1", `{"amount":"10"}`)
	assert.Equal(t, http.StatusCreated, other.Code)
	assert.Equal(t, 2, calls)

	missing := send("alice", "", `{"amount":"10"}`)
	assert.Equal(t, http.StatusBadRequest, missing.Code)

	status = http.StatusServiceUnavailable
	send("carol", "k2", `{}`)
	send("carol", "k2", `{}`)
	assert.Equal(t, 4, calls)
}

func TestIdempotency_ConcurrentSameKeyRunsOnce(t *testing.T) {
	repo := &memoryIdempotencyRepo{entries: make(map[string]*repository.IdempotencyCacheEntry)}
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	h := Idempotency(repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		close(started)
		<-release
		handler.RespondSuccess(w, http.StatusCreated, map[string]string{"status": "moved"})
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/me/transfers", strings.NewReader(`{"target_id":"bob","amount":"10"}`))
		req.Header.Set("Idempotency-Key", "k1")
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{ParticipantID: "alice"}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	firstDone := make(chan *httptest.ResponseRecorder)
	go func() { firstDone <- send() }()
	<-started

	inFlight := send()
	assert.Equal(t, http.StatusConflict, inFlight.Code)
	assert.Equal(t, "IDEMPOTENCY_IN_PROGRESS", errorCode(t, inFlight))

	close(release)
	first := <-firstDone
	assert.Equal(t, http.StatusCreated, first.Code)

	replay := send()
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("X-Idempotent-Replayed"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestIdempotency_PanicReleasesKey(t *testing.T) {
	repo := &memoryIdempotencyRepo{entries: make(map[string]*repository.IdempotencyCacheEntry)}
	h := Idempotency(repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/me/deposit", strings.NewReader(`{"amount":"10"}`))
	req.Header.Set("Idempotency-Key", "k1")
	req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{ParticipantID: "alice"}))

	assert.Panics(t, func() { h.ServeHTTP(httptest.NewRecorder(), req) })

	entry, err := repo.Get(context.Background(), "k1", "alice")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	l := NewRateLimiter(1, 2)
	l.now = func() time.Time { return now }
	h := l.Middleware(okHandler())

	send := func(participant string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me/statement", nil)
		req = req.WithContext(auth.ContextWithPrincipal(req.Context(), auth.Principal{ParticipantID: participant}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("alice"))
	assert.Equal(t, http.StatusOK, send("alice"))
	assert.Equal(t, http.StatusTooManyRequests, send("alice"))
	assert.Equal(t, http.StatusOK, send("bob"))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, send("alice"))

	now = now.Add(time.Hour)
	assert.Equal(t, 2, l.Evict(time.Minute))
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, rr))
}

func TestTracing(t *testing.T) {
	var seen string
	h := Tracing(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "req-123", seen)
}

func TestMetrics_UsesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	var pattern string
	mux.HandleFunc("GET /api/v1/applications/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := Metrics(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		pattern = r.Pattern
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/applications/abc", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "GET /api/v1/applications/{id}", pattern)
}
