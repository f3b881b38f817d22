package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/josh-kwaku/community-bank/internal/auth"
	"github.com/josh-kwaku/community-bank/internal/handler"
	"github.com/josh-kwaku/community-bank/internal/logging"
	"github.com/josh-kwaku/community-bank/internal/repository"
)

type idempotencyRepository interface {
	Reserve(ctx context.Context, entry *repository.IdempotencyCacheEntry) (bool, error)
	Get(ctx context.Context, key, participantID string) (*repository.IdempotencyCacheEntry, error)
	Complete(ctx context.Context, entry *repository.IdempotencyCacheEntry) error
	Release(ctx context.Context, key, participantID string) error
}

const idempotencyTTL = 24 * time.Hour

// Idempotency replays the stored response for a repeated Idempotency-Key from
// the same participant, so a retried money movement is applied once. The key is
// reserved before the handler runs; a concurrent request with the same key gets
// 409 until the first one finishes. Only responses below 500 are stored; server
// failures release the key so it may be retried.
func Idempotency(repo idempotencyRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				handler.RespondAppError(w, handler.ErrMissingIdempotencyKey, nil)
				return
			}

			participantID, ok := auth.ParticipantIDFromContext(r.Context())
			if !ok {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := computeHash(r.Method, r.URL.Path, body)

			log := logging.FromContext(r.Context())
			now := time.Now().UTC()
			entry := &repository.IdempotencyCacheEntry{
				Key:           key,
				ParticipantID: participantID,
				RequestHash:   reqHash,
				CreatedAt:     now,
				ExpiresAt:     now.Add(idempotencyTTL),
			}

			reserved, err := repo.Reserve(r.Context(), entry)
			if err != nil {
				log.Error("idempotency reservation failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}
			if !reserved {
				replay(w, r, repo, entry)
				return
			}

			// The reservation outlives a cancelled request.
			storeCtx := context.WithoutCancel(r.Context())
			settled := false
			defer func() {
				if settled {
					return
				}
				if err := repo.Release(storeCtx, key, participantID); err != nil {
					log.Error("idempotency release failed", "error", err, "idempotency_key", key)
				}
			}()

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError {
				return
			}

			// The handler ran, so the key is never released from here on.
			settled = true
			entry.StatusCode = rec.statusCode
			entry.ResponseBody = rec.body.Bytes()
			if err := repo.Complete(storeCtx, entry); err != nil {
				log.Error("idempotency cache store failed, key stays reserved until it expires",
					"error", err, "idempotency_key", key)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, repo idempotencyRepository, entry *repository.IdempotencyCacheEntry) {
	log := logging.FromContext(r.Context())

	cached, err := repo.Get(r.Context(), entry.Key, entry.ParticipantID)
	if err != nil {
		log.Error("idempotency cache lookup failed", "error", err, "idempotency_key", entry.Key)
		handler.RespondAppError(w, handler.ErrInternalError, nil)
		return
	}
	// Released between the reservation attempt and the lookup.
	if cached == nil {
		handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
		return
	}
	if cached.RequestHash != entry.RequestHash {
		handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
		return
	}
	if cached.Pending() {
		handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	if _, err := w.Write(cached.ResponseBody); err != nil {
		log.Error("failed to write idempotent replay", "error", err, "idempotency_key", entry.Key)
	}
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
