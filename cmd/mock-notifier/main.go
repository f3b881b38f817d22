// Command mock-notifier is a development receiver for the webhook
// notification channel. It logs every delivery, keeps the most recent ones
// in memory for inspection and can be told to reject chosen recipients.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"sync"

	env "github.com/caarlos0/env/v11"

	"github.com/josh-kwaku/community-bank/internal/logging"
	"github.com/josh-kwaku/community-bank/internal/notify"
)

type config struct {
	Addr           string   `env:"MOCK_NOTIFIER_ADDR" envDefault:":8081"`
	AppEnv         string   `env:"APP_ENV" envDefault:"development"`
	FailRecipients []string `env:"MOCK_FAIL_RECIPIENTS" envSeparator:","`
	Keep           int      `env:"MOCK_KEEP" envDefault:"100"`
}

type inbox struct {
	mu       sync.Mutex
	messages []notify.Message
	keep     int
}

func (b *inbox) add(m notify.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, m)
	if len(b.messages) > b.keep {
		b.messages = b.messages[len(b.messages)-b.keep:]
	}
}

func (b *inbox) list() []notify.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.messages)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func main() {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Init("mock-notifier", "info", cfg.AppEnv)

	box := &inbox{keep: cfg.Keep}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /deliveries", func(w http.ResponseWriter, r *http.Request) {
		var msg notify.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}
		if slices.Contains(cfg.FailRecipients, msg.RecipientID) {
			slog.Warn("rejecting delivery", "notification_id", msg.ID, "recipient_id", msg.RecipientID)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "recipient unavailable"})
			return
		}

		box.add(msg)
		attrs := []any{
			"notification_id", msg.ID,
			"recipient_id", msg.RecipientID,
			"text", msg.Text,
			"actions", len(msg.Actions),
		}
		if msg.Attachment != nil {
			attrs = append(attrs, "attachment_type", msg.Attachment.ContentType, "attachment_bytes", len(msg.Attachment.Data))
		}
		slog.Info("delivery received", attrs...)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	})
	mux.HandleFunc("GET /deliveries", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, box.list())
	})

	slog.Info("mock notifier started", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
