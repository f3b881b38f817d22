package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/josh-kwaku/community-bank/internal/logging"
)

// WebhookChannel POSTs each message as JSON to a fixed URL and expects a 2xx reply.
type WebhookChannel struct {
	url        string
	httpClient *http.Client
}

func NewWebhookChannel(url string) *WebhookChannel {
	return &WebhookChannel{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *WebhookChannel) Name() string { return "webhook" }

func (c *WebhookChannel) Deliver(ctx context.Context, msg Message) error {
	log := logging.FromContext(ctx)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("WebhookChannel.Deliver: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("WebhookChannel.Deliver: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Notification-ID", msg.ID.String())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("WebhookChannel.Deliver: send: %w", err)
	}
	defer resp.Body.Close()

	log.Debug("notification webhook response",
		"notification_id", msg.ID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("WebhookChannel.Deliver: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
