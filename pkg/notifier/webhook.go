package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/supporttools/watcher-aquarium/pkg/types"
)

// WebhookNotifier delivers notifications as JSON POST requests to a single
// webhook endpoint. It is safe for concurrent use by multiple watcher tasks.
type WebhookNotifier struct {
	client    *http.Client
	url       string
	headers   map[string]string
	closeOnce sync.Once
}

// webhookPayload is the request body sent to the endpoint.
type webhookPayload struct {
	Text string `json:"text"`
}

// NewWebhookNotifier creates a webhook notifier from the notifier
// configuration. The URL is required; the timeout defaults to 10s.
func NewWebhookNotifier(cfg types.NotifierConfig) (*WebhookNotifier, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook notifier requires a url")
	}

	timeout := 10 * time.Second
	if cfg.Timeout != "" {
		parsed, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook timeout %q: %w", cfg.Timeout, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("webhook timeout must be positive, got %v", parsed)
		}
		timeout = parsed
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			IdleConnTimeout:       90 * time.Second,
		},
	}

	return &WebhookNotifier{
		client:  client,
		url:     cfg.URL,
		headers: cfg.Headers,
	}, nil
}

// Send posts the message to the webhook endpoint. Any transport failure or
// non-2xx response is returned as an error; callers log it and continue.
func (n *WebhookNotifier) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(webhookPayload{Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range n.headers {
		req.Header.Set(k, v)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer func() {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Close releases idle connections held by the underlying client.
// Close is idempotent; only the first call does any work.
func (n *WebhookNotifier) Close() error {
	n.closeOnce.Do(func() {
		n.client.CloseIdleConnections()
	})
	return nil
}
