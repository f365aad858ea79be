// Package network provides network-reachability watchers for Watcher
// Aquarium.
package network

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/supporttools/watcher-aquarium/pkg/logger"
	"github.com/supporttools/watcher-aquarium/pkg/types"
	"github.com/supporttools/watcher-aquarium/pkg/watchers"
)

// Register the HTTP check watcher with the global registry during package initialization.
func init() {
	watchers.MustRegister(watchers.Unit{
		Name:        "http-check",
		Init:        initHTTPCheck,
		Description: "Polls an HTTP endpoint and alerts on down/recovered transitions",
	})
}

const (
	defaultCheckInterval = 60 * time.Second
	defaultCheckTimeout  = 10 * time.Second
)

func initHTTPCheck(n types.Notifier, cfg types.WatcherConfig) (watchers.RunFunc, error) {
	target := cfg.GetString("url", "")
	if target == "" {
		// Nothing configured means nothing to run; the unit is skipped
		// rather than treated as a failure.
		return nil, nil
	}

	w, err := newHTTPCheckWatcher(n, target, cfg)
	if err != nil {
		return nil, err
	}
	return w.run, nil
}

// httpCheckWatcher polls a single endpoint and notifies when it transitions
// between reachable and unreachable.
type httpCheckWatcher struct {
	notifier     types.Notifier
	url          string
	interval     time.Duration
	expectStatus int
	client       *http.Client

	// down is true while the endpoint is considered unreachable
	down bool
}

func newHTTPCheckWatcher(n types.Notifier, target string, cfg types.WatcherConfig) (*httpCheckWatcher, error) {
	parsed, err := url.Parse(target)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid url %q", target)
	}

	interval := cfg.GetDuration("interval", defaultCheckInterval)
	if interval < time.Second {
		return nil, fmt.Errorf("interval too small, minimum 1s, got %v", interval)
	}

	timeout := cfg.GetDuration("timeout", defaultCheckTimeout)
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", timeout)
	}
	if timeout >= interval {
		return nil, fmt.Errorf("timeout (%v) must be less than interval (%v)", timeout, interval)
	}

	expect := cfg.GetInt("expectStatus", http.StatusOK)
	if expect < 100 || expect > 599 {
		return nil, fmt.Errorf("expectStatus must be a valid HTTP status, got %d", expect)
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: timeout,
			MaxIdleConns:        2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &httpCheckWatcher{
		notifier:     n,
		url:          target,
		interval:     interval,
		expectStatus: expect,
		client:       client,
	}, nil
}

func (w *httpCheckWatcher) run(ctx context.Context) error {
	defer w.client.CloseIdleConnections()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Initial probe so a dead endpoint is reported without waiting a full interval.
	w.check(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

func (w *httpCheckWatcher) check(ctx context.Context) {
	err := w.probe(ctx)
	if ctx.Err() != nil {
		return
	}

	switch {
	case err != nil && !w.down:
		w.down = true
		w.notify(ctx, fmt.Sprintf("Endpoint %s is DOWN: %v", w.url, err))
	case err == nil && w.down:
		w.down = false
		w.notify(ctx, fmt.Sprintf("Endpoint %s recovered", w.url))
	}
}

// probe performs a single GET and verifies the expected status code.
func (w *httpCheckWatcher) probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url, nil)
	if err != nil {
		return err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != w.expectStatus {
		return fmt.Errorf("unexpected status %d (want %d)", resp.StatusCode, w.expectStatus)
	}
	return nil
}

func (w *httpCheckWatcher) notify(ctx context.Context, msg string) {
	if err := w.notifier.Send(ctx, msg); err != nil {
		logger.WithError(err).Warnf("Failed to send HTTP check alert for %s", w.url)
	}
}
