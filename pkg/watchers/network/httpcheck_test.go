package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/supporttools/watcher-aquarium/pkg/types"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingNotifier) Send(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return nil
}

func (r *recordingNotifier) Close() error { return nil }

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	copy(out, r.sent)
	return out
}

func TestInitHTTPCheck_NoURLMeansNothingToRun(t *testing.T) {
	run, err := initHTTPCheck(&recordingNotifier{}, types.WatcherConfig{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if run != nil {
		t.Fatal("expected nil RunFunc when no url is configured")
	}
}

func TestNewHTTPCheckWatcher_InvalidConfig(t *testing.T) {
	n := &recordingNotifier{}

	tests := []struct {
		name   string
		target string
		cfg    types.WatcherConfig
	}{
		{"bad url", "not a url", types.WatcherConfig{}},
		{"missing scheme", "example.com/healthz", types.WatcherConfig{}},
		{"interval too small", "https://example.com", types.WatcherConfig{"interval": "10ms"}},
		{"timeout above interval", "https://example.com", types.WatcherConfig{"interval": "5s", "timeout": "10s"}},
		{"bad status", "https://example.com", types.WatcherConfig{"expectStatus": 99}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newHTTPCheckWatcher(n, tt.target, tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHTTPCheckWatcher_DownAndRecoveredTransitions(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	n := &recordingNotifier{}
	w, err := newHTTPCheckWatcher(n, server.URL, types.WatcherConfig{"interval": "5s", "timeout": "1s"})
	if err != nil {
		t.Fatalf("newHTTPCheckWatcher failed: %v", err)
	}

	ctx := context.Background()

	// Healthy endpoint: no notification
	w.check(ctx)
	if len(n.messages()) != 0 {
		t.Fatalf("unexpected messages: %v", n.messages())
	}

	// Endpoint goes down: exactly one DOWN alert, no repeats
	healthy.Store(false)
	w.check(ctx)
	w.check(ctx)
	msgs := n.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0], "DOWN") {
		t.Fatalf("expected single DOWN alert, got %v", msgs)
	}

	// Endpoint recovers: exactly one recovery notice
	healthy.Store(true)
	w.check(ctx)
	w.check(ctx)
	msgs = n.messages()
	if len(msgs) != 2 || !strings.Contains(msgs[1], "recovered") {
		t.Fatalf("expected recovery notice, got %v", msgs)
	}
}

func TestHTTPCheckWatcher_ExpectStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := &recordingNotifier{}

	// Expecting 200 but getting 204 counts as down
	w, err := newHTTPCheckWatcher(n, server.URL, types.WatcherConfig{"interval": "5s", "timeout": "1s"})
	if err != nil {
		t.Fatalf("newHTTPCheckWatcher failed: %v", err)
	}
	w.check(context.Background())
	if msgs := n.messages(); len(msgs) != 1 || !strings.Contains(msgs[0], "DOWN") {
		t.Fatalf("expected DOWN for status mismatch, got %v", msgs)
	}

	// Expecting 204 is fine
	n2 := &recordingNotifier{}
	w2, err := newHTTPCheckWatcher(n2, server.URL, types.WatcherConfig{"interval": "5s", "timeout": "1s", "expectStatus": 204})
	if err != nil {
		t.Fatalf("newHTTPCheckWatcher failed: %v", err)
	}
	w2.check(context.Background())
	if msgs := n2.messages(); len(msgs) != 0 {
		t.Fatalf("expected no messages, got %v", msgs)
	}
}

func TestHTTPCheckWatcher_CancelledContextSuppressesAlerts(t *testing.T) {
	n := &recordingNotifier{}
	w, err := newHTTPCheckWatcher(n, "http://127.0.0.1:1", types.WatcherConfig{"interval": "5s", "timeout": "1s"})
	if err != nil {
		t.Fatalf("newHTTPCheckWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A probe failure caused by shutdown must not fire a DOWN alert.
	w.check(ctx)
	if msgs := n.messages(); len(msgs) != 0 {
		t.Fatalf("expected no messages after cancellation, got %v", msgs)
	}
}
