package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"cinefile/internal/config"
	"cinefile/internal/notifications"
)

type capturedRequest struct {
	title    string
	body     string
	tags     string
	priority string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, capturedRequest{
			title:    r.Header.Get("Title"),
			body:     string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), requests...)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyImportCompleted(context.Background(), "Picks", 3, 0); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "import completed",
			send: func(s notifications.Service) error {
				return s.NotifyImportCompleted(context.Background(), "Picks", 8, 2)
			},
			expectTitle:   "cinefile - Import Complete",
			expectMessage: "Imported 8 movies into Picks (2 skipped)",
			expectTags:    "cinefile,import,completed",
		},
		{
			name: "seed deferred",
			send: func(s notifications.Service) error {
				return s.NotifySeedCompleted(context.Background(), 2, 3)
			},
			expectTitle:   "cinefile - Reference Lists Waiting",
			expectMessage: "Loaded 2 reference lists; 3 wait for a TMDB key",
			expectTags:    "cinefile,seed,completed",
		},
		{
			name: "sync completed",
			send: func(s notifications.Service) error {
				return s.NotifySyncCompleted(context.Background(), 4, 10)
			},
			expectTitle:    "cinefile - Sync Complete",
			expectMessage:  "Pulled 4 records, pushed 10 records",
			expectTags:     "cinefile,sync",
			expectPriority: "low",
		},
		{
			name: "error",
			send: func(s notifications.Service) error {
				return s.NotifyError(context.Background(), errors.New("boom"), "sync")
			},
			expectTitle:    "cinefile - Error",
			expectMessage:  "Error with sync: boom",
			expectTags:     "cinefile,error,alert",
			expectPriority: "high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, captured := newNtfyServer(t, http.StatusOK)
			cfg := config.Default()
			cfg.Notifications.NtfyTopic = srv.URL
			svc := notifications.NewService(&cfg)

			if err := tt.send(svc); err != nil {
				t.Fatalf("send failed: %v", err)
			}
			got := captured()
			if len(got) != 1 {
				t.Fatalf("expected 1 request, got %d", len(got))
			}
			req := got[0]
			if req.title != tt.expectTitle || req.body != tt.expectMessage || req.tags != tt.expectTags || req.priority != tt.expectPriority {
				t.Fatalf("unexpected request: %+v", req)
			}
		})
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
