package notify_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"matinee/internal/config"
	"matinee/internal/notify"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notify.NewService(&cfg)
	if err := svc.Publish(context.Background(), notify.EventFetchCompleted, notify.Payload{"summary": "1 downloaded"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notify.Event
		payload        notify.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "fetch completed",
			event: notify.EventFetchCompleted,
			payload: notify.Payload{
				"summary":  "12 downloaded, 3 skipped, 0 failed",
				"duration": "4m30s",
				"failed":   "0",
			},
			expectTitle:   "Matinee - Fetch Complete",
			expectMessage: "📥 Fetch complete: 12 downloaded, 3 skipped, 0 failed in 4m30s",
			expectTags:    "matinee,fetch,completed",
		},
		{
			name:  "fetch completed with failures",
			event: notify.EventFetchCompleted,
			payload: notify.Payload{
				"summary": "10 downloaded, 0 skipped, 2 failed",
				"failed":  "2",
			},
			expectTitle:   "Matinee - Fetch Complete (with errors)",
			expectMessage: "📥 Fetch complete: 10 downloaded, 0 skipped, 2 failed",
			expectTags:    "matinee,fetch,completed",
		},
		{
			name:  "audit completed",
			event: notify.EventAuditCompleted,
			payload: notify.Payload{
				"passed":  "18",
				"flagged": "0",
			},
			expectTitle:   "Matinee - Audit Complete",
			expectMessage: "🎞️ Audit complete: 18 passed, 0 flagged",
			expectTags:    "matinee,audit,completed",
		},
		{
			name:  "audit flagged",
			event: notify.EventAuditCompleted,
			payload: notify.Payload{
				"passed":  "15",
				"flagged": "3",
			},
			expectTitle:   "Matinee - Audit Complete (items flagged)",
			expectMessage: "🎞️ Audit complete: 15 passed, 3 flagged",
			expectTags:    "matinee,audit,completed",
		},
		{
			name:  "error",
			event: notify.EventError,
			payload: notify.Payload{
				"context": "fetch",
				"error":   "sheet download failed",
			},
			expectTitle:    "Matinee - Error",
			expectMessage:  "❌ Error with fetch: sheet download failed",
			expectTags:     "matinee,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notify.EventTest,
			payload:        notify.Payload{},
			expectTitle:    "Matinee - Test",
			expectMessage:  "🧪 Notification system test",
			expectTags:     "matinee,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notify.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsToggles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for disabled event: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Fetch = false
	cfg.Notifications.Audit = false
	cfg.Notifications.Errors = false

	svc := notify.NewService(&cfg)
	disabled := []notify.Event{
		notify.EventFetchCompleted,
		notify.EventAuditCompleted,
		notify.EventError,
	}
	for _, event := range disabled {
		if err := svc.Publish(context.Background(), event, notify.Payload{"value": "ignored"}); err != nil {
			t.Fatalf("expected no error for disabled event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	svc := notify.NewService(&cfg)
	err := svc.Publish(context.Background(), notify.EventTest, nil)
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
