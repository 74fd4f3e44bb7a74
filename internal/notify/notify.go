package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"matinee/internal/config"
)

const userAgent = "Matinee/0.1.0"

// Event identifies a notification-worthy moment in a run.
type Event string

const (
	// EventFetchCompleted fires after a sheet fetch run finishes.
	EventFetchCompleted Event = "fetch.completed"
	// EventAuditCompleted fires after a screener audit finishes.
	EventAuditCompleted Event = "audit.completed"
	// EventError fires when a command aborts with a fatal error.
	EventError Event = "error"
	// EventTest verifies the notification pipeline end to end.
	EventTest Event = "test"
)

// Payload carries the preformatted values an event message is composed from.
type Payload map[string]string

// Service publishes push notifications for run events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventFetchCompleted: cfg.Notifications.Fetch,
			EventAuditCompleted: cfg.Notifications.Audit,
			EventError:          cfg.Notifications.Errors,
			EventTest:           true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	if !n.enabled[event] {
		return nil
	}
	msg, ok := compose(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func compose(event Event, payload Payload) (message, bool) {
	get := func(key string) string {
		return strings.TrimSpace(payload[key])
	}

	switch event {
	case EventFetchCompleted:
		summary := get("summary")
		if summary == "" {
			summary = "no outcomes"
		}
		body := fmt.Sprintf("📥 Fetch complete: %s", summary)
		if duration := get("duration"); duration != "" {
			body = fmt.Sprintf("%s in %s", body, duration)
		}
		title := "Matinee - Fetch Complete"
		if failed := get("failed"); failed != "" && failed != "0" {
			title = "Matinee - Fetch Complete (with errors)"
		}
		return message{
			title: title,
			body:  body,
			tags:  []string{"matinee", "fetch", "completed"},
		}, true
	case EventAuditCompleted:
		passed := get("passed")
		flagged := get("flagged")
		title := "Matinee - Audit Complete"
		if flagged != "" && flagged != "0" {
			title = "Matinee - Audit Complete (items flagged)"
		}
		return message{
			title: title,
			body:  fmt.Sprintf("🎞️ Audit complete: %s passed, %s flagged", orUnknown(passed), orUnknown(flagged)),
			tags:  []string{"matinee", "audit", "completed"},
		}, true
	case EventError:
		var builder strings.Builder
		builder.WriteString("❌ Error")
		if label := get("context"); label != "" {
			builder.WriteString(" with ")
			builder.WriteString(label)
		}
		builder.WriteString(": ")
		if detail := get("error"); detail != "" {
			builder.WriteString(detail)
		} else {
			builder.WriteString("unknown")
		}
		return message{
			title:    "Matinee - Error",
			body:     builder.String(),
			tags:     []string{"matinee", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Matinee - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"matinee", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
