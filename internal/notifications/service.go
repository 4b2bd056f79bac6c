package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cinefile/internal/config"
)

const userAgent = "cinefile/0.1.0"

// Service defines the notification surface exposed to long-running commands.
type Service interface {
	NotifyImportCompleted(ctx context.Context, listName string, imported, skipped int) error
	NotifySeedCompleted(ctx context.Context, built, deferred int) error
	NotifySyncCompleted(ctx context.Context, pulled, pushed int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	client := &http.Client{Timeout: cfg.NotificationTimeout()}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyImportCompleted(ctx context.Context, listName string, imported, skipped int) error {
	message := fmt.Sprintf("Imported %d movies into %s", imported, strings.TrimSpace(listName))
	if skipped > 0 {
		message += fmt.Sprintf(" (%d skipped)", skipped)
	}
	return n.send(ctx, payload{
		title:   "cinefile - Import Complete",
		message: message,
		tags:    []string{"cinefile", "import", "completed"},
	})
}

func (n *ntfyService) NotifySeedCompleted(ctx context.Context, built, deferred int) error {
	data := payload{
		title:   "cinefile - Reference Lists Ready",
		message: fmt.Sprintf("Loaded %d reference lists", built),
		tags:    []string{"cinefile", "seed", "completed"},
	}
	if deferred > 0 {
		data.title = "cinefile - Reference Lists Waiting"
		data.message = fmt.Sprintf("Loaded %d reference lists; %d wait for a TMDB key", built, deferred)
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySyncCompleted(ctx context.Context, pulled, pushed int) error {
	return n.send(ctx, payload{
		title:    "cinefile - Sync Complete",
		message:  fmt.Sprintf("Pulled %d records, pushed %d records", pulled, pushed),
		tags:     []string{"cinefile", "sync"},
		priority: "low",
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "cinefile - Error",
		message:  builder.String(),
		tags:     []string{"cinefile", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "cinefile - Test",
		message:  "Notification system test",
		tags:     []string{"cinefile", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
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

func (noopService) NotifyImportCompleted(context.Context, string, int, int) error { return nil }
func (noopService) NotifySeedCompleted(context.Context, int, int) error           { return nil }
func (noopService) NotifySyncCompleted(context.Context, int, int) error           { return nil }
func (noopService) NotifyError(context.Context, error, string) error              { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
