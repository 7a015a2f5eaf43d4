package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"listingsmith/internal/config"
	"listingsmith/internal/tasks"
)

const userAgent = "listingsmith/1"

// Service receives task outcomes.
type Service interface {
	NotifyTaskCompleted(ctx context.Context, task *tasks.Task, results int) error
	NotifyTaskFailed(ctx context.Context, task *tasks.Task) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy notifier, or a no-op one when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil || strings.TrimSpace(cfg.Notifications.NtfyTopic) == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: strings.TrimSpace(cfg.Notifications.NtfyTopic),
		client:   &http.Client{Timeout: timeout},
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

func (n *ntfyService) NotifyTaskCompleted(ctx context.Context, task *tasks.Task, results int) error {
	return n.send(ctx, payload{
		title:   "listingsmith - Task complete",
		message: fmt.Sprintf("%s: %d results ready for review", taskLabel(task), results),
		tags:    []string{"listingsmith", string(task.Kind), "completed"},
	})
}

func (n *ntfyService) NotifyTaskFailed(ctx context.Context, task *tasks.Task) error {
	reason := strings.TrimSpace(task.ErrorMessage)
	if reason == "" {
		reason = "unknown error"
	}
	return n.send(ctx, payload{
		title:    "listingsmith - Task failed",
		message:  fmt.Sprintf("%s failed: %s", taskLabel(task), reason),
		tags:     []string{"listingsmith", string(task.Kind), "failed"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "listingsmith - Test",
		message:  "Notification test",
		tags:     []string{"listingsmith", "test"},
		priority: "low",
	})
}

func taskLabel(task *tasks.Task) string {
	name := strings.TrimSpace(task.Name)
	if name == "" {
		return "Task " + task.ID
	}
	return fmt.Sprintf("%q", name)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", data.title)
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
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

func (noopService) NotifyTaskCompleted(context.Context, *tasks.Task, int) error { return nil }
func (noopService) NotifyTaskFailed(context.Context, *tasks.Task) error         { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
