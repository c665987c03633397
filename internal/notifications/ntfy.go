package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"papri/internal/config"
)

const userAgent = "Papri-Go/0.1.0"

// Forwarder pushes a notice to a remote channel.
type Forwarder interface {
	Publish(notice Notice) error
}

// NewForwarder builds an ntfy-backed forwarder when a topic is configured.
// When no topic is set, a noop implementation is returned.
func NewForwarder(cfg *config.Config) Forwarder {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopForwarder{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyForwarder{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		errors:      cfg.Notifications.Errors,
		completions: cfg.Notifications.Completions,
	}
}

type ntfyForwarder struct {
	endpoint    string
	client      *http.Client
	errors      bool
	completions bool
}

func (n *ntfyForwarder) Publish(notice Notice) error {
	if n == nil || n.client == nil {
		return nil
	}
	switch notice.Severity {
	case SeverityError, SeverityWarning:
		if !n.errors {
			return nil
		}
	default:
		if !n.completions {
			return nil
		}
	}

	title, tags, priority := ntfyAttributes(notice.Severity)
	ctx, cancel := context.WithTimeout(context.Background(), n.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(notice.Message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", title)
	req.Header.Set("Tags", strings.Join(tags, ","))
	if priority != "" && priority != "default" {
		req.Header.Set("Priority", priority)
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

func ntfyAttributes(severity Severity) (title string, tags []string, priority string) {
	switch severity {
	case SeveritySuccess:
		return "Papri - Complete", []string{"papri", "task", "completed"}, "high"
	case SeverityWarning:
		return "Papri - Warning", []string{"papri", "task", "warning"}, ""
	case SeverityError:
		return "Papri - Error", []string{"papri", "error", "alert"}, "high"
	default:
		return "Papri - Update", []string{"papri", "task"}, ""
	}
}

type noopForwarder struct{}

func (noopForwarder) Publish(Notice) error { return nil }
