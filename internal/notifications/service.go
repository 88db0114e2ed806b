package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"streamwatch/internal/config"
)

const userAgent = "Streamwatch/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyCandidateFound(ctx context.Context, platform, title string) error
	NotifyCaptureCompleted(ctx context.Context, platform, title, source string) error
	NotifyMatchDecision(ctx context.Context, title, decision string, confidence float64) error
	NotifyEnforcementSent(ctx context.Context, platform, title string, recipients int) error
	NotifyReviewNeeded(ctx context.Context, title string, riskScore float64) error
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

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:    topic,
		client:      client,
		candidates:  cfg.Notifications.Candidates,
		matches:     cfg.Notifications.Matches,
		enforcement: cfg.Notifications.Enforcement,
		errors:      cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	candidates  bool
	matches     bool
	enforcement bool
	errors      bool
}

func (n *ntfyService) NotifyCandidateFound(ctx context.Context, platform, title string) error {
	if !n.candidates {
		return nil
	}
	platform = strings.TrimSpace(platform)
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled stream"
	}
	data := payload{
		title:   "Streamwatch - Candidate Found",
		message: fmt.Sprintf("New candidate on %s: %s", platform, title),
		tags:    []string{"streamwatch", "candidate", "found"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCaptureCompleted(ctx context.Context, platform, title, source string) error {
	if !n.candidates {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled stream"
	}
	message := fmt.Sprintf("Capture complete: %s (%s)", title, strings.TrimSpace(platform))
	if source != "" {
		message = fmt.Sprintf("%s\nFingerprint source: %s", message, source)
	}
	data := payload{
		title:   "Streamwatch - Capture Complete",
		message: message,
		tags:    []string{"streamwatch", "capture", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMatchDecision(ctx context.Context, title, decision string, confidence float64) error {
	if !n.matches {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled stream"
	}
	data := payload{
		title:   "Streamwatch - Match Decision",
		message: fmt.Sprintf("Decision for %s: %s (confidence %.2f)", title, decision, confidence),
		tags:    []string{"streamwatch", "match", "decision"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEnforcementSent(ctx context.Context, platform, title string, recipients int) error {
	if !n.enforcement {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled stream"
	}
	data := payload{
		title:    "Streamwatch - Notice Sent",
		message:  fmt.Sprintf("Takedown notice for %s sent to %d recipient(s) on %s", title, recipients, strings.TrimSpace(platform)),
		tags:     []string{"streamwatch", "enforcement", "sent"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReviewNeeded(ctx context.Context, title string, riskScore float64) error {
	if !n.matches {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "untitled stream"
	}
	data := payload{
		title:   "Streamwatch - Review Needed",
		message: fmt.Sprintf("Manual review required: %s (risk %.2f)", title, riskScore),
		tags:    []string{"streamwatch", "review", "needed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
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

	data := payload{
		title:    "Streamwatch - Error",
		message:  builder.String(),
		tags:     []string{"streamwatch", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Streamwatch - Test",
		message:  "Notification system test",
		tags:     []string{"streamwatch", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

func (noopService) NotifyCandidateFound(context.Context, string, string) error           { return nil }
func (noopService) NotifyCaptureCompleted(context.Context, string, string, string) error { return nil }
func (noopService) NotifyMatchDecision(context.Context, string, string, float64) error   { return nil }
func (noopService) NotifyEnforcementSent(context.Context, string, string, int) error     { return nil }
func (noopService) NotifyReviewNeeded(context.Context, string, float64) error            { return nil }
func (noopService) NotifyError(context.Context, error, string) error                     { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }
