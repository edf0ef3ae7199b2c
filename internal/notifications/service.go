package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"civicrisk/internal/config"
	"civicrisk/internal/risk"
)

const (
	userAgent      = "civicrisk/0.1"
	maxMessageRune = 280
)

// Service publishes alerts about classified complaints.
type Service interface {
	// NotifyRisk alerts when result meets the configured intensity floor.
	// Degraded results and lower intensities are skipped silently.
	NotifyRisk(ctx context.Context, text string, result risk.Classification) error
	TestNotification(ctx context.Context) error
}

// NewService returns an ntfy-backed service, or a noop when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
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
		minRank:  rank(risk.Intensity(cfg.Notifications.MinIntensity)),
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
	minRank  int
}

func rank(intensity risk.Intensity) int {
	switch intensity {
	case risk.IntensityLow:
		return 1
	case risk.IntensityMedium:
		return 2
	case risk.IntensityHigh:
		return 3
	default:
		return 0
	}
}

func (n *ntfyService) NotifyRisk(ctx context.Context, text string, result risk.Classification) error {
	if result.Degraded() {
		return nil
	}
	r := rank(result.Intensity)
	if r == 0 || r < n.minRank {
		return nil
	}
	priority := "default"
	if result.Intensity == risk.IntensityHigh {
		priority = "high"
	}
	var builder strings.Builder
	builder.WriteString(clip(strings.TrimSpace(text), maxMessageRune))
	if reason := strings.TrimSpace(result.Reason); reason != "" {
		builder.WriteString("\nReason: ")
		builder.WriteString(reason)
	}
	fmt.Fprintf(&builder, "\nConfidence: %.2f", result.Confidence)
	return n.send(ctx, payload{
		title:    fmt.Sprintf("civicrisk - %s risk complaint", result.Intensity),
		message:  builder.String(),
		tags:     []string{"civicrisk", string(result.Intensity)},
		priority: priority,
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "civicrisk - Test",
		message:  "Notification system test",
		tags:     []string{"civicrisk", "test"},
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

func clip(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "…"
}

type noopService struct{}

func (noopService) NotifyRisk(context.Context, string, risk.Classification) error { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
