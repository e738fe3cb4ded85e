package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"sdsconv/internal/config"
	"sdsconv/internal/convert"
)

const userAgent = "sdsconv/0.1"

// Service publishes run events to an operator.
type Service interface {
	NotifyConversionCompleted(ctx context.Context, report convert.Report) error
	NotifyError(ctx context.Context, err error, label string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
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

func (n *ntfyService) NotifyConversionCompleted(ctx context.Context, report convert.Report) error {
	failed := report.Tally.LoadFailed + report.Tally.SaveFailed
	elapsed := report.Elapsed.Round(time.Second)

	data := payload{
		title: "sdsconv - Conversion Complete",
		message: fmt.Sprintf("%d of %d files (%s) saved to %s in %s",
			report.Tally.Saved, report.Scan.Files, humanize.Bytes(uint64(report.Scan.Bytes)), report.OutputDir, elapsed),
		tags: []string{"sdsconv", "convert", "completed"},
	}
	if failed > 0 || report.Tally.Canceled > 0 {
		data.title = "sdsconv - Conversion Complete (with errors)"
		data.message += fmt.Sprintf("\n%d failed, %d canceled", failed, report.Tally.Canceled)
		if report.RecordedPaths > 0 {
			data.message += fmt.Sprintf("\n%d day files listed in %s", report.RecordedPaths, report.ErrorsFile)
		}
		data.tags = []string{"sdsconv", "convert", "warning"}
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, label string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if label = strings.TrimSpace(label); label != "" {
		builder.WriteString(" during ")
		builder.WriteString(label)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "sdsconv - Error",
		message:  builder.String(),
		tags:     []string{"sdsconv", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "sdsconv - Test",
		message:  "Notification system test",
		tags:     []string{"sdsconv", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
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

func (noopService) NotifyConversionCompleted(context.Context, convert.Report) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error { return nil }
