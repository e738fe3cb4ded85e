package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sdsconv/internal/config"
	"sdsconv/internal/convert"
	"sdsconv/internal/notifications"
)

type captured struct {
	title, tags, priority, body string
}

func newServer(t *testing.T, status int) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		got.body = string(body)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func serviceFor(url string) notifications.Service {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyError(context.Background(), errors.New("boom"), "convert"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyConversionCompleted(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	report := convert.Report{
		OutputDir: "/data/sds",
		Scan:      convert.ScanSummary{Files: 3, Bytes: 3_000_000},
		Tally:     convert.Tally{Saved: 3},
		Elapsed:   90 * time.Second,
	}

	if err := serviceFor(srv.URL).NotifyConversionCompleted(context.Background(), report); err != nil {
		t.Fatalf("NotifyConversionCompleted returned error: %v", err)
	}
	if got.title != "sdsconv - Conversion Complete" {
		t.Fatalf("unexpected title %q", got.title)
	}
	if got.body != "3 of 3 files (3.0 MB) saved to /data/sds in 1m30s" {
		t.Fatalf("unexpected body %q", got.body)
	}
	if got.tags != "sdsconv,convert,completed" {
		t.Fatalf("unexpected tags %q", got.tags)
	}
}

func TestNotifyConversionCompletedWithFailures(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	report := convert.Report{
		OutputDir:     "/data/sds",
		Scan:          convert.ScanSummary{Files: 4, Bytes: 4096},
		Tally:         convert.Tally{Saved: 2, LoadFailed: 1, SaveFailed: 1},
		RecordedPaths: 2,
		ErrorsFile:    "/data/sds/errors.txt",
	}

	if err := serviceFor(srv.URL).NotifyConversionCompleted(context.Background(), report); err != nil {
		t.Fatalf("NotifyConversionCompleted returned error: %v", err)
	}
	if !strings.Contains(got.title, "with errors") {
		t.Fatalf("unexpected title %q", got.title)
	}
	if !strings.Contains(got.body, "2 failed, 0 canceled") || !strings.Contains(got.body, "/data/sds/errors.txt") {
		t.Fatalf("unexpected body %q", got.body)
	}
}

func TestNotifyErrorSetsHighPriority(t *testing.T) {
	srv, got := newServer(t, http.StatusOK)
	if err := serviceFor(srv.URL).NotifyError(context.Background(), errors.New("archive locked"), "convert"); err != nil {
		t.Fatalf("NotifyError returned error: %v", err)
	}
	if got.priority != "high" || got.body != "Error during convert: archive locked" {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestSendReportsHTTPErrors(t *testing.T) {
	srv, _ := newServer(t, http.StatusForbidden)
	if err := serviceFor(srv.URL).TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
