package monitoring

import (
	"context"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter forwards unexpected failures to an error tracker.
type Reporter interface {
	CaptureError(ctx context.Context, err error, tags map[string]string)
	Flush(timeout time.Duration) bool
}

// Config selects the error tracker. An empty DSN disables reporting.
type Config struct {
	DSN         string
	Environment string
	Release     string
}

// NewReporter returns a Sentry-backed reporter, or a no-op one when no DSN is configured.
func NewReporter(cfg Config) (Reporter, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return NopReporter{}, nil
	}
	return newSentryReporter(sentry.ClientOptions{
		Dsn:         strings.TrimSpace(cfg.DSN),
		Environment: cfg.Environment,
		Release:     cfg.Release,
	})
}

// NopReporter discards everything.
type NopReporter struct{}

// CaptureError does nothing.
func (NopReporter) CaptureError(context.Context, error, map[string]string) {}

// Flush reports success immediately.
func (NopReporter) Flush(time.Duration) bool { return true }

// SentryReporter sends errors through a dedicated Sentry hub.
type SentryReporter struct {
	hub *sentry.Hub
}

func newSentryReporter(options sentry.ClientOptions) (*SentryReporter, error) {
	client, err := sentry.NewClient(options)
	if err != nil {
		return nil, err
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// CaptureError records err with tags on a per-call scope.
func (r *SentryReporter) CaptureError(_ context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range tags {
			scope.SetTag(key, value)
		}
		r.hub.CaptureException(err)
	})
}

// Flush waits for buffered events to be delivered.
func (r *SentryReporter) Flush(timeout time.Duration) bool {
	return r.hub.Flush(timeout)
}
