// Package monitoring provides a Sentry backed error monitor.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/fleetload/config"
	coremon "github.com/kilianp07/fleetload/core/monitoring"
)

// New returns a Sentry monitor, or the no-op monitor when no DSN is set.
func New(cfg config.MonitoringConfig) (coremon.Monitor, error) {
	if cfg.SentryDSN == "" {
		return coremon.NopMonitor{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		TracesSampleRate: cfg.TracesSampleRate,
	})
	if err != nil {
		return nil, err
	}
	return &SentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// SentryMonitor sends captured errors through its own hub.
type SentryMonitor struct {
	hub *sentry.Hub
}

func (s *SentryMonitor) Capture(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		s.hub.CaptureException(err)
	})
}

func (s *SentryMonitor) Flush(timeout time.Duration) { s.hub.Flush(timeout) }
