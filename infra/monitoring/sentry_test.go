package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetload/config"
	coremon "github.com/kilianp07/fleetload/core/monitoring"
)

type captureTransport struct {
	events []*sentry.Event
}

func (t *captureTransport) Configure(sentry.ClientOptions)            {}
func (t *captureTransport) SendEvent(e *sentry.Event)                 { t.events = append(t.events, e) }
func (t *captureTransport) Flush(time.Duration) bool                  { return true }
func (t *captureTransport) FlushWithContext(ctx context.Context) bool { return true }
func (t *captureTransport) Close()                                    {}

func TestNewWithoutDSNIsNop(t *testing.T) {
	m, err := New(config.MonitoringConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestNewRejectsBadDSN(t *testing.T) {
	_, err := New(config.MonitoringConfig{SentryDSN: "not a dsn"})
	assert.Error(t, err)
}

func TestSentryMonitorCapturesWithTags(t *testing.T) {
	tr := &captureTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       "https://key@o0.ingest.sentry.io/1",
		Transport: tr,
	})
	require.NoError(t, err)
	m := &SentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}

	m.Capture(nil, nil)
	m.Capture(errors.New("pump overflow"), map[string]string{"command": "bus"})
	m.Flush(time.Second)

	require.Len(t, tr.events, 1)
	assert.Equal(t, "bus", tr.events[0].Tags["command"])
	require.NotEmpty(t, tr.events[0].Exception)
	assert.Equal(t, "pump overflow", tr.events[0].Exception[0].Value)
}
