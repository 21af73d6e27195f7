package zap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ubzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/theory-cloud/geotheory/pkg/observability"
)

type capturingNotifier struct {
	entries []observability.LogEntry
}

func (c *capturingNotifier) Notify(_ context.Context, entry observability.LogEntry) error {
	c.entries = append(c.entries, entry)
	return nil
}

func newObservedLogger(t *testing.T, options ...Option) (*Logger, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	options = append([]Option{WithZapLogger(ubzap.New(core))}, options...)
	log, err := NewZapLogger(observability.LoggerConfig{Level: "debug"}, options...)
	require.NoError(t, err)
	return log, logs
}

func TestZapLoggerWritesFields(t *testing.T) {
	log, logs := newObservedLogger(t)

	log.WithJobID("job-1").WithField("table", "job-status").Info("status updated")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "status updated", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "job-status", fields["table"])
	assert.Equal(t, "job-1", fields["job_id"])
}

func TestZapLoggerNotifiesOnError(t *testing.T) {
	notifier := &capturingNotifier{}
	log, _ := newObservedLogger(t, WithErrorNotifier(notifier))

	log.Warn("not notified")
	log.WithRequestID("req-9").Error("endpoint unreachable", map[string]any{"endpoint": "sm-endpoint"})

	require.Len(t, notifier.entries, 1)
	entry := notifier.entries[0]
	assert.Equal(t, "error", entry.Level)
	assert.Equal(t, "endpoint unreachable", entry.Message)
	assert.Equal(t, "req-9", entry.RequestID)
	assert.Equal(t, "sm-endpoint", entry.Fields["endpoint"])
}

func TestNewZapLoggerRejectsBadConfig(t *testing.T) {
	_, err := NewZapLogger(observability.LoggerConfig{Level: "loud"})
	assert.Error(t, err)

	_, err = NewZapLogger(observability.LoggerConfig{Format: "xml"})
	assert.Error(t, err)
}
