package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestLoggerRecordsEntries(t *testing.T) {
	log := NewTestLogger()

	log.Info("image request accepted", map[string]any{"queue": "image-requests"})
	log.Error("model invocation failed")

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "image request accepted", entries[0].Message)
	assert.Equal(t, "image-requests", entries[0].Fields["queue"])
	assert.Equal(t, "error", entries[1].Level)
	assert.True(t, log.HasMessage("model invocation failed"))
}

func TestTestLoggerDerivedLoggersShareEntries(t *testing.T) {
	log := NewTestLogger()

	derived := log.WithJobID("job-123").WithFields(map[string]any{"region": "us-west-2"})
	derived.Warn("region request retried")

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "job-123", entries[0].JobID)
	assert.Equal(t, "us-west-2", entries[0].Fields["region"])

	// The parent logger keeps its own context.
	log.Info("unrelated")
	entries = log.Entries()
	require.Len(t, entries, 2)
	assert.Empty(t, entries[1].JobID)
}

func TestNoOpLoggerIsInert(t *testing.T) {
	log := NewNoOpLogger()
	log.Info("dropped")
	assert.NoError(t, log.Flush(nil))
	assert.NoError(t, log.Close())
}
