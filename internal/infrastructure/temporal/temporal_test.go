package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLogger(zap.New(core))

	l.Debug("polling", "task_queue", "sync")
	l.Warn("activity retry", "attempt", 2)
	l.(log.WithLogger).With("namespace", "default").Error("worker failed", "error", "boom")

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "sync", entries[0].ContextMap()["task_queue"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, 2, entries[1].ContextMap()["attempt"])

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "worker failed", entries[2].Message)
	assert.Equal(t, "default", entries[2].ContextMap()["namespace"])
	assert.Equal(t, "boom", entries[2].ContextMap()["error"])
}
