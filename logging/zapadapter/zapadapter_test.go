package zapadapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAdapter_ForwardsToZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	a := New(zap.New(core))

	a.Debug("debug msg", "k", "v")
	a.Info("info msg", "count", 3)
	a.Warn("warn msg")
	a.Error("error msg", "err", "boom")

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, "debug msg", entries[0].Message)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)

	ctx := entries[1].ContextMap()
	assert.Equal(t, int64(3), ctx["count"])

	assert.Equal(t, zap.WarnLevel, entries[2].Level)
	assert.Equal(t, zap.ErrorLevel, entries[3].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["err"])
}

func TestAdapter_LevelFiltering(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	a := New(zap.New(core))

	a.Debug("dropped")
	a.Info("dropped")
	a.Warn("kept")

	require.Len(t, logs.All(), 1)
	assert.Equal(t, "kept", logs.All()[0].Message)
}
