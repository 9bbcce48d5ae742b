package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ Logger = NoOpLogger{}
	_ Logger = (*SlogAdapter)(nil)
	_ Logger = (*SwarmLogger)(nil)
)

func newBufferedLogger(level LogLevel) (*SwarmLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: &buf})
	return l, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}
	return records
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "INFO", LogLevelInfo.String())
	assert.Equal(t, "WARN", LogLevelWarn.String())
	assert.Equal(t, "ERROR", LogLevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestSwarmLogger_LevelFiltering(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelWarn)

	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	l.Error("kept too")

	records := decodeLines(t, buf)
	require.Len(t, records, 2)
	assert.Equal(t, "kept", records[0]["msg"])
	assert.Equal(t, "kept too", records[1]["msg"])
}

func TestSwarmLogger_KeyValueArgs(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelInfo)

	l.Info("pool.execute", "pool", "research", "agents", 3)

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "research", records[0]["pool"])
	assert.Equal(t, float64(3), records[0]["agents"])
}

func TestSwarmLogger_ContextualClones(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelInfo)

	scoped := l.WithComponent("pool").WithPool("research").WithTask("t1").WithContext("attempt", 2)
	scoped.Info("executing")

	// the parent logger is untouched by the clones
	l.Info("plain")

	records := decodeLines(t, buf)
	require.Len(t, records, 2)
	assert.Equal(t, "pool", records[0]["component"])
	assert.Equal(t, "research", records[0]["pool"])
	assert.Equal(t, "t1", records[0]["task_id"])
	assert.Equal(t, float64(2), records[0]["attempt"])

	assert.NotContains(t, records[1], "component")
	assert.NotContains(t, records[1], "pool")
}

func TestSwarmLogger_LogAgentExecution(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelInfo)

	l.LogAgentExecution("scout", 120*time.Millisecond, true, nil)
	l.LogAgentExecution("writer", 80*time.Millisecond, false, errors.New("boom"))

	records := decodeLines(t, buf)
	require.Len(t, records, 2)

	assert.Equal(t, "Agent execution completed", records[0]["msg"])
	assert.Equal(t, "scout", records[0]["agent"])
	assert.Equal(t, true, records[0]["success"])

	assert.Equal(t, "Agent execution failed", records[1]["msg"])
	assert.Equal(t, "ERROR", records[1]["level"])
	assert.Equal(t, "boom", records[1]["error"])
}

func TestSwarmLogger_LogPoolExecution(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelInfo)

	l.LogPoolExecution("parallel", 4, 250*time.Millisecond, true)

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "Pool execution completed", records[0]["msg"])
	assert.Equal(t, "parallel", records[0]["mode"])
	assert.Equal(t, float64(4), records[0]["agent_count"])
}

func TestSwarmLogger_LogEvaluation(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelInfo)

	l.LogEvaluation("t1", 2, 0.75)

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "Evaluation completed", records[0]["msg"])
	assert.Equal(t, 0.75, records[0]["overall_score"])
}

func TestSwarmLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: &buf, Component: "test"})

	l.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "component=test")
}

func TestNewLogger_NilConfigDefaults(t *testing.T) {
	l := NewLogger(nil)
	assert.NotNil(t, l)
}
