package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerDefaultConfig(t *testing.T) {
	logger := NewLogger(nil)
	require.NotNil(t, logger)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelWarn, Output: &buf})

	logger.Debug("should not appear")
	logger.Info("also should not appear")
	require.Empty(t, buf.String())

	logger.Warn("this appears")
	require.Contains(t, buf.String(), "this appears")
}

func TestFormatArgsKeyValue(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	logger.Info("tick complete", "node", "device0", "elapsed_ns", 1234)
	require.Contains(t, buf.String(), "node=device0")
	require.Contains(t, buf.String(), "elapsed_ns=1234")
}

func TestWithFieldIsCarriedOnEveryLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelDebug, Output: &buf})

	nodeLogger := logger.WithField("node", "control")
	nodeLogger.Info("loop started")
	require.Contains(t, buf.String(), "node=control")

	buf.Reset()
	nodeLogger.Error("sensor read failed")
	require.Contains(t, buf.String(), "node=control")
	require.Contains(t, buf.String(), "sensor read failed")
}

func TestFatalLogsThenCallsExit(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{Level: LevelError, Output: &buf})

	var gotCode int
	logger.exit = func(code int) { gotCode = code }

	logger.Fatal(3, "assembly failed", "reason", "invalid config")

	require.Equal(t, 3, gotCode)
	require.Contains(t, buf.String(), "assembly failed")
	require.Contains(t, buf.String(), "reason=invalid config")
}

func TestGlobalDefaultLoggerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(&Config{Level: LevelDebug, Output: &buf}))

	Info("hello from global")
	require.Contains(t, buf.String(), "hello from global")
}
