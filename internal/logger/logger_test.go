package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/newthinker/ats/internal/logsink"
)

func TestNew_Development(t *testing.T) {
	log, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, log)

	// Should not panic
	log.Info("test message")
}

func TestNew_Production(t *testing.T) {
	log, err := New(false)
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestMust(t *testing.T) {
	assert.NotPanics(t, func() { Must(true) })
}

func TestBuild_InvalidLevel(t *testing.T) {
	_, err := Build(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestBuild_Level(t *testing.T) {
	log, err := Build(Config{Level: "warn"})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestBuild_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ats.log")
	log, err := Build(Config{Level: "info", File: path})
	require.NoError(t, err)

	log.Info("written to file", zap.String("strategy", "S1"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"written to file"`)
	assert.Contains(t, string(data), `"strategy":"S1"`)
}

func TestWithSink(t *testing.T) {
	sink := logsink.New(logsink.DefaultConfig())
	defer sink.Close()

	log := WithSink(zap.NewNop(), sink, zapcore.InfoLevel).With(zap.String("strategy", "S1"))
	log.Debug("below level")
	log.Warn("cycle failed", zap.Int64("cycle", 3), zap.Error(errors.New("timeout")))

	got := sink.Recent()
	require.Len(t, got, 1)
	assert.Equal(t, "warn", got[0].Level)
	assert.Equal(t, "S1", got[0].Strategy)
	assert.Equal(t, "cycle failed", got[0].Message)
	assert.Equal(t, int64(3), got[0].Fields["cycle"])
	assert.Equal(t, "timeout", got[0].Fields["error"])
	assert.NotContains(t, got[0].Fields, "strategy")
}
