package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/cadlink-project/cadlink/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(level logging.Level) (*logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := logging.NewLogger(level)
	l.SetOutput(&buf)
	return l, &buf
}

func TestLogger_JSONShape(t *testing.T) {
	l, buf := capture(logging.LevelInfo)
	l.Info("recompose skipped", map[string]any{"path": "parts/BRK-001.FCStd"})

	var entry logging.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, logging.LevelInfo, entry.Level)
	assert.Equal(t, "recompose skipped", entry.Message)
	assert.Equal(t, "parts/BRK-001.FCStd", entry.Fields["path"])
	assert.NotEmpty(t, entry.Timestamp)
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := capture(logging.LevelWarn)
	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")
	l.Error("kept")

	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	assert.Equal(t, 2, lines)
}

func TestLogger_WithFields(t *testing.T) {
	l, buf := capture(logging.LevelDebug)
	scoped := l.WithFields(map[string]any{"phase": "post-checkout"})
	scoped.Debug("msg")

	var entry logging.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "post-checkout", entry.Fields["phase"])
}

func TestLogger_ErrorErr(t *testing.T) {
	l, buf := capture(logging.LevelInfo)
	l.ErrorErr("recompose failed", assert.AnError, map[string]any{"path": "a.FCStd"})

	var entry logging.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, assert.AnError.Error(), entry.Fields["error"])
	assert.Equal(t, "a.FCStd", entry.Fields["path"])
}
