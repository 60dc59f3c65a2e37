package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerAttachesModuleAndDetails(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewWithZap(zap.New(core))

	l.Info("CHAT", "turn completed", map[string]interface{}{"conversation_id": uint(7)})
	l.Error("CHAT", "rollback failed", map[string]interface{}{"error": errors.New("db down")})
	l.Warn("CHAT", "no details", nil)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "turn completed", entries[0].Message)
	assert.Equal(t, "CHAT", entries[0].ContextMap()["module"])

	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, "db down", entries[1].ContextMap()["error"])

	assert.NotNil(t, entries[2].ContextMap()["details"])
}

func TestIsolatedLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turns.log")
	l := NewIsolatedLogger(path)

	l.Info("AUDIT", "TURN_COMPLETED", map[string]interface{}{"user_id": 1})
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"TURN_COMPLETED"`)
	assert.Contains(t, string(data), `"module":"AUDIT"`)
	assert.Equal(t, path, l.FilePath())
}
