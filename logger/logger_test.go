package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"development", "production", "PROD", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		assert.NotNil(t, l.SugaredLogger)
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("week", "2025-03-04").Info("run finished", "matches", 3)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "run finished", entry.Message)
	assert.Equal(t, map[string]interface{}{"week": "2025-03-04", "matches": int64(3)}, entry.ContextMap())
}

func TestNopLoggerIsSilent(t *testing.T) {
	l := NewNop()
	l.Error("ignored", "k", "v")
	l.Sync()
}
