package logger

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFromConfigWritesFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ats.log")
	l, cleanup := FromConfig("info", true, file, 1, 1, 1, false)
	l.Info("stage moved", zap.String("candidate", "c1"))
	l.Debug("hidden")
	cleanup()

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"candidate":"c1"`)
	assert.NotContains(t, string(b), "hidden")
}

func TestToWriter(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ats.log")
	l, cleanup := FromConfig("debug", true, file, 1, 1, 1, false)
	w := ToWriter(l, zapcore.WarnLevel)
	n, err := w.Write([]byte("from gin\n"))
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	cleanup()

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"from gin"`)
	assert.Contains(t, string(b), `"level":"warn"`)
}

func TestRedirectStdLog(t *testing.T) {
	file := filepath.Join(t.TempDir(), "ats.log")
	l, cleanup := FromConfig("info", true, file, 1, 1, 1, false)
	undo := RedirectStdLog(l, zapcore.InfoLevel)
	log.Print("mysql: connection reset")
	undo()
	cleanup()

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"mysql: connection reset"`)
}
