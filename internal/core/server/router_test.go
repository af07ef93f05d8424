package server

import (
	"fmt"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestUseZapWriters(t *testing.T) {
	out, errOut := gin.DefaultWriter, gin.DefaultErrorWriter
	t.Cleanup(func() { gin.DefaultWriter, gin.DefaultErrorWriter = out, errOut })

	core, logs := observer.New(zapcore.DebugLevel)
	UseZapWriters(zap.New(core))

	fmt.Fprintln(gin.DefaultWriter, "[GIN-debug] GET /health")
	fmt.Fprintln(gin.DefaultErrorWriter, "[GIN-debug] [ERROR] listen failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "gin", entries[0].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "[GIN-debug] GET /health", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
