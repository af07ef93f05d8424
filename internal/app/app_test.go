package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"ats-pipeline/internal/core/config"
	"ats-pipeline/internal/integration/notify"
)

func TestRouterOptions(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.CORSOrigins = []string{"http://localhost:5173"}
	cfg.App.HTTP.MaxBodyMB = 12
	cfg.App.HTTP.RequestTimeoutSec = 15
	cfg.App.HTTP.RatePerSec = 20
	a := &App{Cfg: cfg, Log: zap.NewNop()}

	o := a.RouterOptions()
	assert.Equal(t, int64(12<<20), o.MaxBodyBytes)
	assert.Equal(t, 15*time.Second, o.Timeout)
	assert.Equal(t, 20.0, o.RatePerSec)
	assert.Equal(t, cfg.App.CORSOrigins, o.CORSOrigins)
	assert.NotNil(t, o.Ready)
}

func TestMailerFallsBackToLog(t *testing.T) {
	a := &App{Cfg: &config.Config{}, Log: zap.NewNop()}
	_, ok := a.Mailer().(notify.LogMailer)
	assert.True(t, ok)
}

func TestExtractorDisabled(t *testing.T) {
	a := &App{Cfg: &config.Config{}, Log: zap.NewNop()}
	ex, err := a.openExtractor(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, ex)
}

func TestCloseWithoutResources(t *testing.T) {
	a := &App{Cfg: &config.Config{}, Log: zap.NewNop()}
	called := 0
	a.closers = append(a.closers, func() { called++ })
	a.Close()
	a.Close()
	assert.Equal(t, 1, called)
}
