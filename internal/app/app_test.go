package app

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/dhandash/internal/common"
	"github.com/bobmcallan/dhandash/internal/models"
)

type countingEquity struct {
	calls atomic.Int32
}

func (c *countingEquity) Observe(_ context.Context) *models.PortfolioSnapshot {
	c.calls.Add(1)
	return models.NewPortfolioSnapshot(1, nil, models.SourceMock, "")
}

func (c *countingEquity) Points() []models.EquityPoint { return nil }

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("DHANDASH_CONFIG", "")
	assert.Equal(t, "explicit.toml", resolveConfigPath("explicit.toml", dir))
	assert.Equal(t, "config/dhandash.toml", resolveConfigPath("", dir))

	beside := filepath.Join(dir, "dhandash.toml")
	require.NoError(t, os.WriteFile(beside, []byte(""), 0o644))
	assert.Equal(t, beside, resolveConfigPath("", dir))

	t.Setenv("DHANDASH_CONFIG", "/etc/dhandash.toml")
	assert.Equal(t, "/etc/dhandash.toml", resolveConfigPath("", dir))
}

func TestNew_WithoutTokenServesMock(t *testing.T) {
	cfg := common.NewDefaultConfig()
	a := New(cfg, common.NewSilentLogger())
	defer a.Close()

	assert.False(t, a.Broker.Configured())

	snap := a.PortfolioService.GetSnapshot(context.Background())
	assert.Equal(t, models.SourceMock, snap.Source)
	assert.Equal(t, "Using mock data - DHAN_ACCESS_TOKEN not configured", snap.Message)

	a.EquityService.Observe(context.Background())
	assert.Len(t, a.EquityService.Points(), 1)
}

func TestStartEquityPoller_DisabledByDefault(t *testing.T) {
	a := New(common.NewDefaultConfig(), common.NewSilentLogger())
	a.StartEquityPoller()
	assert.Nil(t, a.pollerCancel)
	a.Close()
}

func TestStartEquityPoller_PollsUntilClosed(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Equity.PollInterval = "5ms"

	eq := &countingEquity{}
	a := &App{Config: cfg, Logger: common.NewSilentLogger(), EquityService: eq}

	a.StartEquityPoller()
	assert.Eventually(t, func() bool { return eq.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	a.Close()
	stopped := eq.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, eq.calls.Load(), "no polls after Close")
}
