package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("DAILY_PRIVATE_KEY", "secret-daily")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
store:
  path: /var/lib/arcade/leaderboard.json
remote:
  base_url: http://board.example.com/lb
  relay_url: http://relay.example.com:3128
  cache_ttl: 30s
  alltime_board:
    public_key: at-pub
    private_key: at-priv
  daily_board:
    public_key: d-pub
    private_key: ${DAILY_PRIVATE_KEY}
retention:
  enabled: true
  interval: 1h
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/var/lib/arcade/leaderboard.json", cfg.Store.Path)
	assert.Equal(t, "http://board.example.com/lb", cfg.Remote.BaseURL)
	assert.Equal(t, "http://relay.example.com:3128", cfg.Remote.RelayURL)
	assert.Equal(t, 30*time.Second, cfg.Remote.CacheTTL)
	assert.Equal(t, "secret-daily", cfg.Remote.DailyBoard.PrivateKey)
	assert.True(t, cfg.Retention.Enabled)
	assert.Equal(t, time.Hour, cfg.Retention.Interval)

	// Unset fields get defaults.
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 10, cfg.Leaderboard.DefaultLimit)
	assert.Equal(t, 100, cfg.Leaderboard.MaxLimit)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "data/leaderboard.json", cfg.Store.Path)
	assert.Equal(t, 60*time.Second, cfg.Remote.CacheTTL)
	assert.Equal(t, 6*time.Hour, cfg.Retention.Interval)
	assert.True(t, cfg.Retention.Enabled)
}
