package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "transactional", cfg.Sync.Mode)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB)
	assert.Equal(t, 3, cfg.Logging.MaxBackups)
	assert.NotEmpty(t, cfg.Cache.Dir)
	assert.NotEmpty(t, cfg.Logging.File)
}

func TestWorkOfflineSentinel(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")

	assert.False(t, WorkOffline(dir), "fresh cache dir starts online")

	require.NoError(t, SetWorkOffline(dir, true))
	assert.True(t, WorkOffline(dir))

	// Setting it again is idempotent.
	require.NoError(t, SetWorkOffline(dir, true))
	assert.True(t, WorkOffline(dir))

	require.NoError(t, SetWorkOffline(dir, false))
	assert.False(t, WorkOffline(dir))

	// Clearing an already-clear sentinel is fine too.
	require.NoError(t, SetWorkOffline(dir, false))
}
