package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exeNyx7/ethereal-sub001/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.ValidateBasic())

	assert.Equal(t, "general", cfg.Domain)
	assert.Equal(t, "goleveldb", cfg.Store.Backend)
	assert.Equal(t, 30*time.Second, cfg.Resolution.ScanInterval)
}

func TestConfigValidateBasic(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown log format", func(cfg *Config) { cfg.LogFormat = "xml" }},
		{"empty domain", func(cfg *Config) { cfg.Domain = "" }},
		{"zero read timeout", func(cfg *Config) { cfg.Store.ReadTimeout = 0 }},
		{"zero scan interval", func(cfg *Config) { cfg.Resolution.ScanInterval = 0 }},
		{"bad thresholds", func(cfg *Config) { cfg.Resolution.FactThreshold = 0.2 }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			require.Error(t, cfg.ValidateBasic())
		})
	}
}

func TestResolutionParamsFold(t *testing.T) {
	cfg := DefaultResolutionConfig()
	cfg.MinVoters = 7
	cfg.FactThreshold = 0.7

	params := cfg.Params()
	assert.Equal(t, 7, params.MinVoters)
	assert.Equal(t, 0.7, params.FactThreshold)
	// settlement deltas always come from the engine defaults
	assert.Equal(t, types.DefaultResolutionParams().WinnerDelta, params.WinnerDelta)
	assert.Equal(t, types.DefaultResolutionParams().LoserDelta, params.LoserDelta)
}

func TestStoreDBDir(t *testing.T) {
	cfg := DefaultStoreConfig()
	assert.Equal(t, filepath.Join("/tmp/ethereal", "data"), cfg.DBDir("/tmp/ethereal"))

	cfg.DBPath = "/var/lib/ethereal"
	assert.Equal(t, "/var/lib/ethereal", cfg.DBDir("/tmp/ethereal"))
}

func TestSetRoot(t *testing.T) {
	cfg := DefaultConfig().SetRoot("/tmp/ethereal")
	assert.Equal(t, "/tmp/ethereal", cfg.RootDir)
}
