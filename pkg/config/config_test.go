package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://pokeapi.co/api/v2/pokemon/", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 1, cfg.Catalog.StartID)
	assert.Equal(t, 1025, cfg.Catalog.TotalEntities)
	assert.Equal(t, 10, cfg.Catalog.CopiesPerEntity)
	assert.Equal(t, StrategyFixedDelay, cfg.RateLimit.Strategy)
	assert.Equal(t, 100*time.Millisecond, cfg.RateLimit.Delay)
	assert.False(t, cfg.RateLimit.Disabled)
	assert.Equal(t, "metadata_files", cfg.Output.Directory)
	assert.Equal(t, "metadata_{n}.json", cfg.Output.FileNamePattern)
	assert.False(t, cfg.Output.CreateDirectory)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NFTMAKER_BASE_URL", "http://localhost:9999/pokemon/")
	t.Setenv("NFTMAKER_TOTAL_ENTITIES", "151")
	t.Setenv("NFTMAKER_COPIES_PER_ENTITY", "3")
	t.Setenv("NFTMAKER_DELAY", "250ms")
	t.Setenv("NFTMAKER_OUTPUT_DIR", "/tmp/nft-out")
	t.Setenv("NFTMAKER_DRY_RUN", "true")
	t.Setenv("NFTMAKER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "http://localhost:9999/pokemon/", cfg.API.BaseURL)
	assert.Equal(t, 151, cfg.Catalog.TotalEntities)
	assert.Equal(t, 3, cfg.Catalog.CopiesPerEntity)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimit.Delay)
	assert.Equal(t, "/tmp/nft-out", cfg.Output.Directory)
	assert.True(t, cfg.Output.DryRun)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvRateLimit(t *testing.T) {
	t.Setenv("NFTMAKER_RATE_LIMIT_STRATEGY", "token_bucket")
	t.Setenv("NFTMAKER_REQUESTS_PER_WINDOW", "20")
	t.Setenv("NFTMAKER_RATE_LIMIT_WINDOW", "10s")
	t.Setenv("NFTMAKER_HTTP_TIMEOUT", "5s")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, StrategyTokenBucket, cfg.RateLimit.Strategy)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerWindow)
	assert.Equal(t, 10*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 1025, cfg.Catalog.TotalEntities)
	assert.NoError(t, cfg.Validate())
}

func TestValidateReportsField(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Catalog.CopiesPerEntity = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CopiesPerEntity")
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("NFTMAKER_TOTAL_ENTITIES", "lots")
	t.Setenv("NFTMAKER_DELAY", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "TotalEntities")
	assert.Contains(t, err.Error(), "Delay")
	assert.Equal(t, 1025, cfg.Catalog.TotalEntities)
	assert.Equal(t, 100*time.Millisecond, cfg.RateLimit.Delay)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{
			name:      "defaults",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "zero copies",
			mutate:    func(c *Config) { c.Catalog.CopiesPerEntity = 0 },
			wantError: true,
		},
		{
			name:      "start beyond total",
			mutate:    func(c *Config) { c.Catalog.StartID = 20; c.Catalog.TotalEntities = 10 },
			wantError: true,
		},
		{
			name:      "zero delay without opt-out",
			mutate:    func(c *Config) { c.RateLimit.Delay = 0 },
			wantError: true,
		},
		{
			name:      "zero delay with opt-out",
			mutate:    func(c *Config) { c.RateLimit.Delay = 0; c.RateLimit.Disabled = true },
			wantError: false,
		},
		{
			name: "token bucket without window",
			mutate: func(c *Config) {
				c.RateLimit.Strategy = StrategyTokenBucket
				c.RateLimit.Window = 0
			},
			wantError: true,
		},
		{
			name:      "unknown strategy",
			mutate:    func(c *Config) { c.RateLimit.Strategy = "leaky" },
			wantError: true,
		},
		{
			name:      "pattern without placeholder",
			mutate:    func(c *Config) { c.Output.FileNamePattern = "metadata.json" },
			wantError: true,
		},
		{
			name:      "relative base url",
			mutate:    func(c *Config) { c.API.BaseURL = "pokemon/" },
			wantError: true,
		},
		{
			name:      "zero timeout",
			mutate:    func(c *Config) { c.API.Timeout = 0 },
			wantError: true,
		},
		{
			name:      "empty output directory",
			mutate:    func(c *Config) { c.Output.Directory = "" },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "loud" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"output":    "/flag/output",
		"total":     5,
		"copies":    2,
		"delay":     time.Second,
		"dry-run":   true,
		"log-level": "error",
	})

	assert.Equal(t, "/flag/output", cfg.Output.Directory)
	assert.Equal(t, 5, cfg.Catalog.TotalEntities)
	assert.Equal(t, 2, cfg.Catalog.CopiesPerEntity)
	assert.Equal(t, time.Second, cfg.RateLimit.Delay)
	assert.True(t, cfg.Output.DryRun)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestMergeZeroDelayDisablesPacing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{"delay": time.Duration(0)})

	assert.True(t, cfg.RateLimit.Disabled)
	assert.NoError(t, cfg.Validate())
}

func TestSaveAndLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "nftmaker.yaml")

	cfg := DefaultConfig()
	cfg.Catalog.TotalEntities = 151
	cfg.RateLimit.Delay = 2 * time.Second
	require.NoError(t, cfg.Save(configPath))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(configPath))

	assert.Equal(t, 151, loaded.Catalog.TotalEntities)
	assert.Equal(t, 2*time.Second, loaded.RateLimit.Delay)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "nftmaker.yaml")
	yamlData := "catalog:\n  total_entities: 50\n  copies_per_entity: 4\noutput:\n  directory: from-file\n"
	require.NoError(t, os.WriteFile(configPath, []byte(yamlData), 0644))

	t.Setenv("NFTMAKER_COPIES_PER_ENTITY", "6")

	cfg, err := Load(configPath, map[string]interface{}{"output": "from-flag"})
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Catalog.TotalEntities)
	assert.Equal(t, 6, cfg.Catalog.CopiesPerEntity)
	assert.Equal(t, "from-flag", cfg.Output.Directory)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("catalog: [oops"), 0644))

	_, err := Load(configPath, nil)
	assert.Error(t, err)
}
