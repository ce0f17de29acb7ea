package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/pathway/internal/config"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(cfg *config.Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	cfg.BindServeFlags(fs)
	return fs
}

func TestDefaults(t *testing.T) {
	cfg := config.Default()
	fs := newFlags(&cfg)
	require.NoError(t, fs.Parse(nil))

	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, 120*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 10*time.Second, cfg.ClassifierTimeout)
	assert.False(t, cfg.Durable())
	assert.NoError(t, cfg.Validate())
}

func TestApplyEnv_FlagsWin(t *testing.T) {
	t.Setenv("PATHWAY_STORE", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("PATHWAY_REDIS_TTL", "24h")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg := config.Default()
	fs := newFlags(&cfg)
	require.NoError(t, fs.Parse([]string{"--store", "file"}))
	require.NoError(t, config.ApplyEnv(fs))

	assert.Equal(t, config.StoreFile, cfg.Store, "Explicit flags beat the environment")
	assert.Equal(t, "redis:6379", cfg.RedisAddr)
	assert.Equal(t, 24*time.Hour, cfg.RedisTTL)
	assert.Equal(t, "sk-env", cfg.OpenAIKey)
}

func TestApplyEnv_InvalidValue(t *testing.T) {
	t.Setenv("PATHWAY_CLASSIFIER_TIMEOUT", "soon")

	cfg := config.Default()
	fs := newFlags(&cfg)
	require.NoError(t, fs.Parse(nil))

	err := config.ApplyEnv(fs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PATHWAY_CLASSIFIER_TIMEOUT")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PATHWAY_FILE=steps.yaml\nPATHWAY_LOG_LEVEL=debug\n"), 0644))

	t.Setenv("PATHWAY_LOG_LEVEL", "warn")
	// Registers cleanup for a variable the .env file will set.
	t.Setenv("PATHWAY_FILE", "")
	require.NoError(t, os.Unsetenv("PATHWAY_FILE"))

	require.NoError(t, config.LoadDotEnv(path, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "steps.yaml", os.Getenv("PATHWAY_FILE"))
	assert.Equal(t, "warn", os.Getenv("PATHWAY_LOG_LEVEL"), "Existing variables are not overridden")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{"default", func(*config.Config) {}, true},
		{"unknown store", func(c *config.Config) { c.Store = "sqlite" }, false},
		{"lock without redis", func(c *config.Config) { c.DistributedLock = true }, false},
		{"lock with redis", func(c *config.Config) { c.DistributedLock = true; c.Store = config.StoreRedis }, true},
		{"no pathway", func(c *config.Config) { c.PathwayFile = " " }, false},
		{"negative ttl", func(c *config.Config) { c.RedisTTL = -time.Second }, false},
		{"zero upstream timeout", func(c *config.Config) { c.UpstreamTimeout = 0 }, false},
		{"zero classifier timeout", func(c *config.Config) { c.ClassifierTimeout = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
