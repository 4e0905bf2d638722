package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, time.Minute, cfg.CleanupInterval)
	assert.Equal(t, TimeFormat24h, cfg.TimeFormat)
	assert.Equal(t, DedupMemory, cfg.DedupBackend)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ROUTINED_TIME_FORMAT", "12H")
	t.Setenv("ROUTINED_DESKTOP_NOTIFICATIONS", "true")
	t.Setenv("ROUTINED_TICK_INTERVAL", "500ms")
	t.Setenv("ROUTINED_BUFFER", "64")

	v := viper.New()
	SetDefaults(v)
	cfg := Load(v)

	assert.Equal(t, TimeFormat12h, cfg.TimeFormat)
	assert.True(t, cfg.DesktopNotifications)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 64, cfg.Buffer)
	assert.Equal(t, "info", cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromDefaultYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(DefaultYAML), 0o644))

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg := Load(v)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, Default().DBPath, cfg.DBPath)
	assert.Equal(t, time.Minute, cfg.CleanupInterval)
	assert.True(t, cfg.SoundEnabled)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"empty db path":     func(c *Config) { c.DBPath = "" },
		"bad level":         func(c *Config) { c.LogLevel = "loud" },
		"zero tick":         func(c *Config) { c.TickInterval = 0 },
		"slow tick":         func(c *Config) { c.TickInterval = 2 * time.Minute },
		"cleanup too short": func(c *Config) { c.CleanupInterval = 10 * time.Millisecond },
		"bad time format":   func(c *Config) { c.TimeFormat = "am/pm" },
		"bad backend":       func(c *Config) { c.DedupBackend = "etcd" },
		"redis without addr": func(c *Config) {
			c.DedupBackend = DedupRedis
			c.RedisAddr = ""
		},
		"zero buffer": func(c *Config) { c.Buffer = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	v := viper.New()
	SetDefaults(v)
	v.Set("db_path", "~/tasks.db")
	assert.Equal(t, filepath.Join(home, "tasks.db"), Load(v).DBPath)
}
