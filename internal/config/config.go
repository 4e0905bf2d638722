package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "ROUTINED"

const (
	TimeFormat12h = "12h"
	TimeFormat24h = "24h"

	DedupMemory = "memory"
	DedupRedis  = "redis"
)

// Config is the typed runtime configuration. Precedence: flag > env
// (ROUTINED_*) > config file > Default.
type Config struct {
	DBPath               string
	LogLevel             string
	LogFile              string
	TickInterval         time.Duration
	CleanupInterval      time.Duration
	DesktopNotifications bool
	SoundEnabled         bool
	TimeFormat           string
	DedupBackend         string
	RedisAddr            string
	MetricsAddr          string
	Buffer               int
}

// Dir is where the config file and default database live.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".routined"
	}
	return filepath.Join(home, ".routined")
}

func Default() Config {
	return Config{
		DBPath:          filepath.Join(Dir(), "routined.db"),
		LogLevel:        "info",
		LogFile:         filepath.Join(Dir(), "routined.log"),
		TickInterval:    time.Second,
		CleanupInterval: time.Minute,
		SoundEnabled:    true,
		TimeFormat:      TimeFormat24h,
		DedupBackend:    DedupMemory,
		RedisAddr:       "localhost:6379",
		Buffer:          16,
	}
}

// SetDefaults registers Default on v and turns on ROUTINED_* lookups.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("tick_interval", d.TickInterval)
	v.SetDefault("cleanup_interval", d.CleanupInterval)
	v.SetDefault("desktop_notifications", d.DesktopNotifications)
	v.SetDefault("sound_enabled", d.SoundEnabled)
	v.SetDefault("time_format", d.TimeFormat)
	v.SetDefault("dedup_backend", d.DedupBackend)
	v.SetDefault("redis_addr", d.RedisAddr)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("buffer", d.Buffer)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		DBPath:               expandHome(v.GetString("db_path")),
		LogLevel:             strings.ToLower(v.GetString("log_level")),
		LogFile:              expandHome(v.GetString("log_file")),
		TickInterval:         v.GetDuration("tick_interval"),
		CleanupInterval:      v.GetDuration("cleanup_interval"),
		DesktopNotifications: v.GetBool("desktop_notifications"),
		SoundEnabled:         v.GetBool("sound_enabled"),
		TimeFormat:           strings.ToLower(v.GetString("time_format")),
		DedupBackend:         strings.ToLower(v.GetString("dedup_backend")),
		RedisAddr:            v.GetString("redis_addr"),
		MetricsAddr:          v.GetString("metrics_addr"),
		Buffer:               v.GetInt("buffer"),
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("config: db_path is required"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: log_level must be debug|info|warn|error, got %q", c.LogLevel))
	}
	if c.TickInterval <= 0 || c.TickInterval > time.Minute {
		errs = append(errs, fmt.Errorf("config: tick_interval must be in (0, 1m], got %s", c.TickInterval))
	}
	if c.CleanupInterval < c.TickInterval {
		errs = append(errs, fmt.Errorf("config: cleanup_interval %s is shorter than tick_interval", c.CleanupInterval))
	}
	if c.TimeFormat != TimeFormat12h && c.TimeFormat != TimeFormat24h {
		errs = append(errs, fmt.Errorf("config: time_format must be 12h or 24h, got %q", c.TimeFormat))
	}
	switch c.DedupBackend {
	case DedupMemory:
	case DedupRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			errs = append(errs, errors.New("config: redis_addr is required for the redis dedup backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: dedup_backend must be memory or redis, got %q", c.DedupBackend))
	}
	if c.Buffer <= 0 {
		errs = append(errs, fmt.Errorf("config: buffer must be positive, got %d", c.Buffer))
	}
	return errors.Join(errs...)
}

// DefaultYAML is the file written by `routined init`.
const DefaultYAML = `# routined config
# Priority: CLI flag > ROUTINED_* env > this file > default.

# db_path: "~/.routined/routined.db"
log_level: "info"
# log_file: "~/.routined/routined.log"   # TUI logs go here, never to the terminal

tick_interval:    "1s"   # how often alarms are matched
cleanup_interval: "1m"   # how often fired-alarm keys from past days are evicted
buffer: 16

time_format: "24h"       # 12h | 24h
sound_enabled: true      # terminal bell when an alarm fires
desktop_notifications: false

dedup_backend: "memory"  # memory | redis (share fired alarms between processes)
redis_addr: "localhost:6379"

# metrics_addr: ":9095"  # Prometheus /metrics for routined watch; empty disables
`
