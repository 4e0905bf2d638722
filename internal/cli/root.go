package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sandeepkv93/routined/internal/config"
	"github.com/sandeepkv93/routined/internal/storage"
)

var cfgFile string

// newRootCmd builds the full command tree. Each call returns fresh commands
// and flag state.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "routined",
		Short:        "routined: routine tasks with time-of-day alarms",
		SilenceUsage: true,
		RunE:         runTUI,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: ~/.routined/config.yaml)")
	root.PersistentFlags().String("db", "", "SQLite database path")
	root.PersistentFlags().String("log-level", "info", "log level: debug | info | warn | error")
	bindFlag("db_path", root.PersistentFlags(), "db")
	bindFlag("log_level", root.PersistentFlags(), "log-level")

	root.AddCommand(
		newTUICmd(),
		newWatchCmd(),
		newAddCmd(),
		newEditCmd(),
		newListCmd(),
		newCompleteCmd(),
		newDeleteCmd(),
		newImportCmd(),
		newExportCmd(),
		newInitCmd(),
	)
	return root
}

// Execute is the entry point called from cmd/routined/main.go.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(config.Dir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "error reading config file:", err)
			os.Exit(1)
		}
	}
}

// loadConfig reads and validates the effective configuration.
func loadConfig() (config.Config, error) {
	cfg := config.Load(viper.GetViper())
	if cfg.DBPath == "" {
		cfg.DBPath = config.Default().DBPath
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func openStore(cfg config.Config) (*storage.SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	repo, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBPath, err)
	}
	return repo, nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildLogger writes JSON to w. The TUI passes its log file so records never
// land on the screen.
func buildLogger(level string, w io.Writer, mode string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})).
		With(slog.String("mode", mode))
}

// openLogFile opens the append-only TUI log, creating its directory.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func bindFlag(viperKey string, fs *pflag.FlagSet, flagName string) {
	if err := viper.BindPFlag(viperKey, fs.Lookup(flagName)); err != nil {
		panic(fmt.Sprintf("bindFlag %q → %q: %v", flagName, viperKey, err))
	}
}
