package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/routined/internal/alarm"
	"github.com/sandeepkv93/routined/internal/telemetry"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the alarm poller headless with desktop notifications",
		Long: `Run the alarm poller without a UI.

Each alarm is presented through the configured notifiers and then dismissed
automatically after --ring, since there is nobody to press a key.`,
		RunE: runWatch,
	}
	cmd.Flags().String("metrics-addr", "", "Prometheus metrics server address; empty disables")
	cmd.Flags().Bool("desktop", true, "send desktop notifications")
	cmd.Flags().Duration("ring", 30*time.Second, "how long an alarm stays active before it is dismissed; 0 keeps it")

	bindFlag("metrics_addr", cmd.Flags(), "metrics-addr")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.DesktopNotifications, _ = cmd.Flags().GetBool("desktop")
	ring, _ := cmd.Flags().GetDuration("ring")
	logger := buildLogger(cfg.LogLevel, os.Stderr, "watch")

	repo, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := buildEngine(ctx, cfg, repo, logger, os.Stdout)
	if err != nil {
		return err
	}
	defer eng.close()

	telemetry.StartMetricsServer(ctx, cfg.MetricsAddr, logger)
	if err := eng.poller.Start(ctx); err != nil {
		return err
	}
	logger.Info("watching alarms",
		slog.String("db_path", cfg.DBPath),
		slog.Duration("tick_interval", cfg.TickInterval),
		slog.String("dedup_backend", cfg.DedupBackend),
	)

	for f := range eng.poller.C() {
		logger.Info("alarm ringing", slog.String("task_id", f.Task.ID), slog.String("title", f.Task.Title))
		autoDismiss(ctx, eng.controller, f, ring, logger)
	}
	logger.Info("stopped")
	return nil
}

// autoDismiss clears f after ring unless it was already resolved.
func autoDismiss(ctx context.Context, controller *alarm.Controller, f alarm.Firing, ring time.Duration, logger *slog.Logger) {
	if ring <= 0 {
		return
	}
	release := make(chan func() bool, 1)
	timer := time.AfterFunc(ring, func() {
		(<-release)()
		active, ok := controller.Active()
		if !ok || active.Key != f.Key {
			return
		}
		if _, err := controller.Dismiss(); err == nil {
			logger.Info("alarm auto-dismissed", slog.String("task_id", f.Task.ID))
		}
	})
	release <- context.AfterFunc(ctx, func() { timer.Stop() })
}
