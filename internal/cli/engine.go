package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sandeepkv93/routined/internal/alarm"
	"github.com/sandeepkv93/routined/internal/config"
	"github.com/sandeepkv93/routined/internal/notify"
	"github.com/sandeepkv93/routined/internal/scheduler"
	"github.com/sandeepkv93/routined/internal/storage"
)

type engine struct {
	poller     *scheduler.Poller
	controller *alarm.Controller
	close      func()
}

// buildEngine wires store, deduplicator, controller, notifiers and poller.
// bell receives the terminal bell when sound is enabled.
func buildEngine(ctx context.Context, cfg config.Config, repo storage.Repository, logger *slog.Logger, bell io.Writer, opts ...alarm.ControllerOption) (*engine, error) {
	closers := make([]func(), 0, 1)

	var dedup alarm.Deduplicator
	switch cfg.DedupBackend {
	case config.DedupRedis:
		client := alarm.NewRedisClient(cfg.RedisAddr)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		closers = append(closers, func() { _ = client.Close() })
		dedup = alarm.NewRedisDeduplicator(client, "")
		logger.Info("shared dedup enabled", slog.String("redis_addr", cfg.RedisAddr))
	default:
		dedup = alarm.NewMemoryDeduplicator()
	}

	var sinks notify.Multi
	if cfg.DesktopNotifications {
		sinks = append(sinks, notify.Exec{})
	}
	if cfg.SoundEnabled && bell != nil {
		sinks = append(sinks, &notify.Bell{W: bell})
	}
	var notifier notify.Notifier = notify.Noop{}
	if len(sinks) > 0 {
		notifier = sinks
	}

	controllerOpts := append([]alarm.ControllerOption{alarm.WithLogger(logger)}, opts...)
	controller := alarm.NewController(storage.NewCompleter(repo, logger), controllerOpts...)
	poller := scheduler.NewPoller(
		storage.NewSource(repo),
		alarm.NewMatcher(dedup, logger),
		controller,
		scheduler.Options{
			TickInterval:    cfg.TickInterval,
			CleanupInterval: cfg.CleanupInterval,
			BufferSize:      cfg.Buffer,
			Notifier:        notifier,
			Logger:          logger,
		},
	)

	return &engine{
		poller:     poller,
		controller: controller,
		close: func() {
			poller.Stop()
			controller.Wait()
			for _, c := range closers {
				c()
			}
		},
	}, nil
}
