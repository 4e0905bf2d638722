package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/routined/internal/alarm"
	"github.com/sandeepkv93/routined/internal/model"
	"github.com/sandeepkv93/routined/internal/notify"
	"github.com/sandeepkv93/routined/internal/telemetry"
)

const (
	DefaultTickInterval    = time.Second
	DefaultCleanupInterval = time.Minute
)

var ErrPollerStopped = errors.New("scheduler: poller stopped")

// TaskSource supplies the current task list, in display order.
type TaskSource interface {
	List(ctx context.Context) ([]model.Task, error)
}

// TaskSourceFunc adapts a function to TaskSource.
type TaskSourceFunc func(ctx context.Context) ([]model.Task, error)

func (f TaskSourceFunc) List(ctx context.Context) ([]model.Task, error) { return f(ctx) }

type Options struct {
	TickInterval    time.Duration
	CleanupInterval time.Duration
	BufferSize      int
	Clock           alarm.Clock
	Notifier        notify.Notifier
	Logger          *slog.Logger
}

// Poller drives the matcher from a fixed-period ticker and hands firings to
// the controller. Match and cleanup ticks share one goroutine, so they never
// overlap and the deduplicator needs no locking.
type Poller struct {
	source     TaskSource
	matcher    *alarm.Matcher
	controller *alarm.Controller
	notifier   notify.Notifier
	clock      alarm.Clock
	logger     *slog.Logger
	tick       time.Duration
	cleanup    time.Duration

	mu      sync.Mutex
	out     chan alarm.Firing
	cancel  context.CancelFunc
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewPoller(source TaskSource, matcher *alarm.Matcher, controller *alarm.Controller, opts Options) *Poller {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = DefaultCleanupInterval
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1
	}
	if opts.Clock == nil {
		opts.Clock = alarm.RealClock{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Noop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Poller{
		source:     source,
		matcher:    matcher,
		controller: controller,
		notifier:   opts.Notifier,
		clock:      opts.Clock,
		logger:     opts.Logger,
		tick:       opts.TickInterval,
		cleanup:    opts.CleanupInterval,
		out:        make(chan alarm.Firing, opts.BufferSize),
		doneCh:     make(chan struct{}),
	}
}

// C delivers every firing the controller accepted. It is closed after Stop.
func (p *Poller) C() <-chan alarm.Firing {
	return p.out
}

func (p *Poller) Controller() *alarm.Controller {
	return p.controller
}

// Start launches the tick loop. It evaluates once immediately, then on every
// tick until ctx is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrPollerStopped
	}
	if p.started {
		return nil
	}
	p.started = true
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go p.loop(runCtx)
	return nil
}

// Stop cancels both tickers and waits for the loop to exit. No tick runs after
// Stop returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	if !p.started {
		p.stopped = true
		close(p.out)
		close(p.doneCh)
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.cancel()
	p.mu.Unlock()
	<-p.doneCh
}

func (p *Poller) Dropped() uint64 {
	return atomic.LoadUint64(&p.dropped)
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.doneCh)
	defer func() {
		p.mu.Lock()
		p.stopped = true
		close(p.out)
		p.mu.Unlock()
	}()

	matchTicker := time.NewTicker(p.tick)
	defer matchTicker.Stop()
	cleanupTicker := time.NewTicker(p.cleanup)
	defer cleanupTicker.Stop()

	p.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-matchTicker.C:
			p.Tick(ctx)
		case <-cleanupTicker.C:
			p.Cleanup(ctx)
		}
	}
}

// Tick runs one evaluation and returns the firing it produced, if any.
// After Stop it does nothing.
func (p *Poller) Tick(ctx context.Context) (alarm.Firing, bool) {
	if ctx.Err() != nil || p.isStopped() {
		return alarm.Firing{}, false
	}
	telemetry.PollerTicks.Inc()
	if p.controller.State() == alarm.StateAlarming {
		return alarm.Firing{}, false
	}

	now := p.clock.Now()
	tasks, err := p.source.List(ctx)
	if err != nil {
		telemetry.PollerSourceErrors.Inc()
		p.logger.Error("list tasks", slog.String("error", err.Error()))
		return alarm.Firing{}, false
	}

	firing, ok := p.matcher.Match(ctx, tasks, now)
	if !ok {
		return alarm.Firing{}, false
	}
	if !p.controller.Offer(firing) {
		// resolved concurrently between the state check and the offer; the
		// occurrence is already marked, so it is logged rather than lost silently
		p.logger.Warn("firing not accepted", slog.String("task_id", firing.Task.ID))
		return alarm.Firing{}, false
	}

	notify.Dispatch(ctx, p.notifier, notify.ForTask(firing.Task), p.logger)
	p.publish(firing)
	return firing, true
}

func (p *Poller) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// publish hands f to C without blocking. It holds mu so Stop cannot close the
// channel mid-send.
func (p *Poller) publish(f alarm.Firing) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	select {
	case p.out <- f:
	default:
		atomic.AddUint64(&p.dropped, 1)
		telemetry.PollerDroppedEvents.Inc()
	}
}

// Cleanup evicts occurrence keys from previous days.
func (p *Poller) Cleanup(ctx context.Context) {
	dedup := p.matcher.Deduplicator()
	removed, err := dedup.Prune(ctx, p.clock.Now())
	if err != nil {
		p.logger.Warn("dedup prune", slog.String("error", err.Error()))
		return
	}
	if n, err := dedup.Len(ctx); err == nil {
		telemetry.DedupKeys.Set(float64(n))
	}
	if removed > 0 {
		p.logger.Debug("dedup pruned", slog.Int("removed", removed))
	}
}
