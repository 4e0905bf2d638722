package alarm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/sandeepkv93/routined/internal/telemetry"
)

var ErrNoActiveAlarm = errors.New("alarm: no active alarm")

const completeTimeout = 10 * time.Second

type State int

const (
	StateIdle State = iota
	StateAlarming
)

func (s State) String() string {
	if s == StateAlarming {
		return "alarming"
	}
	return "idle"
}

// CompletionSink persists "task done" on behalf of the controller.
type CompletionSink interface {
	RequestComplete(ctx context.Context, taskID string) error
}

type TransitionKind string

const (
	TransitionFired     TransitionKind = "fired"
	TransitionDismissed TransitionKind = "dismissed"
	TransitionCompleted TransitionKind = "completed"
)

type Transition struct {
	Kind   TransitionKind
	Firing Firing
}

// Controller holds at most one active firing and resolves it by dismiss or complete.
type Controller struct {
	mu              sync.Mutex
	active          *Firing
	sink            CompletionSink
	logger          *slog.Logger
	onCompleteError func(taskID string, err error)
	listeners       []func(Transition)
	inflight        sync.WaitGroup
}

type ControllerOption func(*Controller)

func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// WithCompleteErrorHandler receives completion failures after the controller
// has already returned to idle.
func WithCompleteErrorHandler(fn func(taskID string, err error)) ControllerOption {
	return func(c *Controller) { c.onCompleteError = fn }
}

func WithListener(fn func(Transition)) ControllerOption {
	return func(c *Controller) { c.listeners = append(c.listeners, fn) }
}

func NewController(sink CompletionSink, opts ...ControllerOption) *Controller {
	c := &Controller{
		sink:   sink,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return StateIdle
	}
	return StateAlarming
}

func (c *Controller) Active() (Firing, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Firing{}, false
	}
	return *c.active, true
}

// Offer moves Idle -> Alarming. It returns false and keeps the current alarm
// when one is already active.
func (c *Controller) Offer(f Firing) bool {
	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return false
	}
	c.active = &f
	c.mu.Unlock()

	telemetry.AlarmsFired.WithLabelValues(string(f.Task.Category)).Inc()
	c.logger.Info("alarm fired",
		slog.String("task_id", f.Task.ID),
		slog.String("alarm_time", f.Key.AlarmTime),
	)
	c.emit(Transition{Kind: TransitionFired, Firing: f})
	return true
}

// Dismiss clears the active alarm without touching the task.
func (c *Controller) Dismiss() (Firing, error) {
	f, err := c.take()
	if err != nil {
		return Firing{}, err
	}
	telemetry.AlarmsResolved.WithLabelValues(string(TransitionDismissed)).Inc()
	c.logger.Info("alarm dismissed", slog.String("task_id", f.Task.ID))
	c.emit(Transition{Kind: TransitionDismissed, Firing: f})
	return f, nil
}

// Complete clears the active alarm and sends one completion request for its
// task. The request runs in the background; a failure does not bring the
// alarm back.
func (c *Controller) Complete(ctx context.Context) (Firing, error) {
	f, err := c.take()
	if err != nil {
		return Firing{}, err
	}
	telemetry.AlarmsResolved.WithLabelValues(string(TransitionCompleted)).Inc()
	c.logger.Info("alarm completed", slog.String("task_id", f.Task.ID))

	if c.sink != nil {
		c.inflight.Add(1)
		go func(taskID string) {
			defer c.inflight.Done()
			reqCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), completeTimeout)
			defer cancel()
			if err := c.sink.RequestComplete(reqCtx, taskID); err != nil {
				telemetry.CompletionFailures.Inc()
				c.logger.Error("completion request failed",
					slog.String("task_id", taskID),
					slog.String("error", err.Error()),
				)
				if c.onCompleteError != nil {
					c.onCompleteError(taskID, err)
				}
			}
		}(f.Task.ID)
	}

	c.emit(Transition{Kind: TransitionCompleted, Firing: f})
	return f, nil
}

// Wait blocks until every completion request started by Complete has returned.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) take() (Firing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Firing{}, ErrNoActiveAlarm
	}
	f := *c.active
	c.active = nil
	return f, nil
}

func (c *Controller) emit(t Transition) {
	for _, fn := range c.listeners {
		fn(t)
	}
}
