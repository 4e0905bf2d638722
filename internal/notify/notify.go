package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/sandeepkv93/routined/internal/model"
	"github.com/sandeepkv93/routined/internal/telemetry"
)

const defaultBody = "Time for your routine task!"

type Notification struct {
	Title string
	Body  string
}

// ForTask builds the alarm notification for a task.
func ForTask(t model.Task) Notification {
	body := strings.TrimSpace(t.Description)
	if body == "" {
		body = defaultBody
	}
	return Notification{Title: "⏰ " + t.Title, Body: body}
}

// Notifier presents a notification outside the process. Implementations are
// best effort; callers never treat an error as fatal.
type Notifier interface {
	Present(ctx context.Context, n Notification) error
	Name() string
}

type Noop struct{}

func (Noop) Present(context.Context, Notification) error { return nil }
func (Noop) Name() string                                 { return "noop" }

// Exec shells out to the platform notifier.
type Exec struct{}

func (Exec) Name() string { return "desktop" }

func (Exec) Present(ctx context.Context, n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.CommandContext(ctx, "notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.CommandContext(ctx, "osascript", "-e", script).Run()
	default:
		return nil
	}
}

// Bell rings the terminal bell, the TUI's stand-in for an alarm sound.
type Bell struct {
	mu sync.Mutex
	W  io.Writer
}

func (b *Bell) Name() string { return "sound" }

func (b *Bell) Present(context.Context, Notification) error {
	if b.W == nil {
		return errors.New("notify: bell has no writer")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := io.WriteString(b.W, "\a")
	return err
}

// Multi fans out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Name() string {
	names := make([]string, 0, len(m))
	for _, n := range m {
		names = append(names, n.Name())
	}
	return strings.Join(names, "+")
}

func (m Multi) Present(ctx context.Context, n Notification) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Present(ctx, n); err != nil {
			telemetry.NotificationFailures.WithLabelValues(sink.Name()).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Dispatch presents n in the background. Errors are logged and dropped so a
// missing notifier or a denied permission never reaches the tick loop.
func Dispatch(ctx context.Context, sink Notifier, n Notification, logger *slog.Logger) {
	if sink == nil {
		return
	}
	go func() {
		if err := sink.Present(context.WithoutCancel(ctx), n); err != nil {
			if _, multi := sink.(Multi); !multi {
				telemetry.NotificationFailures.WithLabelValues(sink.Name()).Inc()
			}
			if logger != nil {
				logger.Warn("notification failed",
					slog.String("sink", sink.Name()),
					slog.String("error", err.Error()),
				)
			}
		}
	}()
}

func escapeAppleScript(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Recorder keeps every notification it is asked to present.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
	Err  error
	C    chan Notification
}

func NewRecorder() *Recorder {
	return &Recorder{C: make(chan Notification, 16)}
}

func (r *Recorder) Name() string { return "recorder" }

func (r *Recorder) Present(_ context.Context, n Notification) error {
	r.mu.Lock()
	r.sent = append(r.sent, n)
	r.mu.Unlock()
	select {
	case r.C <- n:
	default:
	}
	return r.Err
}

func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}
