package alarm

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/sandeepkv93/routined/internal/model"
)

// Firing is one alarm occurrence chosen by the matcher.
type Firing struct {
	Task model.Task
	Key  OccurrenceKey
	At   time.Time
}

// Matcher decides which task, if any, fires at a given instant.
type Matcher struct {
	dedup  Deduplicator
	logger *slog.Logger
}

func NewMatcher(dedup Deduplicator, logger *slog.Logger) *Matcher {
	if dedup == nil {
		dedup = NewMemoryDeduplicator()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Matcher{dedup: dedup, logger: logger}
}

func (m *Matcher) Deduplicator() Deduplicator {
	return m.dedup
}

// Due returns every task whose alarm matches now, in input order, ignoring
// whether the occurrence already fired.
func Due(tasks []model.Task, now time.Time) []model.Task {
	clock := model.ClockString(now)
	weekday := now.Weekday()
	out := make([]model.Task, 0)
	for _, task := range tasks {
		if !task.Eligible() || task.AlarmTime != clock || !task.RepeatDays.Allows(weekday) {
			continue
		}
		out = append(out, task)
	}
	return out
}

// Match scans tasks in order and returns the first one whose occurrence has
// not fired yet, marking it fired. Later matches in the same call are left
// unmarked.
func (m *Matcher) Match(ctx context.Context, tasks []model.Task, now time.Time) (Firing, bool) {
	for _, task := range tasks {
		if task.AlarmEnabled && !task.IsCompleted && !task.Eligible() {
			m.logger.Debug("skipping task with malformed alarm",
				slog.String("task_id", task.ID),
				slog.String("alarm_time", task.AlarmTime),
			)
		}
	}

	for _, task := range Due(tasks, now) {
		key := KeyFor(task, now)
		fired, err := m.dedup.HasFired(ctx, key)
		if err != nil {
			m.logger.Warn("dedup lookup failed", slog.String("task_id", task.ID), slog.String("error", err.Error()))
			continue
		}
		if fired {
			continue
		}
		inserted, err := m.dedup.MarkFired(ctx, key)
		if err != nil {
			m.logger.Warn("dedup mark failed", slog.String("task_id", task.ID), slog.String("error", err.Error()))
			continue
		}
		if !inserted {
			// another poller claimed it between the lookup and the mark
			continue
		}
		return Firing{Task: task, Key: key, At: now}, true
	}
	return Firing{}, false
}
