package update

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sandeepkv93/routined/internal/model"
	"github.com/sandeepkv93/routined/internal/storage"
)

var errNoSelection = errors.New("no task selected")

// refresh reloads every task and the counters from the store.
func (m *Model) refresh() {
	if m.repo == nil {
		return
	}
	rows, err := m.repo.ListTasks(m.ctx, storage.TaskListFilter{})
	if err != nil {
		m.fail(fmt.Errorf("load tasks: %w", err))
		return
	}
	stats, err := m.repo.Stats(m.ctx)
	if err != nil {
		m.fail(fmt.Errorf("load stats: %w", err))
		return
	}
	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.ToModel())
	}
	m.Tasks = tasks
	m.Stats = stats
	m.clampCursor()
}

// Visible returns the tasks that pass the category filter, in list order.
func (m Model) Visible() []model.Task {
	if m.Filter == "" {
		return m.Tasks
	}
	out := make([]model.Task, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		if t.Category == m.Filter {
			out = append(out, t)
		}
	}
	return out
}

func (m Model) Selected() (model.Task, bool) {
	visible := m.Visible()
	if m.Cursor < 0 || m.Cursor >= len(visible) {
		return model.Task{}, false
	}
	return visible[m.Cursor], true
}

func (m *Model) moveCursor(delta int) {
	m.Cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.Visible())
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m *Model) cycleFilter() {
	order := append([]model.Category{""}, model.Categories()...)
	for i, c := range order {
		if c == m.Filter {
			m.Filter = order[(i+1)%len(order)]
			break
		}
	}
	m.Cursor = 0
	label := string(m.Filter)
	if label == "" {
		label = "all"
	}
	m.Status = StatusBar{Text: "filter: " + label}
}

func (m *Model) setCompleted(task model.Task, done bool) error {
	if m.repo == nil {
		return errors.New("no task store configured")
	}
	if err := m.repo.SetCompleted(m.ctx, task.ID, done, m.clock.Now()); err != nil {
		return fmt.Errorf("update %q: %w", task.Title, err)
	}
	m.logger.Info("task completion toggled", slog.String("task_id", task.ID), slog.Bool("done", done))
	m.refresh()
	return nil
}

func (m *Model) toggleSelectedCompleted() error {
	task, ok := m.Selected()
	if !ok {
		return errNoSelection
	}
	return m.setCompleted(task, !task.IsCompleted)
}

func (m *Model) setAlarm(task model.Task, enabled bool) error {
	if m.repo == nil {
		return errors.New("no task store configured")
	}
	if err := m.repo.SetAlarmEnabled(m.ctx, task.ID, enabled); err != nil {
		return fmt.Errorf("update %q: %w", task.Title, err)
	}
	m.refresh()
	return nil
}

func (m *Model) toggleSelectedAlarm() error {
	task, ok := m.Selected()
	if !ok {
		return errNoSelection
	}
	return m.setAlarm(task, !task.AlarmEnabled)
}

// markCompletedLocally updates the in-memory copy ahead of the store so the
// list reflects a completion that is still being persisted.
func (m *Model) markCompletedLocally(taskID string) {
	now := m.clock.Now()
	for i := range m.Tasks {
		if m.Tasks[i].ID == taskID && !m.Tasks[i].IsCompleted {
			m.Tasks[i].IsCompleted = true
			m.Tasks[i].CompletedAt = &now
			m.Stats.Pending--
			m.Stats.Completed++
			if m.Tasks[i].AlarmEnabled {
				m.Stats.ActiveAlarms--
			}
		}
	}
}

// resolveTask finds a task by full id or unique id prefix.
func (m Model) resolveTask(target string) (model.Task, error) {
	target = strings.TrimSpace(target)
	var found []model.Task
	for _, t := range m.Tasks {
		if t.ID == target {
			return t, nil
		}
		if strings.HasPrefix(t.ID, target) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return model.Task{}, fmt.Errorf("no task matches %q", target)
	case 1:
		return found[0], nil
	default:
		return model.Task{}, fmt.Errorf("%q matches %d tasks", target, len(found))
	}
}

func (m *Model) fail(err error) {
	m.LastError = err
	m.Status = StatusBar{Text: err.Error(), IsError: true}
	m.logger.Error("tui", slog.String("error", err.Error()))
}
