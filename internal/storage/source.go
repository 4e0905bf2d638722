package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sandeepkv93/routined/internal/model"
	"github.com/sandeepkv93/routined/internal/retry"
)

// Source exposes the repository as the poller's task list.
type Source struct {
	repo Repository
}

func NewSource(repo Repository) *Source {
	return &Source{repo: repo}
}

func (s *Source) List(ctx context.Context) ([]model.Task, error) {
	rows, err := s.repo.ListTasks(ctx, TaskListFilter{})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToModel())
	}
	return out, nil
}

// Completer persists completions requested by the alarm controller.
type Completer struct {
	repo   Repository
	logger *slog.Logger
	Retry  retry.Config
	Now    func() time.Time
}

func NewCompleter(repo Repository, logger *slog.Logger) *Completer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Completer{
		repo:   repo,
		logger: logger,
		Retry:  retry.Config{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond},
		Now:    time.Now,
	}
}

// RequestComplete marks the task completed. Transient failures such as a
// locked database are retried; a missing task is not.
func (c *Completer) RequestComplete(ctx context.Context, taskID string) error {
	cfg := c.Retry
	cfg.OnRetry = func(attempt int, err error) {
		c.logger.Warn("completion retry",
			slog.String("task_id", taskID),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
	}

	var missing error
	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		err := c.repo.SetCompleted(ctx, taskID, true, c.Now())
		if errors.Is(err, ErrNotFound) {
			missing = err
			return nil
		}
		return err
	})
	if missing != nil {
		return fmt.Errorf("complete %s: %w", taskID, missing)
	}
	if err != nil {
		return fmt.Errorf("complete %s: %w", taskID, err)
	}
	return nil
}

// AddTask fills in id, creation time and completion time when absent, validates and inserts.
func AddTask(ctx context.Context, repo Repository, t model.Task, now time.Time) (model.Task, error) {
	if t.ID == "" {
		t.ID = NewTaskID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.Category == "" {
		t.Category = model.CategoryAnytime
	}
	if t.IsCompleted && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	if err := t.Validate(); err != nil {
		return model.Task{}, err
	}
	if err := repo.CreateTask(ctx, FromModel(t)); err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

// EditTask loads a task, applies change, validates and writes it back.
func EditTask(ctx context.Context, repo Repository, id string, change func(*model.Task)) (model.Task, error) {
	row, err := repo.GetTask(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	t := row.ToModel()
	change(&t)
	if err := t.Validate(); err != nil {
		return model.Task{}, err
	}
	if err := repo.UpdateTask(ctx, FromModel(t)); err != nil {
		return model.Task{}, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}
