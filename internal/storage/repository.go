package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

type Repository interface {
	CreateTask(ctx context.Context, in Task) error
	GetTask(ctx context.Context, id string) (Task, error)
	UpdateTask(ctx context.Context, in Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, filter TaskListFilter) ([]Task, error)

	SetCompleted(ctx context.Context, id string, done bool, at time.Time) error
	SetAlarmEnabled(ctx context.Context, id string, enabled bool) error
	Stats(ctx context.Context) (Stats, error)
}
