package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/routined/internal/model"
)

func setupRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "routined-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	repo, err := NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	return repo
}

func parseRFC3339(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return out
}

func TestTaskCRUDAndList(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T12:00:00Z")

	task := Task{
		ID:           "task-1",
		Title:        "Morning stretch",
		Description:  "Ten minutes",
		Category:     "morning",
		AlarmEnabled: true,
		AlarmTime:    "07:30",
		RepeatDays:   "Mon,Wed,Fri",
		CreatedAt:    created,
	}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != task.Title || !got.AlarmEnabled || got.AlarmTime != "07:30" || got.RepeatDays != "Mon,Wed,Fri" {
		t.Fatalf("unexpected task get result: %#v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at changed: %v", got.CreatedAt)
	}

	task.Title = "Morning stretch v2"
	task.Category = "evening"
	if err := repo.UpdateTask(ctx, task); err != nil {
		t.Fatalf("update task: %v", err)
	}

	evening, err := repo.ListTasks(ctx, TaskListFilter{Category: "evening"})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(evening) != 1 || evening[0].Title != "Morning stretch v2" {
		t.Fatalf("unexpected evening list: %#v", evening)
	}

	if err := repo.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if _, err := repo.GetTask(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got: %v", err)
	}
	if err := repo.DeleteTask(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got: %v", err)
	}
	if err := repo.UpdateTask(ctx, task); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update of missing task, got: %v", err)
	}
}

func TestListTasksNewestFirstWithFilters(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	base := parseRFC3339(t, "2026-02-09T08:00:00Z")

	for i, id := range []string{"old", "mid", "new"} {
		if err := repo.CreateTask(ctx, Task{
			ID:           id,
			Title:        id,
			Category:     "anytime",
			AlarmEnabled: id != "mid",
			AlarmTime:    "08:00",
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	all, err := repo.ListTasks(ctx, TaskListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "new" || all[1].ID != "mid" || all[2].ID != "old" {
		t.Fatalf("expected newest first, got %v", ids(all))
	}

	enabled := true
	withAlarm, err := repo.ListTasks(ctx, TaskListFilter{AlarmEnabled: &enabled})
	if err != nil {
		t.Fatalf("list enabled: %v", err)
	}
	if len(withAlarm) != 2 {
		t.Fatalf("expected two alarm tasks, got %v", ids(withAlarm))
	}

	page, err := repo.ListTasks(ctx, TaskListFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].ID != "mid" {
		t.Fatalf("unexpected page: %v", ids(page))
	}

	tail, err := repo.ListTasks(ctx, TaskListFilter{Offset: 2})
	if err != nil {
		t.Fatalf("list offset only: %v", err)
	}
	if len(tail) != 1 || tail[0].ID != "old" {
		t.Fatalf("unexpected offset-only page: %v", ids(tail))
	}
}

func TestSetCompletedAndStats(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	created := parseRFC3339(t, "2026-02-09T08:00:00Z")

	for _, row := range []Task{
		{ID: "a", Title: "a", Category: "morning", AlarmEnabled: true, AlarmTime: "07:00", CreatedAt: created},
		{ID: "b", Title: "b", Category: "morning", AlarmEnabled: true, AlarmTime: "07:05", CreatedAt: created},
		{ID: "c", Title: "c", Category: "evening", AlarmTime: "20:00", CreatedAt: created},
	} {
		if err := repo.CreateTask(ctx, row); err != nil {
			t.Fatalf("create %s: %v", row.ID, err)
		}
	}

	doneAt := created.Add(time.Hour)
	if err := repo.SetCompleted(ctx, "a", true, doneAt); err != nil {
		t.Fatalf("set completed: %v", err)
	}
	got, err := repo.GetTask(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsCompleted || got.CompletedAt == nil || !got.CompletedAt.Equal(doneAt) {
		t.Fatalf("unexpected completed task: %#v", got)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 || stats.Pending != 2 || stats.Completed != 1 || stats.ActiveAlarms != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := repo.SetCompleted(ctx, "a", false, time.Time{}); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, _ = repo.GetTask(ctx, "a")
	if got.IsCompleted || got.CompletedAt != nil {
		t.Fatalf("reopened task still completed: %#v", got)
	}

	if err := repo.SetAlarmEnabled(ctx, "c", true); err != nil {
		t.Fatalf("enable alarm: %v", err)
	}
	stats, _ = repo.Stats(ctx)
	if stats.ActiveAlarms != 3 {
		t.Fatalf("expected three active alarms, got %+v", stats)
	}

	if err := repo.SetCompleted(ctx, "missing", true, doneAt); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.SetAlarmEnabled(ctx, "missing", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRowModelConversion(t *testing.T) {
	created := parseRFC3339(t, "2026-02-09T08:00:00Z")
	task := model.Task{
		ID:           "t",
		Title:        "Water plants",
		Category:     model.CategoryEvening,
		AlarmEnabled: true,
		AlarmTime:    "19:00",
		RepeatDays:   model.RepeatDays{model.Sun, model.Wed},
		CreatedAt:    created,
	}
	row := FromModel(task)
	if row.RepeatDays != "Wed,Sun" {
		t.Fatalf("expected canonical repeat days, got %q", row.RepeatDays)
	}
	back := row.ToModel()
	if back.Title != task.Title || len(back.RepeatDays) != 2 || !back.RepeatDays.Contains(time.Sunday) {
		t.Fatalf("unexpected conversion: %#v", back)
	}

	blank := Task{ID: "x", Title: "x", AlarmTime: "oops"}.ToModel()
	if blank.Category != model.CategoryAnytime || len(blank.RepeatDays) != 0 {
		t.Fatalf("unexpected defaults: %#v", blank)
	}
	if blank.Eligible() {
		t.Fatal("row with malformed alarm must not be eligible")
	}
}

func ids(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}
