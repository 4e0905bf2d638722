package model

import (
	"errors"
	"testing"
	"time"
)

func TestTaskValidateSuccess(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:           "task-1",
		Title:        "Stretch",
		Category:     CategoryMorning,
		AlarmEnabled: true,
		AlarmTime:    "07:30",
		RepeatDays:   RepeatDays{Mon, Wed, Fri},
		CreatedAt:    now,
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateCompletedRequiresCompletedAt(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:          "task-1",
		Title:       "Done task",
		Category:    CategoryAnytime,
		AlarmTime:   "08:00",
		IsCompleted: true,
		CreatedAt:   now,
	}
	err := task.Validate()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "model: completed_at is required when task is completed" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTaskValidateInvalidFields(t *testing.T) {
	now := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:        "task-1",
		Title:     "Bad category",
		Category:  Category("night"),
		AlarmTime: "08:00",
		CreatedAt: now,
	}
	if err := task.Validate(); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got: %v", err)
	}

	task.Category = CategoryEvening
	task.AlarmTime = "8:00"
	if err := task.Validate(); !errors.Is(err, ErrInvalidAlarmTime) {
		t.Fatalf("expected ErrInvalidAlarmTime, got: %v", err)
	}

	task.AlarmTime = "20:00"
	task.RepeatDays = RepeatDays{Mon, Mon}
	if err := task.Validate(); !errors.Is(err, ErrInvalidRepeatDay) {
		t.Fatalf("expected ErrInvalidRepeatDay, got: %v", err)
	}
}

func TestParseAlarmTime(t *testing.T) {
	cases := []struct {
		in     string
		hour   int
		minute int
		ok     bool
	}{
		{"00:00", 0, 0, true},
		{"08:05", 8, 5, true},
		{"23:59", 23, 59, true},
		{"24:00", 0, 0, false},
		{"12:60", 0, 0, false},
		{"7:30", 0, 0, false},
		{"07.30", 0, 0, false},
		{"", 0, 0, false},
		{"ab:cd", 0, 0, false},
		{"07:30:00", 0, 0, false},
	}
	for _, tc := range cases {
		h, m, err := ParseAlarmTime(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if !tc.ok {
			if !errors.Is(err, ErrInvalidAlarmTime) {
				t.Fatalf("parse %q: expected ErrInvalidAlarmTime, got %v", tc.in, err)
			}
			continue
		}
		if h != tc.hour || m != tc.minute {
			t.Fatalf("parse %q = %02d:%02d", tc.in, h, m)
		}
	}
}

func TestTaskEligible(t *testing.T) {
	base := Task{ID: "t", Title: "x", AlarmEnabled: true, AlarmTime: "08:00"}
	if !base.Eligible() {
		t.Fatal("expected enabled, open task with valid time to be eligible")
	}

	disabled := base
	disabled.AlarmEnabled = false
	if disabled.Eligible() {
		t.Fatal("disabled alarm must not be eligible")
	}

	done := base
	done.IsCompleted = true
	if done.Eligible() {
		t.Fatal("completed task must not be eligible")
	}

	malformed := base
	malformed.AlarmTime = "8am"
	if malformed.Eligible() {
		t.Fatal("malformed alarm time must not be eligible")
	}
}

func TestTaskCronSpec(t *testing.T) {
	task := Task{AlarmTime: "07:05"}
	spec, err := task.CronSpec()
	if err != nil {
		t.Fatalf("cron spec failed: %v", err)
	}
	if spec != "5 7 * * *" {
		t.Fatalf("unexpected daily spec: %q", spec)
	}

	task.RepeatDays = RepeatDays{Sun, Mon, Sat}
	spec, err = task.CronSpec()
	if err != nil {
		t.Fatalf("cron spec failed: %v", err)
	}
	if spec != "5 7 * * 1,6,0" {
		t.Fatalf("unexpected weekly spec: %q", spec)
	}
}

func TestClockString(t *testing.T) {
	at := time.Date(2026, 2, 9, 8, 3, 59, 0, time.UTC)
	if got := ClockString(at); got != "08:03" {
		t.Fatalf("unexpected clock string: %q", got)
	}
}
