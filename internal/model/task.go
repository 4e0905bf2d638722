package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidCategory  = errors.New("model: invalid task category")
	ErrInvalidAlarmTime = errors.New("model: invalid alarm time")
)

type Category string

const (
	CategoryMorning   Category = "morning"
	CategoryAfternoon Category = "afternoon"
	CategoryEvening   Category = "evening"
	CategoryAnytime   Category = "anytime"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryMorning, CategoryAfternoon, CategoryEvening, CategoryAnytime:
		return true
	default:
		return false
	}
}

// Categories lists the buckets in display order.
func Categories() []Category {
	return []Category{CategoryMorning, CategoryAfternoon, CategoryEvening, CategoryAnytime}
}

// Task is one routine. Category is presentational only; the alarm fields drive matching.
type Task struct {
	ID           string
	Title        string
	Description  string
	Category     Category
	AlarmEnabled bool
	AlarmTime    string
	RepeatDays   RepeatDays
	IsCompleted  bool
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.New("model: task title is required")
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, t.Category)
	}
	if _, _, err := ParseAlarmTime(t.AlarmTime); err != nil {
		return err
	}
	if err := t.RepeatDays.Validate(); err != nil {
		return err
	}
	if t.CreatedAt.IsZero() {
		return errors.New("model: task created_at is required")
	}
	if t.IsCompleted && t.CompletedAt == nil {
		return errors.New("model: completed_at is required when task is completed")
	}
	if !t.IsCompleted && t.CompletedAt != nil {
		return errors.New("model: completed_at must be nil when task is not completed")
	}
	return nil
}

// Eligible reports whether the task takes part in alarm matching at all.
func (t Task) Eligible() bool {
	if !t.AlarmEnabled || t.IsCompleted {
		return false
	}
	_, _, err := ParseAlarmTime(t.AlarmTime)
	return err == nil
}

// CronSpec renders the alarm as a standard five-field cron expression.
func (t Task) CronSpec() (string, error) {
	hour, minute, err := ParseAlarmTime(t.AlarmTime)
	if err != nil {
		return "", err
	}
	dow := "*"
	if len(t.RepeatDays) > 0 {
		parts := make([]string, 0, len(t.RepeatDays))
		for _, d := range t.RepeatDays.Sorted() {
			parts = append(parts, fmt.Sprintf("%d", int(d.Weekday())))
		}
		dow = strings.Join(parts, ",")
	}
	return fmt.Sprintf("%d %d * * %s", minute, hour, dow), nil
}

// ParseAlarmTime accepts the strict 24-hour "HH:MM" form.
func ParseAlarmTime(raw string) (hour, minute int, err error) {
	if len(raw) != 5 || raw[2] != ':' {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAlarmTime, raw)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if raw[i] < '0' || raw[i] > '9' {
			return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAlarmTime, raw)
		}
	}
	hour = int(raw[0]-'0')*10 + int(raw[1]-'0')
	minute = int(raw[3]-'0')*10 + int(raw[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAlarmTime, raw)
	}
	return hour, minute, nil
}

// ClockString formats t as the "HH:MM" string alarms are compared against.
func ClockString(t time.Time) string {
	return t.Format("15:04")
}
