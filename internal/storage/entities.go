package storage

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sandeepkv93/routined/internal/model"
)

// Task is the row shape of the tasks table. RepeatDays holds the canonical
// comma separated tokens, e.g. "Mon,Wed,Fri".
type Task struct {
	ID           string
	Title        string
	Description  string
	Category     string
	AlarmEnabled bool
	AlarmTime    string
	RepeatDays   string
	IsCompleted  bool
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

type TaskListFilter struct {
	Category     string
	Completed    *bool
	AlarmEnabled *bool
	Limit        int
	Offset       int
}

// Stats are the counters shown above the task list.
type Stats struct {
	Total        int
	Pending      int
	Completed    int
	ActiveAlarms int
}

func NewTaskID() string {
	return uuid.NewString()
}

// FromModel converts a domain task into its row.
func FromModel(t model.Task) Task {
	return Task{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Category:     string(t.Category),
		AlarmEnabled: t.AlarmEnabled,
		AlarmTime:    t.AlarmTime,
		RepeatDays:   t.RepeatDays.String(),
		IsCompleted:  t.IsCompleted,
		CreatedAt:    t.CreatedAt,
		CompletedAt:  t.CompletedAt,
	}
}

// ToModel converts a row into a domain task. It does not validate: a row
// with a malformed alarm still reaches the matcher, which skips it.
func (t Task) ToModel() model.Task {
	var days model.RepeatDays
	for _, tok := range strings.Split(t.RepeatDays, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			days = append(days, model.Weekday(tok))
		}
	}
	category := model.Category(t.Category)
	if category == "" {
		category = model.CategoryAnytime
	}
	return model.Task{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Category:     category,
		AlarmEnabled: t.AlarmEnabled,
		AlarmTime:    t.AlarmTime,
		RepeatDays:   days,
		IsCompleted:  t.IsCompleted,
		CreatedAt:    t.CreatedAt,
		CompletedAt:  t.CompletedAt,
	}
}
