package alarm

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sandeepkv93/routined/internal/model"
)

var ErrNotScheduled = errors.New("alarm: task has no active alarm")

// NextFire returns the first alarm instant strictly after now, in now's location.
func NextFire(task model.Task, now time.Time) (time.Time, error) {
	if !task.Eligible() {
		return time.Time{}, ErrNotScheduled
	}
	spec, err := task.CronSpec()
	if err != nil {
		return time.Time{}, err
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron %q for task %s: %w", spec, task.ID, err)
	}
	return schedule.Next(now), nil
}

type Upcoming struct {
	Task model.Task
	At   time.Time
}

// UpcomingAlarms lists the next firing of every eligible task, soonest first.
func UpcomingAlarms(tasks []model.Task, now time.Time, limit int) []Upcoming {
	out := make([]Upcoming, 0, len(tasks))
	for _, task := range tasks {
		at, err := NextFire(task, now)
		if err != nil {
			continue
		}
		out = append(out, Upcoming{Task: task, At: at})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].At.Before(out[j].At)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
