package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrInvalidRepeatDay = errors.New("model: invalid repeat day")

// Weekday is the three-letter token stored in a task's repeat set.
type Weekday string

const (
	Mon Weekday = "Mon"
	Tue Weekday = "Tue"
	Wed Weekday = "Wed"
	Thu Weekday = "Thu"
	Fri Weekday = "Fri"
	Sat Weekday = "Sat"
	Sun Weekday = "Sun"
)

var weekdayTokens = map[time.Weekday]Weekday{
	time.Sunday:    Sun,
	time.Monday:    Mon,
	time.Tuesday:   Tue,
	time.Wednesday: Wed,
	time.Thursday:  Thu,
	time.Friday:    Fri,
	time.Saturday:  Sat,
}

// WeekdayOf maps a time.Weekday to its token.
func WeekdayOf(d time.Weekday) Weekday {
	return weekdayTokens[d]
}

func (w Weekday) IsValid() bool {
	switch w {
	case Mon, Tue, Wed, Thu, Fri, Sat, Sun:
		return true
	default:
		return false
	}
}

func (w Weekday) Weekday() time.Weekday {
	for d, tok := range weekdayTokens {
		if tok == w {
			return d
		}
	}
	return time.Sunday
}

// displayRank orders Monday first, the way the task form lays out the week.
func (w Weekday) displayRank() int {
	return (int(w.Weekday()) + 6) % 7
}

// RepeatDays is the weekly schedule of an alarm. Empty means every day.
type RepeatDays []Weekday

func (r RepeatDays) Validate() error {
	seen := make(map[Weekday]bool, len(r))
	for _, d := range r {
		if !d.IsValid() {
			return fmt.Errorf("%w: %q", ErrInvalidRepeatDay, d)
		}
		if seen[d] {
			return fmt.Errorf("%w: duplicate %q", ErrInvalidRepeatDay, d)
		}
		seen[d] = true
	}
	return nil
}

func (r RepeatDays) Contains(d time.Weekday) bool {
	tok := WeekdayOf(d)
	for _, w := range r {
		if w == tok {
			return true
		}
	}
	return false
}

// Allows reports whether an alarm with this schedule may fire on d.
func (r RepeatDays) Allows(d time.Weekday) bool {
	if len(r) == 0 {
		return true
	}
	return r.Contains(d)
}

func (r RepeatDays) Sorted() RepeatDays {
	out := append(RepeatDays(nil), r...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].displayRank() < out[j].displayRank()
	})
	return out
}

func (r RepeatDays) String() string {
	if len(r) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r))
	for _, d := range r.Sorted() {
		parts = append(parts, string(d))
	}
	return strings.Join(parts, ",")
}

// ParseRepeatDays reads a comma separated list of day names. Besides the
// canonical tokens it accepts full names, "weekdays", "weekends" and "daily".
// A day named twice, directly or through a group, is an error.
func ParseRepeatDays(raw string) (RepeatDays, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" || normalized == "daily" || normalized == "everyday" {
		return RepeatDays{}, nil
	}
	set := make(map[Weekday]bool)
	add := func(token string, days ...Weekday) error {
		for _, d := range days {
			if set[d] {
				return fmt.Errorf("%w: %s listed twice (at %q)", ErrInvalidRepeatDay, d, token)
			}
			set[d] = true
		}
		return nil
	}
	for _, raw := range strings.Split(normalized, ",") {
		token := strings.TrimSpace(raw)
		var err error
		switch token {
		case "weekdays", "weekday":
			err = add(token, Mon, Tue, Wed, Thu, Fri)
		case "weekends", "weekend":
			err = add(token, Sat, Sun)
		case "mon", "monday":
			err = add(token, Mon)
		case "tue", "tuesday":
			err = add(token, Tue)
		case "wed", "wednesday":
			err = add(token, Wed)
		case "thu", "thursday":
			err = add(token, Thu)
		case "fri", "friday":
			err = add(token, Fri)
		case "sat", "saturday":
			err = add(token, Sat)
		case "sun", "sunday":
			err = add(token, Sun)
		case "":
		default:
			err = fmt.Errorf("%w: %q", ErrInvalidRepeatDay, token)
		}
		if err != nil {
			return nil, err
		}
	}
	out := make(RepeatDays, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	return out.Sorted(), nil
}
