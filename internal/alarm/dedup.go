package alarm

import (
	"context"
	"time"

	"github.com/sandeepkv93/routined/internal/model"
)

const dayLayout = "2006-01-02"

// OccurrenceKey identifies one firing of one alarm on one local calendar day.
type OccurrenceKey struct {
	TaskID    string
	AlarmTime string
	Day       string
}

// KeyFor builds the occurrence key of task at the minute containing now.
func KeyFor(task model.Task, now time.Time) OccurrenceKey {
	return OccurrenceKey{
		TaskID:    task.ID,
		AlarmTime: model.ClockString(now),
		Day:       now.Format(dayLayout),
	}
}

func (k OccurrenceKey) String() string {
	return k.Day + "|" + k.AlarmTime + "|" + k.TaskID
}

// Deduplicator remembers which occurrences already fired.
//
// MarkFired is an idempotent insert; it reports whether this call inserted
// the key, so that shared backends can arbitrate between processes.
type Deduplicator interface {
	HasFired(ctx context.Context, key OccurrenceKey) (bool, error)
	MarkFired(ctx context.Context, key OccurrenceKey) (bool, error)
	Reset(ctx context.Context) error
	// Prune evicts keys for calendar days before now's day and returns how many were removed.
	Prune(ctx context.Context, now time.Time) (int, error)
	Len(ctx context.Context) (int, error)
}

// MemoryDeduplicator is the in-process store. It is not safe for concurrent
// use; the poller serializes every call on its own goroutine.
type MemoryDeduplicator struct {
	fired map[OccurrenceKey]struct{}
}

func NewMemoryDeduplicator() *MemoryDeduplicator {
	return &MemoryDeduplicator{fired: make(map[OccurrenceKey]struct{})}
}

func (d *MemoryDeduplicator) HasFired(_ context.Context, key OccurrenceKey) (bool, error) {
	_, ok := d.fired[key]
	return ok, nil
}

func (d *MemoryDeduplicator) MarkFired(_ context.Context, key OccurrenceKey) (bool, error) {
	if _, ok := d.fired[key]; ok {
		return false, nil
	}
	d.fired[key] = struct{}{}
	return true, nil
}

func (d *MemoryDeduplicator) Reset(context.Context) error {
	d.fired = make(map[OccurrenceKey]struct{})
	return nil
}

func (d *MemoryDeduplicator) Prune(_ context.Context, now time.Time) (int, error) {
	today := now.Format(dayLayout)
	removed := 0
	for key := range d.fired {
		if key.Day < today {
			delete(d.fired, key)
			removed++
		}
	}
	return removed, nil
}

func (d *MemoryDeduplicator) Len(context.Context) (int, error) {
	return len(d.fired), nil
}

var _ Deduplicator = (*MemoryDeduplicator)(nil)
