package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/routined/internal/alarm"
	"github.com/sandeepkv93/routined/internal/model"
	"github.com/sandeepkv93/routined/internal/notify"
)

// 2026-02-09 is a Monday.
var monday0800 = time.Date(2026, 2, 9, 8, 0, 0, 0, time.Local)

type completions struct {
	mu  sync.Mutex
	ids []string
}

func (c *completions) RequestComplete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, id)
	return nil
}

func (c *completions) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ids...)
}

func routine(id, at string) model.Task {
	return model.Task{
		ID:           id,
		Title:        "routine " + id,
		Category:     model.CategoryAnytime,
		AlarmEnabled: true,
		AlarmTime:    at,
	}
}

func staticSource(tasks ...model.Task) TaskSource {
	return TaskSourceFunc(func(context.Context) ([]model.Task, error) {
		return tasks, nil
	})
}

func newTestPoller(src TaskSource, clock alarm.Clock, rec notify.Notifier, sink alarm.CompletionSink) *Poller {
	return NewPoller(src, alarm.NewMatcher(nil, nil), alarm.NewController(sink), Options{
		TickInterval:    5 * time.Millisecond,
		CleanupInterval: 20 * time.Millisecond,
		BufferSize:      8,
		Clock:           clock,
		Notifier:        rec,
	})
}

func TestTickFiresAndNotifies(t *testing.T) {
	rec := notify.NewRecorder()
	clock := alarm.NewFakeClock(monday0800)
	p := newTestPoller(staticSource(routine("1", "08:00")), clock, rec, nil)

	f, ok := p.Tick(context.Background())
	require.True(t, ok)
	assert.Equal(t, "1", f.Task.ID)

	active, ok := p.Controller().Active()
	require.True(t, ok)
	assert.Equal(t, "1", active.Task.ID)

	select {
	case n := <-rec.C:
		assert.Equal(t, "⏰ routine 1", n.Title)
	case <-time.After(time.Second):
		t.Fatal("notification was not presented")
	}
}

func TestTickHoldsSingleActiveFiring(t *testing.T) {
	clock := alarm.NewFakeClock(monday0800)
	p := newTestPoller(staticSource(routine("A", "08:00"), routine("B", "08:00")), clock, nil, nil)

	f, ok := p.Tick(context.Background())
	require.True(t, ok)
	assert.Equal(t, "A", f.Task.ID)

	clock.Advance(time.Second)
	_, ok = p.Tick(context.Background())
	assert.False(t, ok, "B must wait while A is alarming")

	_, err := p.Controller().Dismiss()
	require.NoError(t, err)

	clock.Advance(time.Second)
	f, ok = p.Tick(context.Background())
	require.True(t, ok)
	assert.Equal(t, "B", f.Task.ID)

	_, _ = p.Controller().Dismiss()
	clock.Advance(time.Second)
	_, ok = p.Tick(context.Background())
	assert.False(t, ok, "both occurrences already fired this minute")
}

func TestTickCompleteRequestsOnce(t *testing.T) {
	sink := &completions{}
	clock := alarm.NewFakeClock(monday0800)
	p := newTestPoller(staticSource(routine("1", "08:00"), routine("2", "09:00")), clock, nil, sink)

	_, ok := p.Tick(context.Background())
	require.True(t, ok)

	_, err := p.Controller().Complete(context.Background())
	require.NoError(t, err)
	p.Controller().Wait()

	assert.Equal(t, alarm.StateIdle, p.Controller().State())
	assert.Equal(t, []string{"1"}, sink.IDs())
}

func TestTickSkipsOnSourceError(t *testing.T) {
	src := TaskSourceFunc(func(context.Context) ([]model.Task, error) {
		return nil, errors.New("store offline")
	})
	p := newTestPoller(src, alarm.NewFakeClock(monday0800), nil, nil)
	_, ok := p.Tick(context.Background())
	assert.False(t, ok)
}

func TestPollerDeliversFiringsAndStops(t *testing.T) {
	var calls atomic.Int64
	src := TaskSourceFunc(func(context.Context) ([]model.Task, error) {
		calls.Add(1)
		return []model.Task{routine("1", "08:00")}, nil
	})
	p := newTestPoller(src, alarm.NewFakeClock(monday0800), nil, nil)
	require.NoError(t, p.Start(context.Background()))

	select {
	case f := <-p.C():
		assert.Equal(t, "1", f.Task.ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for firing")
	}

	_, _ = p.Controller().Dismiss()
	time.Sleep(30 * time.Millisecond)
	p.Stop()

	seen := calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, seen, calls.Load(), "no ticks after Stop")

	_, open := <-p.C()
	assert.False(t, open, "C is closed after Stop")
	assert.ErrorIs(t, p.Start(context.Background()), ErrPollerStopped)
}

func TestPollerStopsWithContext(t *testing.T) {
	p := newTestPoller(staticSource(), alarm.NewFakeClock(monday0800), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))
	cancel()

	select {
	case _, open := <-p.C():
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on context cancel")
	}
	p.Stop()
}

func TestStopBeforeStart(t *testing.T) {
	p := newTestPoller(staticSource(), alarm.NewFakeClock(monday0800), nil, nil)
	p.Stop()
	_, open := <-p.C()
	assert.False(t, open)
}

func TestTickAfterStopDoesNothing(t *testing.T) {
	rec := notify.NewRecorder()
	p := newTestPoller(staticSource(routine("1", "08:00")), alarm.NewFakeClock(monday0800), rec, nil)
	p.Stop()

	require.NotPanics(t, func() {
		_, ok := p.Tick(context.Background())
		assert.False(t, ok)
	})
	_, active := p.Controller().Active()
	assert.False(t, active, "no firing offered after Stop")
	assert.Empty(t, rec.Sent())
}

func TestTickAfterContextShutdownDoesNothing(t *testing.T) {
	p := newTestPoller(staticSource(), alarm.NewFakeClock(monday0800), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))
	cancel()
	for range p.C() {
	}

	p.source = staticSource(routine("1", "08:00"))
	require.NotPanics(t, func() {
		_, ok := p.Tick(context.Background())
		assert.False(t, ok)
	})
}

func TestCleanupPrunesPreviousDays(t *testing.T) {
	dedup := alarm.NewMemoryDeduplicator()
	clock := alarm.NewFakeClock(monday0800)
	p := NewPoller(staticSource(routine("1", "08:00")), alarm.NewMatcher(dedup, nil), alarm.NewController(nil), Options{Clock: clock})

	_, ok := p.Tick(context.Background())
	require.True(t, ok)
	_, _ = p.Controller().Dismiss()

	p.Cleanup(context.Background())
	n, _ := dedup.Len(context.Background())
	assert.Equal(t, 1, n, "same-day key survives cleanup")

	clock.Advance(24 * time.Hour)
	p.Cleanup(context.Background())
	n, _ = dedup.Len(context.Background())
	assert.Zero(t, n)
}

func TestDroppedWhenConsumerIsSlow(t *testing.T) {
	clock := alarm.NewFakeClock(monday0800)
	tasks := []model.Task{routine("1", "08:00"), routine("2", "08:00"), routine("3", "08:00")}
	p := NewPoller(staticSource(tasks...), alarm.NewMatcher(nil, nil), alarm.NewController(nil), Options{Clock: clock, BufferSize: 1})

	for i := 0; i < 3; i++ {
		_, ok := p.Tick(context.Background())
		require.True(t, ok)
		_, _ = p.Controller().Dismiss()
	}
	assert.Equal(t, uint64(2), p.Dropped())
}
