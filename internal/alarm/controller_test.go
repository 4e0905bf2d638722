package alarm

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *fakeSink) RequestComplete(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, taskID)
	return s.err
}

func (s *fakeSink) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func firingFor(id string) Firing {
	task := alarmTask(id, "08:00")
	return Firing{Task: task, Key: KeyFor(task, monday0800), At: monday0800}
}

func TestControllerOfferSingleSlot(t *testing.T) {
	c := NewController(nil)
	assert.Equal(t, StateIdle, c.State())

	require.True(t, c.Offer(firingFor("A")))
	assert.False(t, c.Offer(firingFor("B")), "second firing must be rejected while alarming")

	active, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, "A", active.Task.ID)
	assert.Equal(t, StateAlarming, c.State())
}

func TestControllerDismissDoesNotComplete(t *testing.T) {
	sink := &fakeSink{}
	c := NewController(sink)
	require.True(t, c.Offer(firingFor("A")))

	f, err := c.Dismiss()
	require.NoError(t, err)
	assert.Equal(t, "A", f.Task.ID)
	assert.False(t, f.Task.IsCompleted)
	assert.Equal(t, StateIdle, c.State())

	c.Wait()
	assert.Empty(t, sink.Calls())
}

func TestControllerCompleteIssuesOneRequest(t *testing.T) {
	sink := &fakeSink{}
	c := NewController(sink)
	require.True(t, c.Offer(firingFor("A")))

	_, err := c.Complete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, c.State())

	c.Wait()
	assert.Equal(t, []string{"A"}, sink.Calls())

	_, err = c.Complete(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveAlarm)
	c.Wait()
	assert.Len(t, sink.Calls(), 1)
}

func TestControllerCompleteFailureStaysIdle(t *testing.T) {
	sink := &fakeSink{err: errors.New("store offline")}
	var (
		mu       sync.Mutex
		failedID string
	)
	c := NewController(sink, WithCompleteErrorHandler(func(taskID string, err error) {
		mu.Lock()
		failedID = taskID
		mu.Unlock()
	}))
	require.True(t, c.Offer(firingFor("A")))

	_, err := c.Complete(context.Background())
	require.NoError(t, err)
	c.Wait()

	assert.Equal(t, StateIdle, c.State())
	mu.Lock()
	assert.Equal(t, "A", failedID)
	mu.Unlock()
}

func TestControllerCompleteSurvivesCancelledContext(t *testing.T) {
	sink := &fakeSink{}
	c := NewController(sink)
	require.True(t, c.Offer(firingFor("A")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Complete(ctx)
	require.NoError(t, err)
	c.Wait()
	assert.Equal(t, []string{"A"}, sink.Calls())
}

func TestControllerDismissWhenIdle(t *testing.T) {
	c := NewController(nil)
	_, err := c.Dismiss()
	assert.ErrorIs(t, err, ErrNoActiveAlarm)
}

func TestControllerListenerSeesTransitions(t *testing.T) {
	var kinds []TransitionKind
	c := NewController(nil, WithListener(func(tr Transition) {
		kinds = append(kinds, tr.Kind)
	}))
	require.True(t, c.Offer(firingFor("A")))
	_, _ = c.Dismiss()
	require.True(t, c.Offer(firingFor("B")))
	_, _ = c.Complete(context.Background())

	assert.Equal(t, []TransitionKind{TransitionFired, TransitionDismissed, TransitionFired, TransitionCompleted}, kinds)
}
