package monitoring

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/isdelr/mediinsight-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 0
}

type recordedEvent struct {
	eventType, level, message string
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingEvents) CreateEvent(_ context.Context, eventType, level, message string, _ *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{eventType, level, message})
	return nil
}

func (r *recordingEvents) GetRecentEvents(context.Context, int) ([]models.Event, error) {
	return nil, nil
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	_, err := NewScheduler(&countingSweeper{}, "not a schedule")
	require.Error(t, err)
}

func TestScheduler_RunsSweep(t *testing.T) {
	sweeper := &countingSweeper{}
	s, err := NewScheduler(sweeper, "@every 1s")
	require.NoError(t, err)

	s.Run()
	t.Cleanup(s.Stop)

	assert.Eventually(t, func() bool { return sweeper.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestStatUpdater_StoresLatestSample(t *testing.T) {
	want := models.SystemStats{CPUPercent: 12.5, MemoryPercent: 40, UptimeSeconds: 3600}
	su := NewStatUpdater(func(context.Context) (models.SystemStats, error) { return want, nil }, nil, time.Second)

	su.update()

	assert.Equal(t, want, su.Latest())
}

func TestStatUpdater_SampleErrorKeepsPrevious(t *testing.T) {
	first := true
	su := NewStatUpdater(func(context.Context) (models.SystemStats, error) {
		if first {
			first = false
			return models.SystemStats{CPUPercent: 5}, nil
		}
		return models.SystemStats{}, errors.New("unavailable")
	}, nil, time.Second)

	su.update()
	su.update()

	assert.Equal(t, 5.0, su.Latest().CPUPercent)
}

func TestStatUpdater_HighCPUAlertHasCooldown(t *testing.T) {
	events := &recordingEvents{}
	su := NewStatUpdater(func(context.Context) (models.SystemStats, error) {
		return models.SystemStats{CPUPercent: 97}, nil
	}, events, time.Second)
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	su.now = func() time.Time { return clock }

	su.update()
	clock = clock.Add(time.Minute)
	su.update()
	require.Len(t, events.events, 1)
	assert.Equal(t, "system.alert.cpu", events.events[0].eventType)

	clock = clock.Add(alertCooldown)
	su.update()
	assert.Len(t, events.events, 2)
}

func TestStatUpdater_RunAndStop(t *testing.T) {
	var calls atomic.Int32
	su := NewStatUpdater(func(context.Context) (models.SystemStats, error) {
		calls.Add(1)
		return models.SystemStats{}, nil
	}, nil, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		su.Run()
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	su.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
