package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerOrdering(t *testing.T) {
	s := NewScheduler()
	var order []string

	s.After(30*time.Millisecond, func() { order = append(order, "c") })
	s.After(10*time.Millisecond, func() { order = append(order, "a") })
	s.After(10*time.Millisecond, func() { order = append(order, "b") })

	s.Advance(5 * time.Millisecond)
	assert.Empty(t, order)

	s.Advance(25 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, s.Pending())
}

func TestSchedulerChainedTasks(t *testing.T) {
	s := NewScheduler()
	fired := 0
	s.After(10*time.Millisecond, func() {
		fired++
		s.After(0, func() { fired++ })
		s.After(50*time.Millisecond, func() { fired++ })
	})

	s.Advance(10 * time.Millisecond)
	assert.Equal(t, 2, fired, "zero-delay follow-up should run in the same advance")

	s.Advance(49 * time.Millisecond)
	assert.Equal(t, 2, fired)
	s.Advance(time.Millisecond)
	assert.Equal(t, 3, fired)
}

func TestSchedulerReset(t *testing.T) {
	s := NewScheduler()
	fired := false
	s.After(time.Millisecond, func() { fired = true })
	s.Reset()
	s.Advance(time.Second)
	assert.False(t, fired)

	t.Run("reset_from_inside_task", func(t *testing.T) {
		s := NewScheduler()
		late := false
		s.After(time.Millisecond, func() { s.Reset() })
		s.After(time.Millisecond, func() { late = true })
		s.Advance(time.Millisecond)
		assert.False(t, late)
	})
}

func TestSchedulerNextDue(t *testing.T) {
	s := NewScheduler()
	_, ok := s.NextDue()
	require.False(t, ok)

	s.After(80*time.Millisecond, func() {})
	s.After(20*time.Millisecond, func() {})
	s.Advance(5 * time.Millisecond)

	wait, ok := s.NextDue()
	require.True(t, ok)
	assert.Equal(t, 15*time.Millisecond, wait)
}

func TestSchedulerChainTimedFromParentDue(t *testing.T) {
	const frame = time.Second / 60
	s := NewScheduler()
	var at []time.Duration
	var elapsed time.Duration

	s.After(500*time.Millisecond, func() {
		at = append(at, 500*time.Millisecond)
		s.After(time.Second, func() { at = append(at, elapsed) })
	})

	for elapsed < 1500*time.Millisecond {
		step := frame
		if rest := 1500*time.Millisecond - elapsed; rest < step {
			step = rest
		}
		elapsed += step
		s.Advance(step)
	}
	require.Len(t, at, 2, "second stage lands at 1500ms, not one frame later")
	assert.Equal(t, 1500*time.Millisecond, at[1])

	wait, ok := s.NextDue()
	assert.False(t, ok)
	assert.Zero(t, wait)
}
