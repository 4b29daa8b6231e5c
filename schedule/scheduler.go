// Package schedule runs delayed callbacks on the game's update tick.
//
// Nothing here starts goroutines: tasks fire from inside Advance, on the
// goroutine that drives the game loop, in due-time then insertion order.
package schedule

import (
	"sort"
	"time"
)

// Task is a delayed continuation.
type Task = func()

type entry struct {
	due   time.Duration
	seq   uint64
	epoch uint64
	task  Task
}

// Scheduler is a tick-driven timer queue. The zero value is ready to use.
type Scheduler struct {
	now     time.Duration
	seq     uint64
	epoch   uint64
	pending []entry
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// After queues task to run once d of simulated time has passed. A
// non-positive d runs on the next Advance.
func (s *Scheduler) After(d time.Duration, task Task) {
	if s == nil || task == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	s.seq++
	s.pending = append(s.pending, entry{due: s.now + d, seq: s.seq, epoch: s.epoch, task: task})
}

// Advance moves the clock forward by dt and runs every task that became due.
// Each task runs with the clock at its own due time, so a task queued from
// inside another is timed from when its parent was due, not from the end of
// the step. Tasks queued while firing run in the same call if they are
// already due.
func (s *Scheduler) Advance(dt time.Duration) {
	if s == nil {
		return
	}
	target := s.now
	if dt > 0 {
		target += dt
	}

	for {
		idx := s.nextDue(target)
		if idx < 0 {
			break
		}
		e := s.pending[idx]
		s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
		if e.epoch != s.epoch {
			continue
		}
		if e.due > s.now {
			s.now = e.due
		}
		e.task()
	}
	s.now = target
}

func (s *Scheduler) nextDue(limit time.Duration) int {
	best := -1
	for i, e := range s.pending {
		if e.due > limit {
			continue
		}
		if best < 0 || e.due < s.pending[best].due || (e.due == s.pending[best].due && e.seq < s.pending[best].seq) {
			best = i
		}
	}
	return best
}

// Reset drops every pending task. Tasks already captured under the old epoch
// never fire, even if Advance is running when Reset is called.
func (s *Scheduler) Reset() {
	if s == nil {
		return
	}
	s.epoch++
	s.pending = nil
}

// Pending reports how many tasks are waiting to fire.
func (s *Scheduler) Pending() int {
	if s == nil {
		return 0
	}
	return len(s.pending)
}

// NextDue returns the time until the earliest pending task, or false when the
// queue is empty.
func (s *Scheduler) NextDue() (time.Duration, bool) {
	if s == nil || len(s.pending) == 0 {
		return 0, false
	}
	dues := make([]time.Duration, 0, len(s.pending))
	for _, e := range s.pending {
		dues = append(dues, e.due)
	}
	sort.Slice(dues, func(i, j int) bool { return dues[i] < dues[j] })
	wait := dues[0] - s.now
	if wait < 0 {
		wait = 0
	}
	return wait, true
}
