package queue

import (
	"sort"
	"sync"
	"time"

	"github.com/dataflow/console/internal/core/ports"
)

// Manual is a virtual-clock scheduler. Time only moves when Advance or
// RunNext is called, and due callbacks run synchronously on the caller's
// goroutine. It lets polling state machines be tested without real time
// passing.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) ports.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{m: m, due: m.now.Add(d), seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

// Offload runs work and then synchronously on the caller's goroutine, so
// a status check finishes inside the Advance or RunNext that triggered it.
func (m *Manual) Offload(work, then func()) {
	work()
	then()
}

// Pending returns the number of callbacks waiting to run.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// NextDelay reports how far the clock must move for the next callback to run.
func (m *Manual) NextDelay() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.timers) == 0 {
		return 0, false
	}
	m.sortLocked()
	return m.timers[0].due.Sub(m.now), true
}

// Advance moves the clock forward by d, running every callback that becomes
// due on the way, including callbacks scheduled by earlier callbacks.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		m.sortLocked()
		if len(m.timers) == 0 || m.timers[0].due.After(target) {
			m.now = target
			m.mu.Unlock()
			return
		}
		t := m.popLocked()
		m.mu.Unlock()

		t.f()
	}
}

// RunNext jumps the clock to the next due callback and runs it. It reports
// false when nothing is scheduled.
func (m *Manual) RunNext() bool {
	m.mu.Lock()
	if len(m.timers) == 0 {
		m.mu.Unlock()
		return false
	}
	m.sortLocked()
	t := m.popLocked()
	m.mu.Unlock()

	t.f()
	return true
}

func (m *Manual) sortLocked() {
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].due.Equal(m.timers[j].due) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].due.Before(m.timers[j].due)
	})
}

func (m *Manual) popLocked() *manualTimer {
	t := m.timers[0]
	m.timers = m.timers[1:]
	if t.due.After(m.now) {
		m.now = t.due
	}
	return t
}

func (m *Manual) remove(t *manualTimer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, other := range m.timers {
		if other == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return true
		}
	}
	return false
}

type manualTimer struct {
	m   *Manual
	due time.Time
	seq int
	f   func()
}

func (t *manualTimer) Stop() bool {
	return t.m.remove(t)
}
