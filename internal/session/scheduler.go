package session

import (
	"sort"
	"sync"
	"time"
)

// Task is a scheduled callback.
type Task interface {
	// Cancel stops the callback if it has not started and reports whether
	// it did so.
	Cancel() bool
}

// Scheduler runs f after d. Callbacks must not be invoked synchronously
// from AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

// TimerScheduler is backed by time.AfterFunc.
type TimerScheduler struct{}

func (TimerScheduler) AfterFunc(d time.Duration, f func()) Task {
	return timerTask{time.AfterFunc(d, f)}
}

type timerTask struct{ t *time.Timer }

func (t timerTask) Cancel() bool { return t.t.Stop() }

// ManualScheduler queues callbacks until Advance or RunAll is called. It
// gives tests full control over when the engine replies.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	pending []*manualTask
}

type manualTask struct {
	owner    *ManualScheduler
	due      time.Duration
	seq      int
	f        func()
	canceled bool
	ran      bool
}

func NewManualScheduler() *ManualScheduler { return &ManualScheduler{} }

func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{owner: m, due: m.now + d, seq: m.seq, f: f}
	m.pending = append(m.pending, t)
	return t
}

func (t *manualTask) Cancel() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.ran || t.canceled {
		return false
	}
	t.canceled = true
	return true
}

// Pending counts callbacks that are neither run nor canceled.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.pending {
		if !t.ran && !t.canceled {
			n++
		}
	}
	return n
}

// Advance moves virtual time forward by d and runs every callback that
// became due, in due order. It returns how many ran.
func (m *ManualScheduler) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now += d
	deadline := m.now
	m.mu.Unlock()
	return m.runUntil(deadline)
}

// RunAll runs callbacks until none are pending, including ones scheduled
// by callbacks that ran.
func (m *ManualScheduler) RunAll() int {
	total := 0
	for {
		m.mu.Lock()
		var latest time.Duration
		for _, t := range m.pending {
			if !t.ran && !t.canceled && t.due > latest {
				latest = t.due
			}
		}
		if latest > m.now {
			m.now = latest
		}
		deadline := m.now
		m.mu.Unlock()
		n := m.runUntil(deadline)
		if n == 0 {
			return total
		}
		total += n
	}
}

func (m *ManualScheduler) runUntil(deadline time.Duration) int {
	ran := 0
	for {
		m.mu.Lock()
		sort.SliceStable(m.pending, func(i, j int) bool {
			if m.pending[i].due == m.pending[j].due {
				return m.pending[i].seq < m.pending[j].seq
			}
			return m.pending[i].due < m.pending[j].due
		})
		var next *manualTask
		live := m.pending[:0]
		for _, t := range m.pending {
			if t.ran || t.canceled {
				continue
			}
			live = append(live, t)
			if next == nil && t.due <= deadline {
				next = t
			}
		}
		m.pending = live
		if next != nil {
			next.ran = true
		}
		m.mu.Unlock()
		if next == nil {
			return ran
		}
		next.f()
		ran++
	}
}
