package schedule

import "time"

// Manual is a Scheduler driven by a virtual clock. Nothing runs until the
// owner calls Flush or Advance, which makes timing deterministic in tests.
type Manual struct {
	now     time.Duration
	seq     int
	pending []manualEntry
}

type manualEntry struct {
	at   time.Duration
	seq  int
	task *Task
}

// NewManual returns a Manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

// After implements Scheduler.
func (m *Manual) After(d time.Duration, fn func()) *Task {
	if d < 0 {
		d = 0
	}
	return m.add(m.now+d, fn)
}

// Defer implements Scheduler.
func (m *Manual) Defer(fn func()) *Task {
	return m.add(m.now, fn)
}

func (m *Manual) add(at time.Duration, fn func()) *Task {
	t := newTask(fn)
	m.seq++
	m.pending = append(m.pending, manualEntry{at: at, seq: m.seq, task: t})
	return t
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Len returns the number of tasks that are still pending.
func (m *Manual) Len() int {
	n := 0
	for _, e := range m.pending {
		if e.task.Pending() {
			n++
		}
	}
	return n
}

// Flush runs every task due at the current virtual time, including tasks
// deferred by the tasks it runs.
func (m *Manual) Flush() {
	m.runUntil(m.now)
}

// Advance moves the clock forward by d, running due tasks in time order.
func (m *Manual) Advance(d time.Duration) {
	m.runUntil(m.now + d)
}

func (m *Manual) runUntil(target time.Duration) {
	for {
		idx := m.nextDue(target)
		if idx < 0 {
			break
		}
		e := m.pending[idx]
		m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
		if e.at > m.now {
			m.now = e.at
		}
		e.task.run()
	}
	m.now = target
	m.compact()
}

// nextDue returns the index of the earliest pending entry due by target.
func (m *Manual) nextDue(target time.Duration) int {
	best := -1
	for i, e := range m.pending {
		if e.at > target || !e.task.Pending() {
			continue
		}
		if best < 0 || e.at < m.pending[best].at || (e.at == m.pending[best].at && e.seq < m.pending[best].seq) {
			best = i
		}
	}
	return best
}

func (m *Manual) compact() {
	kept := m.pending[:0]
	for _, e := range m.pending {
		if e.task.Pending() {
			kept = append(kept, e)
		}
	}
	m.pending = kept
}
