package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a deterministic Clock for tests. Time only moves when Advance is
// called; scheduled callbacks fire synchronously, in due order, on the
// goroutine that calls Advance.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	entries []*fakeEntry
}

type fakeEntry struct {
	id       int
	due      time.Time
	interval time.Duration // 0 for one-shot
	fn       func()
	stopped  bool
}

// NewFake returns a Fake clock starting at the given time.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Every(interval time.Duration, fn func()) Handle {
	return f.schedule(interval, interval, fn)
}

func (f *Fake) After(delay time.Duration, fn func()) Handle {
	return f.schedule(delay, 0, fn)
}

func (f *Fake) schedule(delay, interval time.Duration, fn func()) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	e := &fakeEntry{
		id:       f.nextID,
		due:      f.now.Add(delay),
		interval: interval,
		fn:       fn,
	}
	f.entries = append(f.entries, e)
	return &fakeHandle{clock: f, entry: e}
}

// Advance moves the clock forward by d, firing every due callback in order.
// Periodic callbacks fire once per elapsed interval.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		e := f.nextDue(target)
		if e == nil {
			break
		}
		f.now = e.due
		if e.interval > 0 {
			e.due = e.due.Add(e.interval)
		} else {
			e.stopped = true
		}
		fn := e.fn
		f.mu.Unlock()
		fn()
		f.mu.Lock()
	}
	f.now = target
	f.compact()
	f.mu.Unlock()
}

// nextDue returns the earliest live entry due at or before target.
// Ties break by registration order. Caller holds the lock.
func (f *Fake) nextDue(target time.Time) *fakeEntry {
	var best *fakeEntry
	for _, e := range f.entries {
		if e.stopped || e.due.After(target) {
			continue
		}
		if best == nil || e.due.Before(best.due) || (e.due.Equal(best.due) && e.id < best.id) {
			best = e
		}
	}
	return best
}

func (f *Fake) compact() {
	live := f.entries[:0]
	for _, e := range f.entries {
		if !e.stopped {
			live = append(live, e)
		}
	}
	f.entries = live
	sort.SliceStable(f.entries, func(i, j int) bool { return f.entries[i].id < f.entries[j].id })
}

type fakeHandle struct {
	clock *Fake
	entry *fakeEntry
}

func (h *fakeHandle) Stop() {
	h.clock.mu.Lock()
	defer h.clock.mu.Unlock()
	h.entry.stopped = true
}
