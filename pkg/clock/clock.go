package clock

import (
	"sync"
	"time"
)

// Handle represents a scheduled periodic or one-shot callback.
// Stop cancels the callback; stopping twice is safe.
type Handle interface {
	Stop()
}

// Clock abstracts time and scheduling so the engine never talks to the
// wall clock directly. Tests drive a Fake implementation deterministically.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Every invokes fn repeatedly with the given interval until the
	// returned handle is stopped.
	Every(interval time.Duration, fn func()) Handle

	// After invokes fn once after the given delay unless the returned
	// handle is stopped first.
	After(delay time.Duration, fn func()) Handle
}

// System is a Clock backed by the real wall clock.
type System struct{}

// NewSystem returns a wall-clock backed Clock.
func NewSystem() *System {
	return &System{}
}

func (s *System) Now() time.Time {
	return time.Now()
}

func (s *System) Every(interval time.Duration, fn func()) Handle {
	h := &tickerHandle{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-h.stop:
				return
			}
		}
	}()
	return h
}

func (s *System) After(delay time.Duration, fn func()) Handle {
	t := time.AfterFunc(delay, fn)
	return &timerHandle{timer: t}
}

type tickerHandle struct {
	once sync.Once
	stop chan struct{}
}

func (h *tickerHandle) Stop() {
	h.once.Do(func() { close(h.stop) })
}

type timerHandle struct {
	timer *time.Timer
}

func (h *timerHandle) Stop() {
	h.timer.Stop()
}
