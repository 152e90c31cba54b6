package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Dispatcher routes incoming events to the handler registered for their
// kind.
type Dispatcher struct {
	mu        sync.RWMutex
	handlers  map[string]Handler
	processed *prometheus.CounterVec
}

// NewDispatcher creates an empty dispatcher. Use NewDefaultDispatcher for
// one pre-wired with the standard activity handlers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]Handler),
	}
}

// NewDefaultDispatcher wires the built-in edit, completion and task-toggle
// handlers against the given engine.
func NewDefaultDispatcher(engine Progression, cfg Tuning) *Dispatcher {
	d := NewDispatcher()
	d.Register(&EditHandler{Engine: engine, XPPerLine: cfg.XPPerLine})
	d.Register(&CompletionHandler{Engine: engine, CompletionXP: cfg.CompletionXP})
	d.Register(&TaskToggleHandler{Engine: engine})
	return d
}

// Tuning carries the reward knobs the built-in handlers need.
type Tuning struct {
	XPPerLine    int
	CompletionXP int
}

// AttachMetrics wires a per-kind counter incremented for every
// successfully handled event.
func (d *Dispatcher) AttachMetrics(processed *prometheus.CounterVec) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processed = processed
}

// Register adds a handler, replacing any previous one for the same kind.
func (d *Dispatcher) Register(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[h.Kind()] = h
}

// Unregister removes the handler for a kind.
func (d *Dispatcher) Unregister(kind string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.handlers[kind]; !ok {
		return fmt.Errorf("no handler registered for event kind %q", kind)
	}
	delete(d.handlers, kind)
	return nil
}

// Count returns the number of registered handlers.
func (d *Dispatcher) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers)
}

// Dispatch routes one event. Unknown kinds are an error; handler errors
// pass through.
func (d *Dispatcher) Dispatch(ctx context.Context, evt Event) error {
	d.mu.RLock()
	h := d.handlers[evt.Kind]
	processed := d.processed
	d.mu.RUnlock()

	if h == nil {
		return fmt.Errorf("unknown event kind %q", evt.Kind)
	}
	if err := h.Handle(ctx, evt); err != nil {
		return fmt.Errorf("failed to handle %s event: %w", evt.Kind, err)
	}
	if processed != nil {
		processed.WithLabelValues(evt.Kind).Inc()
	}
	return nil
}

// EditHandler applies typing activity: each edit feeds the combo, line
// totals, per-line XP and the daily streak. Edits flagged as bulk paste
// break the combo instead of rewarding it.
type EditHandler struct {
	Engine    Progression
	XPPerLine int
}

func (h *EditHandler) Kind() string { return KindEdit }

func (h *EditHandler) Handle(_ context.Context, evt Event) error {
	if evt.LinesAdded < 0 || evt.WordsAdded < 0 {
		return fmt.Errorf("negative activity counts: lines=%d words=%d", evt.LinesAdded, evt.WordsAdded)
	}

	if evt.BulkPaste {
		logrus.Debugf("bulk paste reported (%d lines), breaking combo", evt.LinesAdded)
		h.Engine.DetectCopyPaste()
		return nil
	}

	h.Engine.IncrementCombo()
	if evt.LinesAdded > 0 {
		h.Engine.AddLinesWritten(evt.LinesAdded)
		h.Engine.AddXP(evt.LinesAdded*h.XPPerLine, "lines written")
	}
	h.Engine.CheckDailyStreak()
	return nil
}

// CompletionHandler applies an accepted AI completion: it counts as
// assisted activity and earns a small flat reward, but never feeds the
// combo. Dismissed completions are ignored entirely.
type CompletionHandler struct {
	Engine       Progression
	CompletionXP int
}

func (h *CompletionHandler) Kind() string { return KindCompletion }

func (h *CompletionHandler) Handle(_ context.Context, evt Event) error {
	if !evt.Accepted {
		logrus.Debug("completion dismissed, nothing to record")
		return nil
	}
	h.Engine.RecordAssistanceActivity()
	h.Engine.AddXP(h.CompletionXP, "completion accepted")
	return nil
}

// TaskToggleHandler flips a boss battle subtask.
type TaskToggleHandler struct {
	Engine Progression
}

func (h *TaskToggleHandler) Kind() string { return KindTaskToggle }

func (h *TaskToggleHandler) Handle(_ context.Context, evt Event) error {
	if evt.SubtaskID == "" {
		return fmt.Errorf("task_toggle event missing subtaskId")
	}
	if !h.Engine.ToggleSubtask(evt.SubtaskID) {
		return fmt.Errorf("subtask %q not found or battle not active", evt.SubtaskID)
	}
	return nil
}
