// Package events turns raw editor activity events into progression engine
// calls. Handlers are registered per event kind so new activity sources
// can be added without touching the dispatch loop.
package events

import (
	"context"
	"time"
)

// Event kinds accepted by the dispatcher.
const (
	KindEdit       = "edit"
	KindCompletion = "completion"
	KindTaskToggle = "task_toggle"
)

// Event is a single raw activity report from an editor or agent frontend.
// Fields are kind-specific; unused ones stay zero.
type Event struct {
	Kind       string    `json:"kind"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
	LinesAdded int       `json:"linesAdded,omitempty"`
	WordsAdded int       `json:"wordsAdded,omitempty"`
	BulkPaste  bool      `json:"bulkPaste,omitempty"`
	Accepted   bool      `json:"accepted,omitempty"`
	SubtaskID  string    `json:"subtaskId,omitempty"`
}

// Handler processes events of a single kind.
type Handler interface {
	// Kind returns the event kind this handler accepts.
	Kind() string

	// Handle applies the event to the progression engine.
	Handle(ctx context.Context, evt Event) error
}

// Progression is the slice of the engine surface the built-in handlers
// drive.
type Progression interface {
	AddXP(amount int, reason string)
	AddLinesWritten(lines int)
	IncrementCombo() bool
	DetectCopyPaste()
	CheckDailyStreak()
	ToggleSubtask(id string) bool
	RecordAssistanceActivity()
}
