package gamify

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDisabled is returned when an operation that must report an outcome
// is attempted while the engine is disabled.
var ErrDisabled = errors.New("progression engine is disabled")

// ErrBattleActive is returned when starting a boss battle while one is
// already in progress.
var ErrBattleActive = errors.New("a boss battle is already active")

// ErrNoBattle is returned when completing a boss battle with none active.
var ErrNoBattle = errors.New("no active boss battle")

// CompletionError reports which subtasks still block a boss battle
// completion. It is a rejection, not a failure; the caller decides how to
// surface it.
type CompletionError struct {
	Outstanding []string
}

func (e CompletionError) Error() string {
	return fmt.Sprintf("boss battle has %d unfinished subtasks: %s",
		len(e.Outstanding), strings.Join(e.Outstanding, ", "))
}
