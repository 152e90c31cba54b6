package gamify

import (
	"time"

	"github.com/sirupsen/logrus"
)

// assistSession is the presence flag for externally-assisted activity
// bursts. Bursts closer together than the timeout merge into one session;
// a burst after the timeout starts a new one. Presence is deliberately not
// persisted; only the in-process run matters.
type assistSession struct {
	Active        bool
	LastActivity  time.Time
	TotalSessions int
}

// RecordAssistanceActivity marks an assisted-activity burst, starting a
// new session when none is live or the previous one has timed out.
func (e *Engine) RecordAssistanceActivity() {
	e.run(func() {
		if !e.enabled {
			return
		}
		now := e.clk.Now()
		if !e.assist.Active || now.Sub(e.assist.LastActivity) > e.cfg.assistTimeout() {
			e.assist.TotalSessions++
			e.assist.Active = true
			logrus.Debugf("assistance session %d started", e.assist.TotalSessions)
		}
		e.assist.LastActivity = now
		e.queueRefreshLocked()
	})
}

// AssistanceActive reports whether an assistance session is live. The
// check is lazy: a timed-out session flips to inactive as a side effect of
// the read.
func (e *Engine) AssistanceActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expireAssistLocked()
	return e.assist.Active
}

// GetAssistanceStats returns a snapshot of the session tracker.
func (e *Engine) GetAssistanceStats() AssistanceStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expireAssistLocked()
	return AssistanceStats{
		TotalSessions: e.assist.TotalSessions,
		Active:        e.assist.Active,
		LastActivity:  e.assist.LastActivity,
	}
}

// KillAssistanceSession forces the presence flag off without touching the
// session counter.
func (e *Engine) KillAssistanceSession() {
	e.run(func() {
		e.assist.Active = false
		e.assist.LastActivity = time.Time{}
		e.queueRefreshLocked()
	})
}

func (e *Engine) expireAssistLocked() {
	if e.assist.Active && e.clk.Now().Sub(e.assist.LastActivity) > e.cfg.assistTimeout() {
		e.assist.Active = false
	}
}
