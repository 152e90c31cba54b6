package gamify

import (
	"testing"
	"time"
)

func TestAssistanceSessionMerging(t *testing.T) {
	e, fc, _ := newTestEngine(t)

	e.RecordAssistanceActivity()
	fc.Advance(2 * time.Second)
	e.RecordAssistanceActivity()
	fc.Advance(4 * time.Second)
	e.RecordAssistanceActivity()

	st := e.GetAssistanceStats()
	if st.TotalSessions != 1 {
		t.Errorf("TotalSessions = %d, expected bursts within the timeout to merge", st.TotalSessions)
	}
	if !st.Active {
		t.Error("session not active right after a burst")
	}
}

func TestAssistanceSessionTimeout(t *testing.T) {
	e, fc, _ := newTestEngine(t)

	e.RecordAssistanceActivity()
	fc.Advance(6 * time.Second)

	if e.AssistanceActive() {
		t.Error("session still active past the timeout")
	}

	e.RecordAssistanceActivity()
	st := e.GetAssistanceStats()
	if st.TotalSessions != 2 {
		t.Errorf("TotalSessions = %d, expected a fresh session after the gap", st.TotalSessions)
	}
}

func TestKillAssistanceSession(t *testing.T) {
	e, _, _ := newTestEngine(t)

	e.RecordAssistanceActivity()
	e.KillAssistanceSession()

	st := e.GetAssistanceStats()
	if st.Active {
		t.Error("session active after kill")
	}
	if st.TotalSessions != 1 {
		t.Errorf("TotalSessions = %d, kill must not touch the counter", st.TotalSessions)
	}
}

func TestKillAssistanceSessionWhileDisabled(t *testing.T) {
	e, _, _ := newTestEngine(t)

	e.RecordAssistanceActivity()
	e.ToggleEnabled()
	e.KillAssistanceSession()

	if e.GetAssistanceStats().Active {
		t.Error("kill refused while disabled")
	}
}

func TestAssistanceNotRecordedWhileDisabled(t *testing.T) {
	e, _, _ := newTestEngine(t)

	e.ToggleEnabled()
	e.RecordAssistanceActivity()

	st := e.GetAssistanceStats()
	if st.Active || st.TotalSessions != 0 {
		t.Errorf("disabled engine tracked presence: %+v", st)
	}
}

func TestAssistanceNotPersisted(t *testing.T) {
	e, _, gw := newTestEngine(t)

	e.RecordAssistanceActivity()

	var anything map[string]any
	if found, _ := gw.Get(e.ctx, "assist", &anything); found {
		t.Error("assistance presence leaked into the store")
	}
}
