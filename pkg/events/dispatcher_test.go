package events

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeEngine records which engine methods a handler invoked.
type fakeEngine struct {
	xp          int
	xpCalls     int
	lines       int
	combos      int
	pastes      int
	streaks     int
	assists     int
	toggled     []string
	toggleOK    bool
	comboResult bool
}

func (f *fakeEngine) AddXP(amount int, _ string) { f.xp += amount; f.xpCalls++ }
func (f *fakeEngine) AddLinesWritten(lines int)  { f.lines += lines }
func (f *fakeEngine) IncrementCombo() bool       { f.combos++; return f.comboResult }
func (f *fakeEngine) DetectCopyPaste()           { f.pastes++ }
func (f *fakeEngine) CheckDailyStreak()          { f.streaks++ }
func (f *fakeEngine) ToggleSubtask(id string) bool {
	f.toggled = append(f.toggled, id)
	return f.toggleOK
}
func (f *fakeEngine) RecordAssistanceActivity() { f.assists++ }

func newTestDispatcher() (*Dispatcher, *fakeEngine) {
	eng := &fakeEngine{comboResult: true, toggleOK: true}
	d := NewDefaultDispatcher(eng, Tuning{XPPerLine: 10, CompletionXP: 5})
	return d, eng
}

func TestDispatchEdit(t *testing.T) {
	d, eng := newTestDispatcher()

	err := d.Dispatch(context.Background(), Event{Kind: KindEdit, LinesAdded: 3, WordsAdded: 12})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if eng.combos != 1 {
		t.Errorf("combos = %d, expected 1", eng.combos)
	}
	if eng.lines != 3 {
		t.Errorf("lines = %d, expected 3", eng.lines)
	}
	if eng.xp != 30 {
		t.Errorf("xp = %d, expected 30", eng.xp)
	}
	if eng.streaks != 1 {
		t.Errorf("streaks = %d, expected 1", eng.streaks)
	}
	if eng.pastes != 0 {
		t.Error("paste detection triggered for a normal edit")
	}
}

func TestDispatchEdit_NoLines(t *testing.T) {
	d, eng := newTestDispatcher()

	if err := d.Dispatch(context.Background(), Event{Kind: KindEdit, WordsAdded: 2}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if eng.xpCalls != 0 || eng.lines != 0 {
		t.Errorf("zero-line edit granted rewards: %+v", eng)
	}
	if eng.combos != 1 {
		t.Error("zero-line edit should still feed the combo")
	}
}

func TestDispatchEdit_BulkPaste(t *testing.T) {
	d, eng := newTestDispatcher()

	err := d.Dispatch(context.Background(), Event{Kind: KindEdit, LinesAdded: 200, BulkPaste: true})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if eng.pastes != 1 {
		t.Errorf("pastes = %d, expected 1", eng.pastes)
	}
	if eng.combos != 0 || eng.lines != 0 || eng.xp != 0 {
		t.Errorf("paste earned rewards: %+v", eng)
	}
}

func TestDispatchEdit_NegativeRejected(t *testing.T) {
	d, eng := newTestDispatcher()

	if err := d.Dispatch(context.Background(), Event{Kind: KindEdit, LinesAdded: -1}); err == nil {
		t.Fatal("negative line count accepted")
	}
	if eng.combos != 0 {
		t.Error("rejected edit still touched the engine")
	}
}

func TestDispatchCompletion(t *testing.T) {
	d, eng := newTestDispatcher()

	if err := d.Dispatch(context.Background(), Event{Kind: KindCompletion, Accepted: true}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if eng.assists != 1 {
		t.Errorf("assists = %d, expected 1", eng.assists)
	}
	if eng.xp != 5 {
		t.Errorf("xp = %d, expected flat completion reward 5", eng.xp)
	}
	if eng.combos != 0 {
		t.Error("completion fed the combo")
	}
}

func TestDispatchCompletion_Dismissed(t *testing.T) {
	d, eng := newTestDispatcher()

	if err := d.Dispatch(context.Background(), Event{Kind: KindCompletion}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if eng.assists != 0 || eng.xp != 0 {
		t.Errorf("dismissed completion touched the engine: %+v", eng)
	}
}

func TestDispatchTaskToggle(t *testing.T) {
	d, eng := newTestDispatcher()

	if err := d.Dispatch(context.Background(), Event{Kind: KindTaskToggle, SubtaskID: "task-2"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(eng.toggled) != 1 || eng.toggled[0] != "task-2" {
		t.Errorf("toggled = %v, expected [task-2]", eng.toggled)
	}

	if err := d.Dispatch(context.Background(), Event{Kind: KindTaskToggle}); err == nil {
		t.Error("missing subtaskId accepted")
	}

	eng.toggleOK = false
	if err := d.Dispatch(context.Background(), Event{Kind: KindTaskToggle, SubtaskID: "task-9"}); err == nil {
		t.Error("failed toggle reported no error")
	}
}

func TestDispatchUnknownKind(t *testing.T) {
	d, _ := newTestDispatcher()

	if err := d.Dispatch(context.Background(), Event{Kind: "telemetry"}); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestDispatchCountsProcessedEvents(t *testing.T) {
	d, _ := newTestDispatcher()

	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "processed_total",
	}, []string{"kind"})
	d.AttachMetrics(processed)

	d.Dispatch(context.Background(), Event{Kind: KindEdit, LinesAdded: 1})
	d.Dispatch(context.Background(), Event{Kind: KindEdit, LinesAdded: -1}) // rejected
	d.Dispatch(context.Background(), Event{Kind: "telemetry"})              // unknown

	if got := testutil.ToFloat64(processed.WithLabelValues(KindEdit)); got != 1 {
		t.Errorf("edit counter = %v, expected 1 (failed dispatches must not count)", got)
	}
}

func TestRegistry(t *testing.T) {
	d, _ := newTestDispatcher()

	if d.Count() != 3 {
		t.Fatalf("Count = %d, expected the 3 built-in handlers", d.Count())
	}
	if err := d.Unregister(KindCompletion); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if err := d.Unregister(KindCompletion); err == nil {
		t.Error("double unregister reported no error")
	}
	if d.Count() != 2 {
		t.Errorf("Count = %d after unregister, expected 2", d.Count())
	}
}
