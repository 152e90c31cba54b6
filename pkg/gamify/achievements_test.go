package gamify

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

func tempAchievement(id string, ts time.Time) Achievement {
	return Achievement{
		ID:        id,
		Title:     id,
		Type:      AchievementTemporary,
		Timestamp: ts,
		Category:  CategoryCombo,
		Data:      ComboPayload{Combo: 1},
	}
}

func TestLedgerTemporaryEviction(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var l ledger
	for i := 0; i < 15; i++ {
		l.add(tempAchievement(fmt.Sprintf("t%d", i), now.Add(time.Duration(i)*time.Second)), 10)
	}

	if len(l.Temporary) != 10 {
		t.Fatalf("len(Temporary) = %d, expected cap 10", len(l.Temporary))
	}
	// the 5 oldest were evicted
	if l.Temporary[0].ID != "t5" {
		t.Errorf("oldest survivor = %s, expected t5", l.Temporary[0].ID)
	}
	if l.Temporary[9].ID != "t14" {
		t.Errorf("newest = %s, expected t14", l.Temporary[9].ID)
	}
}

func TestLedgerPermanentDedup(t *testing.T) {
	now := time.Now()
	var l ledger
	a := Achievement{ID: "level_10", Type: AchievementPermanent, Timestamp: now}
	if !l.add(a, 10) {
		t.Fatal("first add reported no change")
	}
	if l.add(a, 10) {
		t.Error("duplicate permanent add reported a change")
	}
	if len(l.Permanent) != 1 {
		t.Errorf("len(Permanent) = %d, expected 1", len(l.Permanent))
	}
}

func TestLedgerCleanup(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var l ledger
	l.add(tempAchievement("old", now.Add(-time.Minute)), 10)
	l.add(tempAchievement("fresh", now.Add(-5*time.Second)), 10)
	l.add(Achievement{ID: "perm", Type: AchievementPermanent, Timestamp: now.Add(-time.Hour)}, 10)

	if !l.cleanup(now, 30*time.Second) {
		t.Fatal("cleanup removed nothing")
	}
	if len(l.Temporary) != 1 || l.Temporary[0].ID != "fresh" {
		t.Errorf("Temporary = %+v, expected only fresh", l.Temporary)
	}
	if len(l.Permanent) != 1 {
		t.Error("cleanup touched the permanent tier")
	}
	if !l.LastCleanup.Equal(now) {
		t.Errorf("LastCleanup = %v, expected %v", l.LastCleanup, now)
	}

	if l.cleanup(now.Add(time.Second), 30*time.Second) {
		t.Error("second cleanup reported removals")
	}
}

func TestLedgerDisplayOrderAndCaps(t *testing.T) {
	now := time.Now()
	var l ledger
	for i := 0; i < 5; i++ {
		l.add(tempAchievement(fmt.Sprintf("t%d", i), now.Add(time.Duration(i)*time.Second)), 10)
	}

	temp, _ := l.forDisplay(3, 20)
	if len(temp) != 3 {
		t.Fatalf("display len = %d, expected 3", len(temp))
	}
	if temp[0].ID != "t4" || temp[2].ID != "t2" {
		t.Errorf("display order = [%s %s %s], expected newest first", temp[0].ID, temp[1].ID, temp[2].ID)
	}
	// underlying order untouched
	if l.Temporary[0].ID != "t0" {
		t.Error("forDisplay reordered the ledger")
	}
}

func TestTemporaryExpiryViaCleanupTick(t *testing.T) {
	e, fc, _ := newTestEngine(t)

	e.AddXP(60, "review") // above the feed threshold, emits a temporary entry
	if view := e.GetAchievementsForDisplay(); len(view.Temporary) != 1 {
		t.Fatalf("Temporary = %d, expected 1", len(view.Temporary))
	}

	// lifetime 30s, cleanup tick every 60s
	fc.Advance(2 * time.Minute)
	if view := e.GetAchievementsForDisplay(); len(view.Temporary) != 0 {
		t.Errorf("Temporary = %d after expiry window, expected 0", len(view.Temporary))
	}
}

func TestAchievementJSONPayloadRestored(t *testing.T) {
	in := Achievement{
		ID:        "boss_victory_3",
		Title:     "Boss Defeated",
		Icon:      "⚔️",
		Type:      AchievementPermanent,
		Timestamp: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Category:  CategoryBoss,
		Data:      BossPayload{Name: "Hydra", DurationSeconds: 90, RewardXP: 148},
	}

	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Achievement
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	p, ok := out.Data.(BossPayload)
	if !ok {
		t.Fatalf("Data = %#v, expected BossPayload", out.Data)
	}
	if p != in.Data.(BossPayload) {
		t.Errorf("payload = %+v, expected %+v", p, in.Data)
	}
}

func TestAchievementJSONUnknownCategory(t *testing.T) {
	raw := []byte(`{"id":"x","title":"X","type":"permanent","timestamp":"2026-03-02T09:00:00Z","category":"seasonal","data":{"foo":1}}`)

	var a Achievement
	if err := json.Unmarshal(raw, &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.ID != "x" || a.Data != nil {
		t.Errorf("a = %+v, expected fields kept and payload dropped", a)
	}
}

func TestLedgerSurvivesRestart(t *testing.T) {
	e, fc, gw := newTestEngine(t)

	e.StartBossBattle("Hydra", nil)
	e.ToggleSubtask("task-1")
	if _, err := e.CompleteBossBattle(); err != nil {
		t.Fatalf("CompleteBossBattle: %v", err)
	}
	e.Stop()

	e2 := NewEngine(gw, fc, DefaultTuning())
	e2.Start(context.Background())
	t.Cleanup(e2.Stop)

	view := e2.GetAchievementsForDisplay()
	found := false
	for _, a := range view.Permanent {
		if a.ID == "boss_victory_1" {
			found = true
			if _, ok := a.Data.(BossPayload); !ok {
				t.Errorf("payload lost over restart: %#v", a.Data)
			}
		}
	}
	if !found {
		t.Error("boss victory achievement missing after restart")
	}
}
