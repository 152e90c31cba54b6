package gamify

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// StartBossBattle declares a new objective with one subtask per
// description (or a single catch-all when none are given). Starting while
// a battle is active is rejected with ErrBattleActive.
func (e *Engine) StartBossBattle(name string, subtaskDescriptions []string) error {
	var err error
	e.run(func() {
		if !e.enabled {
			return
		}
		if e.stats.CurrentBossBattle != nil {
			err = ErrBattleActive
			return
		}

		if len(subtaskDescriptions) == 0 {
			subtaskDescriptions = []string{"Defeat " + name}
		}
		subtasks := make([]Subtask, len(subtaskDescriptions))
		for i, desc := range subtaskDescriptions {
			subtasks[i] = Subtask{
				ID:          fmt.Sprintf("task-%d", i+1),
				Description: desc,
			}
		}

		span := e.cfg.BossTargetLinesMax - e.cfg.BossTargetLinesMin
		e.stats.CurrentBossBattle = &BossBattle{
			Name:        name,
			StartTime:   e.clk.Now(),
			TargetLines: e.cfg.BossTargetLinesMin + e.rng.Intn(span+1),
			Subtasks:    subtasks,
		}
		logrus.Infof("boss battle started: %q with %d subtasks (target %d lines)",
			name, len(subtasks), e.stats.CurrentBossBattle.TargetLines)

		e.persistStatsLocked()
		e.queueRefreshLocked()
	})
	return err
}

// ToggleSubtask flips the named subtask's completed flag. A no-op (false)
// when no battle is active, the battle is completed, or the id is unknown.
func (e *Engine) ToggleSubtask(id string) bool {
	toggled := false
	e.run(func() {
		if !e.enabled {
			return
		}
		b := e.stats.CurrentBossBattle
		if b == nil || b.Completed {
			return
		}
		for i := range b.Subtasks {
			if b.Subtasks[i].ID == id {
				b.Subtasks[i].Completed = !b.Subtasks[i].Completed
				toggled = true
				break
			}
		}
		if !toggled {
			logrus.Debugf("toggle ignored for unknown subtask %q", id)
			return
		}
		e.persistStatsLocked()
		e.queueRefreshLocked()
	})
	return toggled
}

// CanCompleteBossBattle reports whether a battle is active, not yet
// completed, and has every subtask done.
func (e *Engine) CanCompleteBossBattle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return canComplete(e.stats.CurrentBossBattle)
}

func canComplete(b *BossBattle) bool {
	if b == nil || b.Completed {
		return false
	}
	for _, st := range b.Subtasks {
		if !st.Completed {
			return false
		}
	}
	return true
}

// CompleteBossBattle finalizes the active battle. Rejected with
// ErrDisabled while the engine is off, and with a CompletionError naming
// the outstanding subtasks unless every one is done. On success the
// reward is base XP plus a time bonus that shrinks the longer the battle
// ran (floored at zero); the battle is cleared and a permanent victory
// achievement recorded. Returns the awarded XP.
func (e *Engine) CompleteBossBattle() (int, error) {
	var reward int
	var err error
	e.run(func() {
		if !e.enabled {
			err = ErrDisabled
			return
		}
		b := e.stats.CurrentBossBattle
		if b == nil || b.Completed {
			err = ErrNoBattle
			return
		}
		if outstanding := outstandingSubtasks(b); len(outstanding) > 0 {
			err = CompletionError{Outstanding: outstanding}
			return
		}

		b.Completed = true
		duration := e.clk.Now().Sub(b.StartTime)
		reward = e.cfg.BossBaseXP + e.timeBonus(duration)

		e.addXPLocked(reward, fmt.Sprintf("defeated %s", b.Name))
		e.stats.BossBattlesWon++
		if e.metrics != nil {
			e.metrics.BossBattlesWon.Inc()
		}

		e.addAchievementLocked(Achievement{
			ID:          fmt.Sprintf("boss_victory_%d", e.stats.BossBattlesWon),
			Title:       "Boss Defeated",
			Description: fmt.Sprintf("Defeated %q in %s", b.Name, duration.Round(time.Second)),
			Icon:        "⚔️",
			Type:        AchievementPermanent,
			Timestamp:   e.clk.Now(),
			Category:    CategoryBoss,
			Data: BossPayload{
				Name:            b.Name,
				DurationSeconds: int(duration.Seconds()),
				RewardXP:        reward,
			},
		})

		logrus.Infof("boss battle %q won after %s, awarded %d xp", b.Name, duration.Round(time.Second), reward)
		e.stats.CurrentBossBattle = nil
		e.persistStatsLocked()
		e.queueRefreshLocked()
	})
	return reward, err
}

func outstandingSubtasks(b *BossBattle) []string {
	var out []string
	for _, st := range b.Subtasks {
		if !st.Completed {
			out = append(out, st.Description)
		}
	}
	return out
}

// timeBonus decays from the configured maximum down to zero as battle
// duration grows.
func (e *Engine) timeBonus(duration time.Duration) int {
	bonus := e.cfg.BossTimeBonusMax - int(duration/time.Minute)*e.cfg.BossTimeBonusPerMin
	if bonus < 0 {
		bonus = 0
	}
	return bonus
}

// CancelBossBattle clears the active battle with no reward. Reports
// whether there was a battle to cancel.
func (e *Engine) CancelBossBattle() bool {
	cancelled := false
	e.run(func() {
		if !e.enabled {
			return
		}
		if e.stats.CurrentBossBattle == nil {
			return
		}
		logrus.Infof("boss battle %q cancelled", e.stats.CurrentBossBattle.Name)
		e.stats.CurrentBossBattle = nil
		cancelled = true
		if e.metrics != nil {
			e.metrics.BossBattlesCancelled.Inc()
		}
		e.persistStatsLocked()
		e.queueRefreshLocked()
	})
	return cancelled
}
