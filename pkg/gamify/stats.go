package gamify

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AddXP grants experience and settles any level-ups it causes. A no-op
// (including persistence) while the engine is disabled or for non-positive
// amounts.
func (e *Engine) AddXP(amount int, reason string) {
	e.run(func() {
		if !e.enabled || amount <= 0 {
			return
		}
		e.addXPLocked(amount, reason)
		e.persistStatsLocked()
		e.queueRefreshLocked()
	})
}

// addXPLocked is the shared XP/level-up core used by every rewarding
// operation. The loop re-checks the threshold after every single level-up
// so milestone bonuses can cascade into further level-ups.
func (e *Engine) addXPLocked(amount int, reason string) {
	e.stats.XP += amount
	if e.metrics != nil {
		e.metrics.XPGranted.Add(float64(amount))
	}
	logrus.Debugf("+%d xp (%s): %d/%d at level %d",
		amount, reason, e.stats.XP, e.stats.XPToNextLevel, e.stats.Level)

	if amount >= e.cfg.XPGainFeedThreshold {
		e.addAchievementLocked(Achievement{
			ID:          "xp_gain_" + uuid.NewString(),
			Title:       fmt.Sprintf("+%d XP", amount),
			Description: reason,
			Icon:        "✨",
			Type:        AchievementTemporary,
			Timestamp:   e.clk.Now(),
			Category:    CategoryMilestone,
			Data:        MilestonePayload{Metric: "xp", Value: amount},
		})
	}

	for e.stats.XP >= e.stats.XPToNextLevel {
		e.stats.XP -= e.stats.XPToNextLevel
		e.stats.Level++
		e.stats.XPToNextLevel = int(float64(e.stats.XPToNextLevel) * e.cfg.LevelGrowth)
		if e.metrics != nil {
			e.metrics.LevelUps.Inc()
		}
		logrus.Infof("level up! now level %d (next threshold %d)", e.stats.Level, e.stats.XPToNextLevel)

		if bonus, ok := e.cfg.LevelMilestones[e.stats.Level]; ok {
			// Bonus lands after the threshold subtraction and may push
			// the loop around again.
			e.stats.XP += bonus
			e.addAchievementLocked(Achievement{
				ID:          fmt.Sprintf("level_%d", e.stats.Level),
				Title:       fmt.Sprintf("Level %d", e.stats.Level),
				Description: fmt.Sprintf("Reached level %d", e.stats.Level),
				Icon:        "🏆",
				Type:        AchievementPermanent,
				Timestamp:   e.clk.Now(),
				Category:    CategoryLevel,
				Data:        LevelPayload{Level: e.stats.Level, BonusXP: bonus},
			})
		}
	}
}

// AddLinesWritten records written lines against the lifetime counter and,
// when a boss battle is active, its progress signal. Crossing a configured
// lifetime total emits a permanent milestone achievement.
func (e *Engine) AddLinesWritten(lines int) {
	e.run(func() {
		if !e.enabled || lines <= 0 {
			return
		}
		before := e.stats.TotalLinesWritten
		e.stats.TotalLinesWritten += lines

		if b := e.stats.CurrentBossBattle; b != nil && !b.Completed {
			b.CurrentLines += lines
		}

		for _, m := range e.cfg.LineMilestones {
			if before < m && e.stats.TotalLinesWritten >= m {
				e.addAchievementLocked(Achievement{
					ID:          fmt.Sprintf("lines_%d", m),
					Title:       fmt.Sprintf("%d Lines", m),
					Description: fmt.Sprintf("Wrote %d lines in total", m),
					Icon:        "📝",
					Type:        AchievementPermanent,
					Timestamp:   e.clk.Now(),
					Category:    CategoryMilestone,
					Data:        MilestonePayload{Metric: "lines", Value: m},
				})
			}
		}

		e.persistStatsLocked()
		e.queueRefreshLocked()
	})
}

// CheckDailyStreak advances the daily activity streak: same day is a
// no-op, consecutive days extend, anything longer resets to 1. Streak
// milestones emit permanent achievements.
func (e *Engine) CheckDailyStreak() {
	e.run(func() {
		if !e.enabled {
			return
		}
		now := e.clk.Now()
		today := now.Format("2006-01-02")
		if e.stats.LastActiveDate == today {
			return
		}

		yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
		if e.stats.LastActiveDate == yesterday {
			e.stats.DailyStreak++
		} else {
			e.stats.DailyStreak = 1
		}
		e.stats.LastActiveDate = today
		logrus.Infof("daily streak: %d (last active %s)", e.stats.DailyStreak, today)

		for _, m := range e.cfg.StreakMilestones {
			if e.stats.DailyStreak == m {
				e.addAchievementLocked(Achievement{
					ID:          fmt.Sprintf("streak_%d", m),
					Title:       fmt.Sprintf("%d Day Streak", m),
					Description: fmt.Sprintf("Active %d days in a row", m),
					Icon:        "🔥",
					Type:        AchievementPermanent,
					Timestamp:   now,
					Category:    CategoryStreak,
					Data:        StreakPayload{Days: m},
				})
			}
		}

		e.persistStatsLocked()
		e.queueRefreshLocked()
	})
}

// ResetStats restores all progression state to its initial defaults and
// clears the achievement ledger as one logical operation. Works even while
// the engine is disabled (it is an administrative action, not activity).
func (e *Engine) ResetStats() {
	e.run(func() {
		e.stats = defaultStats(e.cfg)
		e.ledger.clear()
		e.resetComboLimiterLocked()
		e.persistStatsLocked()
		e.persistLedgerLocked()
		logrus.Info("progression state reset to defaults")
		e.queueRefreshLocked()
	})
}
