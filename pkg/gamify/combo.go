package gamify

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// IncrementCombo records one qualifying activity event. Calls inside the
// rate-limit cooldown window are rejected without any state change; the
// cooldown adapts upward while a paste-like burst is in flight. Reports
// whether the increment was accepted.
func (e *Engine) IncrementCombo() bool {
	accepted := false
	e.run(func() {
		if !e.enabled {
			return
		}

		now := e.clk.Now()
		cooldown := e.cfg.comboCooldown()
		if e.raisedCooldown {
			cooldown = e.cfg.comboRaisedCooldown()
		}
		if !e.lastAccepted.IsZero() && now.Sub(e.lastAccepted) < cooldown {
			if e.metrics != nil {
				e.metrics.ComboThrottled.Inc()
			}
			return
		}

		accepted = true
		e.lastAccepted = now
		e.lastComboActivity = now
		e.recordAcceptedLocked(now)

		e.stats.Combo++
		if e.stats.Combo > e.stats.MaxCombo {
			e.stats.MaxCombo = e.stats.Combo
		}

		e.queueImpactLocked()
		if e.stats.Combo >= 5 {
			e.queueMultiplierLocked(e.stats.Combo)
			if e.stats.Combo%5 == 0 {
				e.addXPLocked(e.stats.Combo, "combo bonus")
			}
		}
		e.comboMilestoneLocked(e.stats.Combo)

		e.persistStatsLocked()
		e.queueRefreshLocked()
	})
	return accepted
}

// recordAcceptedLocked pushes an accepted increment into the fixed-size
// history ring and re-evaluates the adaptive cooldown: enough accepted
// increments inside the burst window means the activity looks pasted or
// machine-generated, so the cooldown is raised until the burst subsides.
func (e *Engine) recordAcceptedLocked(now time.Time) {
	e.comboHistory[e.comboHistoryNext] = now
	e.comboHistoryNext = (e.comboHistoryNext + 1) % len(e.comboHistory)
	if e.comboHistoryLen < len(e.comboHistory) {
		e.comboHistoryLen++
	}

	window := e.cfg.comboBurstWindow()
	recent := 0
	for i := 0; i < e.comboHistoryLen; i++ {
		if now.Sub(e.comboHistory[i]) <= window {
			recent++
		}
	}

	raised := recent >= e.cfg.ComboBurstCount
	if raised != e.raisedCooldown {
		e.raisedCooldown = raised
		if raised {
			logrus.Debugf("combo cooldown raised to %dms (%d increments in %v)",
				e.cfg.ComboRaisedCooldownMs, recent, window)
		} else {
			logrus.Debugf("combo cooldown relaxed to %dms", e.cfg.ComboCooldownMs)
		}
	}
}

func (e *Engine) comboMilestoneLocked(combo int) {
	now := e.clk.Now()
	switch {
	case combo >= 50 && combo%50 == 0:
		e.addAchievementLocked(Achievement{
			ID:          fmt.Sprintf("combo_%d", combo),
			Title:       fmt.Sprintf("Combo x%d", combo),
			Description: fmt.Sprintf("Hit a %d combo", combo),
			Icon:        "⚡",
			Type:        AchievementPermanent,
			Timestamp:   now,
			Category:    CategoryCombo,
			Data:        ComboPayload{Combo: combo},
		})
	case combo == 10 || combo == 25 || (combo > 20 && combo%10 == 0):
		e.addAchievementLocked(Achievement{
			ID:          fmt.Sprintf("combo_feed_%d_%d", combo, now.UnixNano()),
			Title:       fmt.Sprintf("Combo x%d", combo),
			Description: fmt.Sprintf("Hit a %d combo", combo),
			Icon:        "⚡",
			Type:        AchievementTemporary,
			Timestamp:   now,
			Category:    CategoryCombo,
			Data:        ComboPayload{Combo: combo},
		})
	}
}

// BreakCombo resets the combo to zero unconditionally. MaxCombo is
// untouched; this is the explicit break, distinct from idle decay.
func (e *Engine) BreakCombo() {
	e.run(func() {
		if !e.enabled {
			return
		}
		e.breakComboLocked()
		e.persistStatsLocked()
		e.queueRefreshLocked()
	})
}

func (e *Engine) breakComboLocked() {
	if e.stats.Combo == 0 {
		return
	}
	logrus.Debugf("combo broken at %d", e.stats.Combo)
	e.stats.Combo = 0
	if e.metrics != nil {
		e.metrics.CombosBroken.Inc()
	}
}

// DetectCopyPaste handles an edit the upstream classifier flagged as a
// suspicious bulk paste: the combo breaks and the feed shows why.
func (e *Engine) DetectCopyPaste() {
	e.run(func() {
		if !e.enabled {
			return
		}
		prev := e.stats.Combo
		e.breakComboLocked()
		if e.metrics != nil {
			e.metrics.PasteDetections.Inc()
		}

		e.addAchievementLocked(Achievement{
			ID:          fmt.Sprintf("paste_%d", e.clk.Now().UnixNano()),
			Title:       "Paste Detected",
			Description: "Bulk paste broke the combo",
			Icon:        "📋",
			Type:        AchievementTemporary,
			Timestamp:   e.clk.Now(),
			Category:    CategoryCombo,
			Data:        ComboPayload{Combo: prev},
		})

		e.persistStatsLocked()
		e.queueRefreshLocked()
	})
}

// onDecayTick removes exactly one combo point when the combo has idled
// past the decay threshold. Runs every decay interval; suppressed while
// the engine is disabled.
func (e *Engine) onDecayTick() {
	e.run(func() {
		if !e.enabled || e.stats.Combo == 0 {
			return
		}
		if e.clk.Now().Sub(e.lastComboActivity) <= e.cfg.decayAfter() {
			return
		}
		e.stats.Combo--
		logrus.Debugf("combo decayed to %d", e.stats.Combo)
		e.persistStatsLocked()
		e.queueRefreshLocked()
	})
}

// resetComboLimiterLocked clears the rate limiter history alongside a
// stats reset.
func (e *Engine) resetComboLimiterLocked() {
	e.comboHistory = make([]time.Time, e.cfg.ComboHistorySize)
	e.comboHistoryLen = 0
	e.comboHistoryNext = 0
	e.lastAccepted = time.Time{}
	e.lastComboActivity = time.Time{}
	e.raisedCooldown = false
}
