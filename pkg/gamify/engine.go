// Package gamify implements the progression engine: experience and
// leveling, the combo accumulation/decay state machine, boss battle
// objectives, the two-tier achievement ledger, and assistance session
// tracking. State persists as opaque blobs through a store.Gateway and all
// timing flows through an injected clock so tests run on virtual time.
package gamify

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/DiegoPatterson/CodeQuest/pkg/clock"
	"github.com/DiegoPatterson/CodeQuest/pkg/store"
)

// Persistence keys under the gateway's namespace.
const (
	KeyStats        = "stats"
	KeyAchievements = "achievements"
	KeyEnabled      = "enabled"
)

// Engine owns all progression state. Construct with NewEngine, call Start
// to load persisted state and begin the periodic decay/cleanup activities,
// and Stop to cancel them. Every exported method is safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	cfg     Tuning
	gateway store.Gateway
	clk     clock.Clock
	metrics *Metrics
	rng     *rand.Rand
	ctx     context.Context

	enabled bool
	stats   PlayerStats
	ledger  ledger
	assist  assistSession

	// combo rate limiter: ring buffer of the last accepted increment times
	comboHistory      []time.Time
	comboHistoryLen   int
	comboHistoryNext  int
	lastAccepted      time.Time
	lastComboActivity time.Time
	raisedCooldown    bool

	refreshCb    func()
	impactCb     func()
	multiplierCb func(combo int)

	decayHandle   clock.Handle
	cleanupHandle clock.Handle

	// callbacks queued during a mutation, fired after the state has
	// settled and the lock is released
	pending []func()
}

// NewEngine creates an engine with default state. Nothing is loaded or
// scheduled until Start.
func NewEngine(gateway store.Gateway, clk clock.Clock, cfg Tuning) *Engine {
	return &Engine{
		cfg:          cfg,
		gateway:      gateway,
		clk:          clk,
		rng:          rand.New(rand.NewSource(clk.Now().UnixNano())),
		ctx:          context.Background(),
		enabled:      true,
		stats:        defaultStats(cfg),
		comboHistory: make([]time.Time, cfg.ComboHistorySize),
	}
}

// AttachMetrics wires Prometheus collectors into the engine. Optional;
// a nil metrics set disables instrumentation.
func (e *Engine) AttachMetrics(m *Metrics) {
	e.mu.Lock()
	e.metrics = m
	e.mu.Unlock()
}

// Start loads persisted state (falling back to defaults on missing or
// malformed blobs) and schedules the combo decay and achievement cleanup
// ticks. Calling Start on a started engine is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.decayHandle != nil {
		return
	}
	e.ctx = ctx
	e.loadLocked(ctx)

	e.decayHandle = e.clk.Every(e.cfg.decayInterval(), e.onDecayTick)
	e.cleanupHandle = e.clk.Every(e.cfg.cleanupInterval(), e.onCleanupTick)
	logrus.Infof("progression engine started (enabled=%v, level=%d, xp=%d/%d)",
		e.enabled, e.stats.Level, e.stats.XP, e.stats.XPToNextLevel)
}

// Stop cancels the periodic activities. The engine's synchronous API keeps
// working; only the ticks stop, and they do not resurrect.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.decayHandle != nil {
		e.decayHandle.Stop()
		e.decayHandle = nil
	}
	if e.cleanupHandle != nil {
		e.cleanupHandle.Stop()
		e.cleanupHandle = nil
	}
	logrus.Info("progression engine stopped")
}

// loadLocked restores stats, achievements and the enabled flag. Any read
// failure falls back to documented defaults; initialization never fails.
func (e *Engine) loadLocked(ctx context.Context) {
	var stats PlayerStats
	found, err := e.gateway.Get(ctx, KeyStats, &stats)
	if err != nil {
		logrus.Warnf("failed to load stats, using defaults: %v", err)
	} else if found {
		e.stats = normalizeStats(stats, e.cfg)
	}

	var led ledger
	found, err = e.gateway.Get(ctx, KeyAchievements, &led)
	if err != nil {
		logrus.Warnf("failed to load achievements, using empty ledger: %v", err)
	} else if found {
		e.ledger = led
	}

	enabled := true
	if _, err := e.gateway.Get(ctx, KeyEnabled, &enabled); err != nil {
		logrus.Warnf("failed to load enabled flag, defaulting to on: %v", err)
		enabled = true
	}
	e.enabled = enabled

	e.syncGaugesLocked()
}

// normalizeStats repairs a persisted blob that violates the data model
// invariants, rather than refusing to initialize.
func normalizeStats(s PlayerStats, cfg Tuning) PlayerStats {
	if s.Level < 1 {
		s.Level = 1
	}
	if s.XPToNextLevel < 1 {
		s.XPToNextLevel = cfg.BaseXPToNextLevel
	}
	if s.XP < 0 {
		s.XP = 0
	}
	if s.MaxCombo < s.Combo {
		s.MaxCombo = s.Combo
	}
	return s
}

// run executes fn under the engine lock, then fires any callbacks the
// mutation queued. Hooks always observe fully settled, persisted state and
// can never abort a mutation.
func (e *Engine) run(fn func()) {
	e.mu.Lock()
	fn()
	cbs := e.pending
	e.pending = nil
	e.mu.Unlock()

	for _, cb := range cbs {
		safeInvoke(cb)
	}
}

func safeInvoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Warnf("engine callback panicked: %v", r)
		}
	}()
	fn()
}

func (e *Engine) queueRefreshLocked() {
	if cb := e.refreshCb; cb != nil {
		e.pending = append(e.pending, cb)
	}
}

func (e *Engine) queueImpactLocked() {
	if cb := e.impactCb; cb != nil {
		e.pending = append(e.pending, cb)
	}
}

func (e *Engine) queueMultiplierLocked(combo int) {
	if cb := e.multiplierCb; cb != nil {
		e.pending = append(e.pending, func() { cb(combo) })
	}
}

// SetRefreshCallback registers the redraw hook fired after any state
// mutation worth re-rendering. Single subscriber; setting replaces the
// previous one.
func (e *Engine) SetRefreshCallback(fn func()) {
	e.mu.Lock()
	e.refreshCb = fn
	e.mu.Unlock()
}

// SetImpactCallback registers the per-accepted-keystroke feedback hook.
func (e *Engine) SetImpactCallback(fn func()) {
	e.mu.Lock()
	e.impactCb = fn
	e.mu.Unlock()
}

// SetMultiplierCallback registers the hook fired with the current combo
// once it reaches the multiplier threshold.
func (e *Engine) SetMultiplierCallback(fn func(combo int)) {
	e.mu.Lock()
	e.multiplierCb = fn
	e.mu.Unlock()
}

// IsEnabled reports whether mutations are currently applied.
func (e *Engine) IsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

// ToggleEnabled flips the engine on or off and persists the flag. While
// off, every mutating call is a silent no-op and decay is suppressed.
// Returns the new state.
func (e *Engine) ToggleEnabled() bool {
	var enabled bool
	e.run(func() {
		e.enabled = !e.enabled
		enabled = e.enabled
		if err := e.gateway.Set(e.ctx, KeyEnabled, e.enabled); err != nil {
			logrus.Warnf("failed to persist enabled flag: %v", err)
		}
		logrus.Infof("progression engine enabled=%v", e.enabled)
		e.queueRefreshLocked()
	})
	return enabled
}

// GetStats returns a deep-copied snapshot of the player stats.
func (e *Engine) GetStats() PlayerStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.clone()
}

// GetAchievementsForDisplay returns newest-first snapshots of both
// achievement tiers. If the periodic cleanup is overdue (the scheduler may
// have been stopped), expiry runs lazily here so staleness stays bounded.
func (e *Engine) GetAchievementsForDisplay() AchievementsView {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clk.Now()
	if now.Sub(e.ledger.LastCleanup) > e.cfg.cleanupInterval() {
		if e.ledger.cleanup(now, e.cfg.temporaryLifetime()) {
			e.persistLedgerLocked()
		}
	}

	temp, perm := e.ledger.forDisplay(e.cfg.TemporaryCap, e.cfg.PermanentDisplayCap)
	return AchievementsView{Temporary: temp, Permanent: perm}
}

// onCleanupTick expires aged temporary achievements.
func (e *Engine) onCleanupTick() {
	e.run(func() {
		if e.ledger.cleanup(e.clk.Now(), e.cfg.temporaryLifetime()) {
			e.persistLedgerLocked()
			e.queueRefreshLocked()
		}
	})
}

// addAchievementLocked inserts into the ledger and persists it when the
// ledger actually changed (permanent duplicates do not).
func (e *Engine) addAchievementLocked(a Achievement) {
	if !e.ledger.add(a, e.cfg.TemporaryCap) {
		return
	}
	if e.metrics != nil {
		e.metrics.AchievementsEmitted.WithLabelValues(string(a.Type)).Inc()
	}
	e.persistLedgerLocked()
}

func (e *Engine) persistStatsLocked() {
	if err := e.gateway.Set(e.ctx, KeyStats, e.stats); err != nil {
		logrus.Warnf("failed to persist stats: %v", err)
	}
	e.syncGaugesLocked()
}

func (e *Engine) persistLedgerLocked() {
	if err := e.gateway.Set(e.ctx, KeyAchievements, e.ledger); err != nil {
		logrus.Warnf("failed to persist achievements: %v", err)
	}
}

func (e *Engine) syncGaugesLocked() {
	if e.metrics == nil {
		return
	}
	e.metrics.Level.Set(float64(e.stats.Level))
	e.metrics.Combo.Set(float64(e.stats.Combo))
	e.metrics.XPToNext.Set(float64(e.stats.XPToNextLevel - e.stats.XP))
}
