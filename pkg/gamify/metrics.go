package gamify

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the engine's Prometheus collectors. Attach with
// Engine.AttachMetrics and expose through the metrics server registry.
type Metrics struct {
	EventsProcessed      *prometheus.CounterVec
	XPGranted            prometheus.Counter
	LevelUps             prometheus.Counter
	CombosBroken         prometheus.Counter
	ComboThrottled       prometheus.Counter
	PasteDetections      prometheus.Counter
	BossBattlesWon       prometheus.Counter
	BossBattlesCancelled prometheus.Counter
	AchievementsEmitted  *prometheus.CounterVec

	Level    prometheus.Gauge
	Combo    prometheus.Gauge
	XPToNext prometheus.Gauge
}

// NewMetrics creates the engine collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		EventsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codequest_events_processed_total",
			Help: "Activity events handled, by kind",
		}, []string{"kind"}),
		XPGranted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codequest_xp_granted_total",
			Help: "Total experience points granted",
		}),
		LevelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codequest_level_ups_total",
			Help: "Total level-ups settled",
		}),
		CombosBroken: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codequest_combos_broken_total",
			Help: "Total explicit combo breaks",
		}),
		ComboThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codequest_combo_throttled_total",
			Help: "Combo increments rejected by the rate limiter",
		}),
		PasteDetections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codequest_paste_detections_total",
			Help: "Edits flagged as suspicious bulk pastes",
		}),
		BossBattlesWon: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codequest_boss_battles_won_total",
			Help: "Boss battles completed successfully",
		}),
		BossBattlesCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "codequest_boss_battles_cancelled_total",
			Help: "Boss battles cancelled without reward",
		}),
		AchievementsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codequest_achievements_emitted_total",
			Help: "Achievements added to the ledger",
		}, []string{"type"}),

		Level: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "codequest_player_level",
			Help: "Current player level",
		}),
		Combo: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "codequest_player_combo",
			Help: "Current combo counter",
		}),
		XPToNext: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "codequest_xp_to_next_level",
			Help: "Experience remaining until the next level",
		}),
	}
}

// Register adds all collectors to the given registry.
func (m *Metrics) Register(registry *prometheus.Registry) {
	registry.MustRegister(
		m.EventsProcessed,
		m.XPGranted,
		m.LevelUps,
		m.CombosBroken,
		m.ComboThrottled,
		m.PasteDetections,
		m.BossBattlesWon,
		m.BossBattlesCancelled,
		m.AchievementsEmitted,
		m.Level,
		m.Combo,
		m.XPToNext,
	)
}
