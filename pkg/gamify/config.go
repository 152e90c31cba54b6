package gamify

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Tuning holds every numeric knob of the progression engine. Values load
// from a YAML file with environment variable expansion; zero-value fields
// fall back to the defaults below. Timing knobs are plain integers
// (milliseconds or seconds) so the file stays unit-explicit.
type Tuning struct {
	// Leveling
	BaseXPToNextLevel int         `yaml:"baseXpToNextLevel"`
	LevelGrowth       float64     `yaml:"levelGrowth"`
	LevelMilestones   map[int]int `yaml:"levelMilestones"` // level -> bonus XP

	// Activity rewards
	XPPerLine           int   `yaml:"xpPerLine"`
	CompletionXP        int   `yaml:"completionXp"`
	XPGainFeedThreshold int   `yaml:"xpGainFeedThreshold"` // min single gain surfaced in the feed
	LineMilestones      []int `yaml:"lineMilestones"`
	StreakMilestones    []int `yaml:"streakMilestones"`

	// Combo engine
	ComboCooldownMs       int `yaml:"comboCooldownMs"`
	ComboRaisedCooldownMs int `yaml:"comboRaisedCooldownMs"`
	ComboBurstWindowMs    int `yaml:"comboBurstWindowMs"`
	ComboBurstCount       int `yaml:"comboBurstCount"`
	ComboHistorySize      int `yaml:"comboHistorySize"`
	ComboDecayIntervalMs  int `yaml:"comboDecayIntervalMs"`
	ComboDecayAfterMs     int `yaml:"comboDecayAfterMs"`

	// Achievement ledger
	TemporaryCap         int `yaml:"temporaryCap"`
	TemporaryLifetimeSec int `yaml:"temporaryLifetimeSec"`
	CleanupIntervalSec   int `yaml:"cleanupIntervalSec"`
	PermanentDisplayCap  int `yaml:"permanentDisplayCap"`

	// Boss battles
	BossBaseXP           int `yaml:"bossBaseXp"`
	BossTimeBonusMax     int `yaml:"bossTimeBonusMax"`
	BossTimeBonusPerMin  int `yaml:"bossTimeBonusPerMin"` // bonus lost per elapsed minute
	BossTargetLinesMin   int `yaml:"bossTargetLinesMin"`
	BossTargetLinesMax   int `yaml:"bossTargetLinesMax"`

	// Assistance sessions
	AssistTimeoutSec int `yaml:"assistTimeoutSec"`
}

// DefaultTuning returns the documented engine defaults.
func DefaultTuning() Tuning {
	return Tuning{
		BaseXPToNextLevel: 100,
		LevelGrowth:       1.5,
		LevelMilestones: map[int]int{
			10:  500,
			25:  2000,
			50:  10000,
			100: 50000,
		},

		XPPerLine:           10,
		CompletionXP:        5,
		XPGainFeedThreshold: 50,
		LineMilestones:      []int{100, 1000, 10000},
		StreakMilestones:    []int{7, 30, 100},

		ComboCooldownMs:       50,
		ComboRaisedCooldownMs: 200,
		ComboBurstWindowMs:    2000,
		ComboBurstCount:       10,
		ComboHistorySize:      20,
		ComboDecayIntervalMs:  1000,
		ComboDecayAfterMs:     3000,

		TemporaryCap:         10,
		TemporaryLifetimeSec: 30,
		CleanupIntervalSec:   60,
		PermanentDisplayCap:  20,

		BossBaseXP:          100,
		BossTimeBonusMax:    50,
		BossTimeBonusPerMin: 2,
		BossTargetLinesMin:  20,
		BossTargetLinesMax:  120,

		AssistTimeoutSec: 5,
	}
}

// LoadTuning loads tuning from a YAML file. An empty path returns the
// defaults; a readable file overrides only the fields it sets. Supports
// environment variable expansion in the form ${VAR_NAME} or ${VAR_NAME:default}.
func LoadTuning(path string) (Tuning, error) {
	cfg := DefaultTuning()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Warnf("tuning file %s not found, using defaults", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read tuning file %s: %w", path, err)
	}

	expanded := expandEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse tuning YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid tuning: %w", err)
	}
	return cfg, nil
}

// Validate rejects tuning values the engine cannot run with.
func (t Tuning) Validate() error {
	if t.BaseXPToNextLevel < 1 {
		return fmt.Errorf("baseXpToNextLevel must be >= 1, got %d", t.BaseXPToNextLevel)
	}
	if t.LevelGrowth <= 1.0 {
		return fmt.Errorf("levelGrowth must be > 1.0, got %v", t.LevelGrowth)
	}
	if t.ComboCooldownMs < 0 || t.ComboRaisedCooldownMs < t.ComboCooldownMs {
		return fmt.Errorf("combo cooldowns invalid: default=%dms raised=%dms", t.ComboCooldownMs, t.ComboRaisedCooldownMs)
	}
	if t.ComboHistorySize < t.ComboBurstCount {
		return fmt.Errorf("comboHistorySize (%d) must be >= comboBurstCount (%d)", t.ComboHistorySize, t.ComboBurstCount)
	}
	if t.ComboDecayIntervalMs < 1 {
		return fmt.Errorf("comboDecayIntervalMs must be >= 1, got %d", t.ComboDecayIntervalMs)
	}
	if t.TemporaryCap < 1 {
		return fmt.Errorf("temporaryCap must be >= 1, got %d", t.TemporaryCap)
	}
	if t.BossTargetLinesMin < 1 || t.BossTargetLinesMax < t.BossTargetLinesMin {
		return fmt.Errorf("boss target line range invalid: [%d, %d]", t.BossTargetLinesMin, t.BossTargetLinesMax)
	}
	if t.AssistTimeoutSec < 1 {
		return fmt.Errorf("assistTimeoutSec must be >= 1, got %d", t.AssistTimeoutSec)
	}
	return nil
}

func (t Tuning) comboCooldown() time.Duration       { return time.Duration(t.ComboCooldownMs) * time.Millisecond }
func (t Tuning) comboRaisedCooldown() time.Duration { return time.Duration(t.ComboRaisedCooldownMs) * time.Millisecond }
func (t Tuning) comboBurstWindow() time.Duration    { return time.Duration(t.ComboBurstWindowMs) * time.Millisecond }
func (t Tuning) decayInterval() time.Duration       { return time.Duration(t.ComboDecayIntervalMs) * time.Millisecond }
func (t Tuning) decayAfter() time.Duration          { return time.Duration(t.ComboDecayAfterMs) * time.Millisecond }
func (t Tuning) temporaryLifetime() time.Duration   { return time.Duration(t.TemporaryLifetimeSec) * time.Second }
func (t Tuning) cleanupInterval() time.Duration     { return time.Duration(t.CleanupIntervalSec) * time.Second }
func (t Tuning) assistTimeout() time.Duration       { return time.Duration(t.AssistTimeoutSec) * time.Second }

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}.
func expandEnvVars(s string) string {
	return os.Expand(s, func(key string) string {
		parts := strings.SplitN(key, ":", 2)
		varName := parts[0]
		defaultValue := ""
		if len(parts) == 2 {
			defaultValue = parts[1]
		}

		value := os.Getenv(varName)
		if value == "" {
			return defaultValue
		}
		return value
	})
}
