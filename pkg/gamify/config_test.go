package gamify

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTuningValid(t *testing.T) {
	if err := DefaultTuning().Validate(); err != nil {
		t.Errorf("defaults failed validation: %v", err)
	}
}

func TestLoadTuning_EmptyPath(t *testing.T) {
	cfg, err := LoadTuning("")
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	if cfg.BaseXPToNextLevel != 100 {
		t.Errorf("BaseXPToNextLevel = %d, expected default 100", cfg.BaseXPToNextLevel)
	}
}

func TestLoadTuning_MissingFile(t *testing.T) {
	cfg, err := LoadTuning("/nonexistent/engine.yaml")
	if err != nil {
		t.Fatalf("missing file should fall back to defaults, got %v", err)
	}
	if cfg.ComboCooldownMs != 50 {
		t.Errorf("ComboCooldownMs = %d, expected default 50", cfg.ComboCooldownMs)
	}
}

func TestLoadTuning_OverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	content := `
baseXpToNextLevel: 200
comboCooldownMs: 75
bossBaseXp: 300
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	if cfg.BaseXPToNextLevel != 200 || cfg.ComboCooldownMs != 75 || cfg.BossBaseXP != 300 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	// untouched fields keep their defaults
	if cfg.LevelGrowth != 1.5 || cfg.AssistTimeoutSec != 5 {
		t.Errorf("defaults lost: growth=%v assist=%d", cfg.LevelGrowth, cfg.AssistTimeoutSec)
	}
}

func TestLoadTuning_EnvExpansion(t *testing.T) {
	t.Setenv("COMBO_COOLDOWN_MS", "80")
	path := filepath.Join(t.TempDir(), "engine.yaml")
	content := `
comboCooldownMs: ${COMBO_COOLDOWN_MS}
bossBaseXp: ${UNSET_BOSS_XP:150}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	if cfg.ComboCooldownMs != 80 {
		t.Errorf("ComboCooldownMs = %d, expected env value 80", cfg.ComboCooldownMs)
	}
	if cfg.BossBaseXP != 150 {
		t.Errorf("BossBaseXP = %d, expected fallback 150", cfg.BossBaseXP)
	}
}

func TestLoadTuning_InvalidRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte("levelGrowth: 0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTuning(path); err == nil {
		t.Error("expected validation failure for levelGrowth <= 1.0")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Tuning)
	}{
		{"raised cooldown below default", func(c *Tuning) { c.ComboRaisedCooldownMs = 10 }},
		{"history smaller than burst count", func(c *Tuning) { c.ComboHistorySize = 5 }},
		{"zero decay interval", func(c *Tuning) { c.ComboDecayIntervalMs = 0 }},
		{"zero temporary cap", func(c *Tuning) { c.TemporaryCap = 0 }},
		{"inverted boss line range", func(c *Tuning) { c.BossTargetLinesMax = 10 }},
		{"zero assist timeout", func(c *Tuning) { c.AssistTimeoutSec = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultTuning()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
