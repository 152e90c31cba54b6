package gamify

import "time"

// PlayerStats is the singleton progression state. It is owned exclusively
// by the engine; everything handed out is a deep copy.
type PlayerStats struct {
	Level             int         `json:"level"`
	XP                int         `json:"xp"`
	XPToNextLevel     int         `json:"xpToNextLevel"`
	DailyStreak       int         `json:"dailyStreak"`
	LastActiveDate    string      `json:"lastActiveDate"`
	TotalLinesWritten int         `json:"totalLinesWritten"`
	Combo             int         `json:"combo"`
	MaxCombo          int         `json:"maxCombo"`
	BossBattlesWon    int         `json:"bossBattlesWon"`
	CurrentBossBattle *BossBattle `json:"currentBossBattle,omitempty"`
}

// BossBattle is a user-declared objective with named subtasks. Completion
// requires every subtask done; TargetLines is only a secondary progress signal.
type BossBattle struct {
	Name         string    `json:"name"`
	StartTime    time.Time `json:"startTime"`
	TargetLines  int       `json:"targetLines"`
	CurrentLines int       `json:"currentLines"`
	Completed    bool      `json:"completed"`
	Subtasks     []Subtask `json:"subtasks"`
}

// Subtask is a single named step of a boss battle. The set is fixed at
// battle start.
type Subtask struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// AchievementsView is the display snapshot of the two-tier ledger,
// newest first in both tiers.
type AchievementsView struct {
	Temporary []Achievement `json:"temporary"`
	Permanent []Achievement `json:"permanent"`
}

// AssistanceStats is the snapshot of the assistance session tracker.
type AssistanceStats struct {
	TotalSessions int       `json:"totalSessions"`
	Active        bool      `json:"active"`
	LastActivity  time.Time `json:"lastActivity"`
}

func defaultStats(cfg Tuning) PlayerStats {
	return PlayerStats{
		Level:         1,
		XPToNextLevel: cfg.BaseXPToNextLevel,
	}
}

// clone deep-copies the stats, including the active battle and its subtasks.
func (s PlayerStats) clone() PlayerStats {
	out := s
	if s.CurrentBossBattle != nil {
		battle := *s.CurrentBossBattle
		battle.Subtasks = append([]Subtask(nil), s.CurrentBossBattle.Subtasks...)
		out.CurrentBossBattle = &battle
	}
	return out
}
