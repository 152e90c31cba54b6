package gamify

import (
	"encoding/json"
	"fmt"
	"time"
)

// AchievementType separates the auto-expiring notification feed from the
// durable milestone record.
type AchievementType string

const (
	AchievementTemporary AchievementType = "temporary"
	AchievementPermanent AchievementType = "permanent"
)

// Category classifies what kind of event earned an achievement. It also
// keys the typed Data payload.
type Category string

const (
	CategoryLevel     Category = "level"
	CategoryCombo     Category = "combo"
	CategoryBoss      Category = "boss"
	CategoryStreak    Category = "streak"
	CategoryMilestone Category = "milestone"
)

// Payload is the tagged union attached to an achievement, keyed by its
// Category. Every variant carries only the fields its category needs.
type Payload interface {
	payloadCategory() Category
}

// LevelPayload accompanies level milestone achievements.
type LevelPayload struct {
	Level   int `json:"level"`
	BonusXP int `json:"bonusXp,omitempty"`
}

// ComboPayload accompanies combo milestone (and combo loss) achievements.
type ComboPayload struct {
	Combo int `json:"combo"`
}

// BossPayload accompanies boss victory achievements.
type BossPayload struct {
	Name            string `json:"name"`
	DurationSeconds int    `json:"durationSeconds"`
	RewardXP        int    `json:"rewardXp"`
}

// StreakPayload accompanies daily streak achievements.
type StreakPayload struct {
	Days int `json:"days"`
}

// MilestonePayload accompanies generic counter milestones (total lines,
// single large XP gains).
type MilestonePayload struct {
	Metric string `json:"metric"`
	Value  int    `json:"value"`
}

func (LevelPayload) payloadCategory() Category     { return CategoryLevel }
func (ComboPayload) payloadCategory() Category     { return CategoryCombo }
func (BossPayload) payloadCategory() Category      { return CategoryBoss }
func (StreakPayload) payloadCategory() Category    { return CategoryStreak }
func (MilestonePayload) payloadCategory() Category { return CategoryMilestone }

// Achievement is a single ledger entry. Permanent achievements are
// deduplicated by ID; temporary ones are not, so each qualifying event may
// produce a fresh entry.
type Achievement struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Type        AchievementType `json:"type"`
	Timestamp   time.Time       `json:"timestamp"`
	Category    Category        `json:"category,omitempty"`
	Data        Payload         `json:"data,omitempty"`
}

type achievementJSON struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Type        AchievementType `json:"type"`
	Timestamp   time.Time       `json:"timestamp"`
	Category    Category        `json:"category,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// MarshalJSON flattens the typed payload into the "data" field.
func (a Achievement) MarshalJSON() ([]byte, error) {
	out := achievementJSON{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Icon:        a.Icon,
		Type:        a.Type,
		Timestamp:   a.Timestamp,
		Category:    a.Category,
	}
	if a.Data != nil {
		raw, err := json.Marshal(a.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal achievement data: %w", err)
		}
		out.Data = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores the payload variant matching the category.
// Unknown categories keep a nil payload rather than failing, so older
// persisted blobs never break initialization.
func (a *Achievement) UnmarshalJSON(data []byte) error {
	var in achievementJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	a.ID = in.ID
	a.Title = in.Title
	a.Description = in.Description
	a.Icon = in.Icon
	a.Type = in.Type
	a.Timestamp = in.Timestamp
	a.Category = in.Category
	a.Data = nil

	if len(in.Data) == 0 {
		return nil
	}

	switch in.Category {
	case CategoryLevel:
		var p LevelPayload
		if err := json.Unmarshal(in.Data, &p); err != nil {
			return err
		}
		a.Data = p
	case CategoryCombo:
		var p ComboPayload
		if err := json.Unmarshal(in.Data, &p); err != nil {
			return err
		}
		a.Data = p
	case CategoryBoss:
		var p BossPayload
		if err := json.Unmarshal(in.Data, &p); err != nil {
			return err
		}
		a.Data = p
	case CategoryStreak:
		var p StreakPayload
		if err := json.Unmarshal(in.Data, &p); err != nil {
			return err
		}
		a.Data = p
	case CategoryMilestone:
		var p MilestonePayload
		if err := json.Unmarshal(in.Data, &p); err != nil {
			return err
		}
		a.Data = p
	}
	return nil
}

// ledger holds the two achievement tiers. It is owned by the engine and
// only touched under the engine lock; methods take explicit timestamps so
// all timing flows through the injected clock.
type ledger struct {
	Temporary   []Achievement `json:"temporary"`
	Permanent   []Achievement `json:"permanent"`
	LastCleanup time.Time     `json:"lastCleanup"`
}

// add appends a temporary achievement (evicting oldest-first past cap) or
// inserts a permanent one if its ID is new. Reports whether the ledger changed.
func (l *ledger) add(a Achievement, temporaryCap int) bool {
	switch a.Type {
	case AchievementTemporary:
		l.Temporary = append(l.Temporary, a)
		for len(l.Temporary) > temporaryCap {
			l.Temporary = l.Temporary[1:]
		}
		return true
	case AchievementPermanent:
		for _, existing := range l.Permanent {
			if existing.ID == a.ID {
				return false
			}
		}
		l.Permanent = append(l.Permanent, a)
		return true
	default:
		return false
	}
}

// cleanup drops temporary achievements older than lifetime. Reports
// whether anything was removed.
func (l *ledger) cleanup(now time.Time, lifetime time.Duration) bool {
	l.LastCleanup = now

	kept := l.Temporary[:0]
	for _, a := range l.Temporary {
		if now.Sub(a.Timestamp) <= lifetime {
			kept = append(kept, a)
		}
	}
	removed := len(l.Temporary) != len(kept)
	l.Temporary = kept
	return removed
}

// forDisplay returns newest-first copies of both tiers, capped, without
// mutating the underlying order.
func (l *ledger) forDisplay(temporaryCap, permanentCap int) ([]Achievement, []Achievement) {
	return newestFirst(l.Temporary, temporaryCap), newestFirst(l.Permanent, permanentCap)
}

func (l *ledger) clear() {
	l.Temporary = nil
	l.Permanent = nil
}

func newestFirst(entries []Achievement, cap int) []Achievement {
	n := len(entries)
	if cap > 0 && n > cap {
		n = cap
	}
	out := make([]Achievement, 0, n)
	for i := len(entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, entries[i])
	}
	return out
}
