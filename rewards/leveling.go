// Package rewards holds the pure reward calculations: leveling, streaks,
// quest multipliers, ticket milestones, title conditions and the weighted
// lottery draw. Nothing here touches storage.
package rewards

import (
	"errors"
	"math"
)

var (
	// ErrInvalidLevel is returned for levels below 1.
	ErrInvalidLevel = errors.New("level must be at least 1")
	// ErrNegativeXP is returned for negative XP inputs.
	ErrNegativeXP = errors.New("xp must not be negative")
)

// XPRequiredForLevel returns floor(100 * level^1.5).
func XPRequiredForLevel(level int) (int, error) {
	if level < 1 {
		return 0, ErrInvalidLevel
	}
	return int(math.Floor(100 * math.Pow(float64(level), 1.5))), nil
}

// LevelResult is the outcome of ApplyXP.
type LevelResult struct {
	Level        int  `json:"level"`
	XP           int  `json:"xp"`
	LeveledUp    bool `json:"leveledUp"`
	LevelsGained int  `json:"levelsGained"`
}

// ApplyXP adds gained XP and rolls over into as many levels as it covers.
// The returned XP is the remainder below the next level's requirement.
func ApplyXP(level, xp, gained int) (LevelResult, error) {
	if level < 1 {
		return LevelResult{}, ErrInvalidLevel
	}
	if xp < 0 || gained < 0 {
		return LevelResult{}, ErrNegativeXP
	}

	res := LevelResult{Level: level, XP: xp + gained}
	for {
		need, _ := XPRequiredForLevel(res.Level + 1)
		if res.XP < need {
			break
		}
		res.XP -= need
		res.Level++
		res.LevelsGained++
	}
	res.LeveledUp = res.LevelsGained > 0
	return res, nil
}

// NextLevelXP is the requirement for the level after level, or 0 for invalid input.
func NextLevelXP(level int) int {
	need, err := XPRequiredForLevel(level + 1)
	if err != nil {
		return 0
	}
	return need
}
