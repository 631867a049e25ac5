package rewards

import (
	"encoding/json"

	"github.com/cppla/officing/models"
)

// Trigger is the event that runs title evaluation.
type Trigger int

const (
	TriggerCheckIn Trigger = iota + 1
	TriggerQuest
)

// String returns the trigger name used in logs.
func (t Trigger) String() string {
	switch t {
	case TriggerCheckIn:
		return "checkin"
	case TriggerQuest:
		return "quest"
	}
	return "unknown"
}

// Evaluates is the routing rule between triggers and condition types.
// Check-in owns streak, attendance and tag; quest completion owns quest;
// both evaluate level. Unknown types are never evaluated.
func (t Trigger) Evaluates(conditionType string) bool {
	switch conditionType {
	case models.ConditionLevel:
		return t == TriggerCheckIn || t == TriggerQuest
	case models.ConditionStreak, models.ConditionAttendance, models.ConditionTag:
		return t == TriggerCheckIn
	case models.ConditionQuest:
		return t == TriggerQuest
	}
	return false
}

// Condition is the decoded unlock_condition_value payload.
type Condition struct {
	Threshold int    `json:"threshold"`
	Count     int    `json:"count"`
	Level     int    `json:"level"`
	Tag       string `json:"tag"`
}

// ParseCondition decodes a condition payload. Empty input yields a zero condition.
func ParseCondition(raw []byte) (Condition, error) {
	var c Condition
	if len(raw) == 0 {
		return c, nil
	}
	err := json.Unmarshal(raw, &c)
	return c, err
}

// Stats are the aggregates a title condition is checked against. Tag and
// TagCount describe only the tag of the triggering check-in.
type Stats struct {
	Level           int
	CurrentStreak   int
	TotalAttendance int
	CompletedQuests int
	Tag             string
	TagCount        int
}

// Qualifies reports whether a condition is met under trigger. A zero threshold
// never qualifies.
func Qualifies(conditionType string, c Condition, s Stats, trigger Trigger) bool {
	if !trigger.Evaluates(conditionType) {
		return false
	}
	switch conditionType {
	case models.ConditionStreak:
		return c.Threshold > 0 && s.CurrentStreak >= c.Threshold
	case models.ConditionAttendance:
		return c.Count > 0 && s.TotalAttendance >= c.Count
	case models.ConditionLevel:
		return c.Level > 0 && s.Level >= c.Level
	case models.ConditionQuest:
		return c.Count > 0 && s.CompletedQuests >= c.Count
	case models.ConditionTag:
		return c.Tag != "" && c.Tag == s.Tag && c.Count > 0 && s.TagCount >= c.Count
	}
	return false
}
