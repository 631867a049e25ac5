package services

import "github.com/cppla/officing/repository"

// RuleError is an expected business-rule rejection. Code is stable and safe
// to show to clients.
type RuleError struct {
	Code    string
	Message string
}

func (e *RuleError) Error() string { return e.Message }

var (
	ErrDuplicateCheckIn      = &RuleError{Code: "duplicate_checkin", Message: "Already checked in today"}
	ErrQuestAlreadyCompleted = &RuleError{Code: "quest_already_completed", Message: "Quest already completed"}
	ErrInsufficientTickets   = &RuleError{Code: "insufficient_tickets", Message: "Insufficient tickets"}
	ErrNoPrizes              = &RuleError{Code: "no_prizes_available", Message: "No available prizes"}
	ErrTitleAlreadyOwned     = &RuleError{Code: "title_already_owned", Message: "Title already owned"}
	ErrTitleNotUnlocked      = &RuleError{Code: "title_not_unlocked", Message: "Title not unlocked"}
	ErrInsufficientPoints    = &RuleError{Code: "insufficient_points", Message: "Insufficient points"}
	ErrNoDailyQuests         = &RuleError{Code: "no_daily_quests", Message: "No daily quests available"}
)

// ErrNotFound means the referenced row does not exist or belongs to someone else.
var ErrNotFound = repository.ErrNotFound

// InvalidRequest builds a rejection for malformed input.
func InvalidRequest(msg string) *RuleError {
	return &RuleError{Code: "invalid_request", Message: msg}
}
