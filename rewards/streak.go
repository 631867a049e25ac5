package rewards

// StreakResult is the streak state after a check-in.
type StreakResult struct {
	Current     int  `json:"current"`
	Max         int  `json:"max"`
	IsNewRecord bool `json:"isNewRecord"`
}

// NextStreak continues the streak when the user also checked in the previous
// calendar day and restarts it at 1 otherwise. A first-ever check-in passes
// zero for both previous values and yields 1/1 as a new record.
func NextStreak(previous, previousMax int, presentYesterday bool) StreakResult {
	current := 1
	if presentYesterday {
		current = previous + 1
	}
	res := StreakResult{Current: current, Max: previousMax}
	if current > previousMax {
		res.Max = current
		res.IsNewRecord = true
	}
	return res
}
