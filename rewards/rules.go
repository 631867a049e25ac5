package rewards

// Rules are the tunable reward constants.
type Rules struct {
	CheckinXP        int
	CheckinPoints    int
	CheckinTickets   int
	TicketMilestones []int
	PityThreshold    int
	DailyQuestCount  int
}

// DefaultRules returns the standard reward constants.
func DefaultRules() Rules {
	return Rules{
		CheckinXP:        50,
		CheckinPoints:    10,
		CheckinTickets:   1,
		TicketMilestones: []int{4, 8, 12},
		PityThreshold:    10,
		DailyQuestCount:  3,
	}
}

// Normalize fills zero or invalid fields from DefaultRules.
func (r Rules) Normalize() Rules {
	def := DefaultRules()
	if r.CheckinXP < 0 {
		r.CheckinXP = def.CheckinXP
	}
	if r.CheckinPoints < 0 {
		r.CheckinPoints = def.CheckinPoints
	}
	if r.CheckinTickets < 0 {
		r.CheckinTickets = def.CheckinTickets
	}
	if r.TicketMilestones == nil {
		r.TicketMilestones = def.TicketMilestones
	}
	if r.PityThreshold <= 0 {
		r.PityThreshold = def.PityThreshold
	}
	if r.DailyQuestCount <= 0 {
		r.DailyQuestCount = def.DailyQuestCount
	}
	return r
}
