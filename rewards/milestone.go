package rewards

// MilestoneBonus returns one ticket per milestone equal to monthlyCount.
// Equality rather than >= makes each milestone fire once per month.
func MilestoneBonus(monthlyCount int, milestones []int) int {
	bonus := 0
	for _, m := range milestones {
		if m == monthlyCount {
			bonus++
		}
	}
	return bonus
}
