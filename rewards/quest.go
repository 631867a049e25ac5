package rewards

import "math"

var rankMultipliers = map[string]float64{
	"S": 3.0,
	"A": 2.0,
	"B": 1.5,
	"C": 1.0,
}

// RankMultiplier returns the reward multiplier for a rank. Unknown ranks get 1.
func RankMultiplier(rank string) float64 {
	if m, ok := rankMultipliers[rank]; ok {
		return m
	}
	return 1.0
}

// QuestReward scales base rewards by the rank multiplier, rounding down.
func QuestReward(baseXP, basePoints int, rank string) (xp, points int) {
	m := RankMultiplier(rank)
	return int(math.Floor(float64(baseXP) * m)), int(math.Floor(float64(basePoints) * m))
}
