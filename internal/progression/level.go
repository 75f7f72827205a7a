package progression

import "math"

const baseLevelCost = 100.0

// LevelCost is the XP needed to advance from level to level+1: floor(100 * 1.5^(level-1)).
func LevelCost(level int) int64 {
	if level < 1 {
		level = 1
	}
	f := math.Floor(baseLevelCost * math.Pow(1.5, float64(level-1)))
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}

// LevelThreshold is the cumulative XP at which level is reached. Level 1 starts at 0.
func LevelThreshold(level int) int64 {
	var total int64
	for l := 1; l < level; l++ {
		cost := LevelCost(l)
		if total > math.MaxInt64-cost {
			return math.MaxInt64
		}
		total += cost
	}
	return total
}

// LevelForXP returns the highest level whose cumulative threshold is <= totalXP, and the XP still
// required to reach the next one. Negative input is treated as 0.
func LevelForXP(totalXP int64) (level int, xpToNext int64) {
	if totalXP < 0 {
		totalXP = 0
	}
	level = 1
	remaining := totalXP
	for {
		cost := LevelCost(level)
		if remaining < cost {
			return level, cost - remaining
		}
		remaining -= cost
		level++
	}
}
