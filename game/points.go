package game

// LevelThresholds are the minimum scores of levels 1..5.
var LevelThresholds = []int{0, 50, 100, 150, 200}

// MaxBoardScore is where the board rendering stops. Scores keep growing past it.
const MaxBoardScore = 200

// PointsFor returns what a task is worth for userID: the per-user override when
// one exists, the base points otherwise.
func PointsFor(basePoints int, overrides map[string]int, userID string) int {
	if p, ok := overrides[userID]; ok {
		return p
	}
	return basePoints
}

// LevelFor maps a cumulative score to its 1-based level.
func LevelFor(score int) int {
	level := 1
	for i, threshold := range LevelThresholds {
		if score >= threshold {
			level = i + 1
		}
	}
	return level
}
