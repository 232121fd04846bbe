package game

import "fmt"

// GateRange is how close (in points) a user must be to the next gate before it
// starts blocking low-value tasks.
const GateRange = 10

// Lock is the result of a gate evaluation for one task and one user.
type Lock struct {
	Locked         bool     `json:"locked"`
	Reason         string   `json:"reason,omitempty"`
	RequiredPoints int      `json:"requiredPoints,omitempty"`
	Gate           *Monster `json:"gate,omitempty"`
}

// NextGate returns the lowest gate whose MinScore is above score.
// ms must be ordered by MinScore.
func NextGate(score int, ms []Monster) (Monster, bool) {
	for _, m := range ms {
		if m.MinScore > score {
			return m, true
		}
	}
	return Monster{}, false
}

// LockStatus decides whether a task worth points is locked for a user at score.
func LockStatus(points, score int, ms []Monster) Lock {
	gate, ok := NextGate(score, ms)
	if !ok {
		return Lock{}
	}
	if gate.MinScore-score > GateRange {
		return Lock{}
	}
	if points >= gate.MinTaskValue {
		return Lock{}
	}
	return Lock{
		Locked:         true,
		Reason:         fmt.Sprintf("You are approaching %s! To get past it you need a task worth at least %d points.", gate.Name, gate.MinTaskValue),
		RequiredPoints: gate.MinTaskValue,
		Gate:           &gate,
	}
}
