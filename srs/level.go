package srs

import "fmt"

// Level is the named quality a user assigns when grading a card, mapped to
// the 0–5 quality scale the scheduler consumes.
type Level int

const (
	Blackout Level = iota
	Failed
	Close
	Hard
	Medium
	Easy
)

var levelNames = [...]string{"BLACKOUT", "FAILED", "CLOSE", "HARD", "MEDIUM", "EASY"}

func (l Level) String() string {
	if l < Blackout || l > Easy {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// Quality returns the 0–5 score for the level.
func (l Level) Quality() int {
	return int(l)
}

// ParseLevel maps a review label to its Level. Unknown labels are rejected
// here, before any state reaches the scheduler.
func ParseLevel(name string) (Level, error) {
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown review level %q", name)
}
