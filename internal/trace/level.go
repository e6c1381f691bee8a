package trace

import (
	"fmt"
	"strings"
)

// Level controls how much is recorded.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // phases, kept for a dump on failure
	LevelPhase        // driver and phase boundaries
	LevelDetail       // plus per-file events
)

var levelNames = [...]string{"off", "error", "phase", "detail"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel reads a --trace-level value. "debug" is an alias for detail.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(s)
	if s == "debug" {
		return LevelDetail, nil
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// Admits reports whether events of the given scope are recorded at l.
func (l Level) Admits(scope Scope) bool {
	switch {
	case l == LevelOff:
		return false
	case l >= LevelDetail:
		return true
	default:
		return scope <= ScopePhase
	}
}
