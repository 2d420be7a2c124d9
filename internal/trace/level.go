package trace

import (
	"fmt"
	"strings"
)

// Level controls how much is traced.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // ring buffer only, dumped when a build fails
	LevelPhase        // driver, programs and passes
	LevelDetail       // plus every function
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelPhase:
		return "phase"
	case LevelDetail:
		return "detail"
	}
	return "unknown"
}

// ParseLevel parses a --trace-level value.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "phase":
		return LevelPhase, nil
	case "detail":
		return LevelDetail, nil
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (expected off|error|phase|detail)", s)
}

// ShouldEmit reports whether events of scope are recorded at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelError, LevelDetail:
		return true
	case LevelPhase:
		return scope <= ScopePass
	}
	return false
}
