package driver

import "time"

// PhaseStatus reports whether a phase started or finished.
type PhaseStatus int

const (
	// PhaseStart indicates that a refresh phase has begun.
	PhaseStart PhaseStatus = iota
	PhaseProgress
	PhaseEnd
)

// Refresh phase names, in the order they run.
const (
	PhaseCache  = "cache"
	PhaseParse  = "parse"
	PhasePragma = "pragma"
	PhaseSwap   = "swap"
)

// PhaseEvent describes a refresh phase boundary or progress inside the
// pragma phase, where Done and Total count files.
type PhaseEvent struct {
	Name    string
	Status  PhaseStatus
	Elapsed time.Duration
	Done    int
	Total   int
}

// PhaseObserver receives phase events emitted during Refresh.
// It is called from worker goroutines and must be safe for concurrent use.
type PhaseObserver func(PhaseEvent)
