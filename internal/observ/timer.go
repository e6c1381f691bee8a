// Package observ collects phase timings of a session refresh.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

type lap struct {
	name  string
	start time.Time
	took  time.Duration
	note  string
}

// Timer records how long each refresh phase takes. A nil *Timer is a valid
// no-op, so callers never need to check whether timings were requested.
type Timer struct {
	mu   sync.Mutex
	laps []lap
}

func NewTimer() *Timer { return &Timer{} }

// Begin opens a phase and returns a handle for End.
func (t *Timer) Begin(name string) int {
	if t == nil {
		return -1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.laps = append(t.laps, lap{name: name, start: time.Now()})
	return len(t.laps) - 1
}

// End closes the phase opened by Begin. Unknown handles are ignored.
func (t *Timer) End(h int, note string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if h < 0 || h >= len(t.laps) {
		return
	}
	t.laps[h].took = time.Since(t.laps[h].start)
	t.laps[h].note = note
}

// Reset forgets all phases; a watching session calls it before each reload.
func (t *Timer) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.laps = t.laps[:0]
	t.mu.Unlock()
}

// PhaseReport is one phase in a Report.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report is the serializable view of a Timer.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	var rep Report
	if t == nil {
		return rep
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, l := range t.laps {
		ms := l.took.Seconds() * 1000
		rep.TotalMS += ms
		rep.Phases = append(rep.Phases, PhaseReport{Name: l.name, DurationMS: ms, Note: l.note})
	}
	return rep
}

// Summary renders the report as an aligned table for --timings.
func (t *Timer) Summary() string {
	rep := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	row := func(name string, ms float64, note string) {
		fmt.Fprintf(&sb, "  %-20s %7.2f ms", name, ms)
		if note != "" {
			fmt.Fprintf(&sb, "  // %s", note)
		}
		sb.WriteByte('\n')
	}
	for _, p := range rep.Phases {
		row(p.Name, p.DurationMS, p.Note)
	}
	row("total", rep.TotalMS, "")
	return sb.String()
}
