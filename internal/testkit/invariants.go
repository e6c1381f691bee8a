// Package testkit holds structural checks shared by tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"covmark/internal/cover"
	"covmark/internal/report"
	"covmark/internal/source"
)

// CheckIndexInvariants runs the structural invariants of a parsed index:
// 1) every key is the normalized form of the path it was inserted with
// 2) every entry has a line vector and a profile
// 3) each entry passes CheckEntryInvariants
func CheckIndexInvariants(idx *report.Index) error {
	if idx == nil {
		return fmt.Errorf("nil index")
	}
	keys := idx.Keys()
	if len(keys) != idx.Len() {
		return fmt.Errorf("Keys() has %d items, Len() = %d", len(keys), idx.Len())
	}
	for _, key := range keys {
		if want := source.NormalizeKey(idx.Path(key)); want != key {
			return fmt.Errorf("key %q does not match normalized path %q", key, want)
		}
		e := idx.Entry(key)
		if e == nil {
			return fmt.Errorf("%s: nil entry", key)
		}
		if err := CheckEntryInvariants(e); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

// CheckEntryInvariants checks one entry:
// 1) Enumerate yields strictly increasing lines in [1, Count)
// 2) Stats agrees with Enumerate
// 3) Gutter is dense, Count long, and agrees with Get for every line
func CheckEntryInvariants(e *cover.Entry) error {
	if e.Lines == nil || e.Profile == nil {
		return fmt.Errorf("entry without lines or profile")
	}
	count := e.Lines.Count()
	prev := 0
	covered, uncovered := 0, 0
	for line, ok := range e.Lines.Enumerate() {
		if line <= prev {
			return fmt.Errorf("enumerate out of order: %d after %d", line, prev)
		}
		if line >= count {
			return fmt.Errorf("enumerate past Count: line %d, count %d", line, count)
		}
		prev = line
		if ok {
			covered++
		} else {
			uncovered++
		}
	}
	if c, u := e.Lines.Stats(); c != covered || u != uncovered {
		return fmt.Errorf("Stats() = %d/%d, enumerate saw %d/%d", c, u, covered, uncovered)
	}
	return CheckGutter(e.Lines, e.Gutter())
}

// CheckGutter compares a dense state array with the vector it came from.
func CheckGutter(v *cover.BitVector, states []cover.State) error {
	if len(states) != v.Count() {
		return fmt.Errorf("gutter has %d states, Count() = %d", len(states), v.Count())
	}
	if len(states) > 0 && states[0] != cover.Irrelevant {
		return fmt.Errorf("line 0 is %s, want irrelevant", states[0])
	}
	for line := 1; line < len(states); line++ {
		covered, ok := v.Get(line)
		want := cover.Irrelevant
		switch {
		case ok && covered:
			want = cover.Covered
		case ok:
			want = cover.Uncovered
		}
		if states[line] != want {
			return fmt.Errorf("line %d: gutter %s, vector %s", line, states[line], want)
		}
	}
	return nil
}
