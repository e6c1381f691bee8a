package cover

// Entry is the coverage data of one source file: line states plus profiles.
type Entry struct {
	Lines   *BitVector
	Profile *ProfileVector
}

// NewEntry pairs a vector with a profile sized to its Count.
func NewEntry(lines *BitVector) *Entry {
	if lines == nil {
		lines = NewBitVector()
	}
	return &Entry{Lines: lines, Profile: NewProfileVector(lines.Count())}
}

// Gutter builds the dense per-line state array used by renderers.
// Index i holds the state of line i; index 0 is always Irrelevant.
func (e *Entry) Gutter() []State {
	if e == nil || e.Lines == nil {
		return nil
	}
	out := make([]State, e.Lines.Count())
	for line, ok := range e.Lines.Enumerate() {
		if ok {
			out[line] = Covered
		} else {
			out[line] = Uncovered
		}
	}
	return out
}

// Clone deep-copies the entry. The profile is shared: it is read-only after parsing.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	return &Entry{Lines: e.Lines.Clone(), Profile: e.Profile}
}

// Equal compares both vectors.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Lines.Equal(other.Lines) && e.Profile.Equal(other.Profile)
}
