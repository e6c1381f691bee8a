package cover

// State is the per-line classification consumed by gutter rendering.
type State uint8

const (
	// Irrelevant means there is no coverage data for the line.
	Irrelevant State = iota
	Covered
	Partially
	Uncovered
)

func (s State) String() string {
	switch s {
	case Irrelevant:
		return "irrelevant"
	case Covered:
		return "covered"
	case Partially:
		return "partial"
	case Uncovered:
		return "uncovered"
	}
	return "unknown"
}

// Byte returns the native report character for s.
func (s State) Byte() byte {
	switch s {
	case Covered:
		return 'c'
	case Partially:
		return 'p'
	case Uncovered:
		return 'u'
	}
	return '_'
}

// StateFromByte decodes a native report character. 'c' and 'p' both count
// as covered lines in a BitVector, but keep their distinct states here.
func StateFromByte(c byte) State {
	switch c {
	case 'c':
		return Covered
	case 'p':
		return Partially
	case 'u':
		return Uncovered
	}
	return Irrelevant
}
