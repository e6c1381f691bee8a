package cover

// Profile carries the two profiling percentages recorded for a line.
type Profile struct {
	Deep    uint8
	Shallow uint8
}

// IsZero reports whether both percentages are zero.
func (p Profile) IsZero() bool { return p.Deep == 0 && p.Shallow == 0 }

// ProfileVector is a fixed length, 0-based per-line profile table.
// Its length is chosen at construction and never changes.
type ProfileVector struct {
	items []Profile
}

// NewProfileVector allocates a vector for n lines. Negative n is treated as 0.
func NewProfileVector(n int) *ProfileVector {
	return &ProfileVector{items: make([]Profile, max(n, 0))}
}

// Len returns the fixed length of the vector.
func (p *ProfileVector) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// Set stores the pair at line. It returns false and stores nothing when
// line is outside [0, Len()).
func (p *ProfileVector) Set(line int, deep, shallow uint8) bool {
	if p == nil || line < 0 || line >= len(p.items) {
		return false
	}
	p.items[line] = Profile{Deep: deep, Shallow: shallow}
	return true
}

// Get returns the pair stored at line, or the zero Profile when line is out of range.
func (p *ProfileVector) Get(line int) Profile {
	if p == nil || line < 0 || line >= len(p.items) {
		return Profile{}
	}
	return p.items[line]
}

// Equal reports whether both vectors have the same length and contents.
func (p *ProfileVector) Equal(other *ProfileVector) bool {
	if p.Len() != other.Len() {
		return false
	}
	for i := range p.Len() {
		if p.items[i] != other.items[i] {
			return false
		}
	}
	return true
}

// Raw flattens the vector to deep,shallow byte pairs.
func (p *ProfileVector) Raw() []byte {
	out := make([]byte, 0, 2*p.Len())
	for i := range p.Len() {
		out = append(out, p.items[i].Deep, p.items[i].Shallow)
	}
	return out
}

// ProfileVectorFromRaw rebuilds a vector from Raw output. A trailing odd
// byte is ignored.
func ProfileVectorFromRaw(raw []byte) *ProfileVector {
	p := NewProfileVector(len(raw) / 2)
	for i := range p.items {
		p.items[i] = Profile{Deep: raw[2*i], Shallow: raw[2*i+1]}
	}
	return p
}
