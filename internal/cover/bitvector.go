package cover

import "iter"

type slot uint8

const (
	slotEmpty slot = iota // нет данных по строке
	slotUncovered
	slotCovered
)

// BitVector stores the coverage status of each line of one source file.
// Storage is indexed directly by the 1-based line number, so slot 0 is never
// populated. A line is either absent (no entry), covered or uncovered.
type BitVector struct {
	slots []slot
}

// NewBitVector returns an empty vector.
func NewBitVector() *BitVector {
	return &BitVector{}
}

func (v *BitVector) grow(line int) {
	if line < len(v.slots) {
		return
	}
	if line < cap(v.slots) {
		v.slots = v.slots[:line+1]
		return
	}
	next := make([]slot, line+1, max(line+1, 2*cap(v.slots)))
	copy(next, v.slots)
	v.slots = next
}

// Ensure materialises the slot for line without giving it a value.
// An already populated slot keeps its value.
func (v *BitVector) Ensure(line int) {
	if line <= 0 {
		return
	}
	v.grow(line)
}

// Set stores the covered flag for line, growing storage as needed.
func (v *BitVector) Set(line int, covered bool) {
	if line <= 0 {
		return
	}
	v.grow(line)
	if covered {
		v.slots[line] = slotCovered
	} else {
		v.slots[line] = slotUncovered
	}
}

// Remove reverts line to "no entry". Out of range lines are ignored.
func (v *BitVector) Remove(line int) {
	if line <= 0 || line >= len(v.slots) {
		return
	}
	v.slots[line] = slotEmpty
}

// Get reports the stored value for line; ok is false when the line has no entry.
func (v *BitVector) Get(line int) (covered, ok bool) {
	if line <= 0 || line >= len(v.slots) {
		return false, false
	}
	switch v.slots[line] {
	case slotCovered:
		return true, true
	case slotUncovered:
		return false, true
	}
	return false, false
}

// Count returns the length of the backing storage: one past the highest
// materialised line. It is not the number of populated entries.
func (v *BitVector) Count() int {
	if v == nil {
		return 0
	}
	return len(v.slots)
}

// Enumerate yields (line, covered) for populated entries in line order.
// The sequence can be ranged over any number of times.
func (v *BitVector) Enumerate() iter.Seq2[int, bool] {
	return func(yield func(int, bool) bool) {
		if v == nil {
			return
		}
		for line, s := range v.slots {
			if s == slotEmpty {
				continue
			}
			if !yield(line, s == slotCovered) {
				return
			}
		}
	}
}

// Stats counts covered and uncovered entries.
func (v *BitVector) Stats() (covered, uncovered int) {
	for _, ok := range v.Enumerate() {
		if ok {
			covered++
		} else {
			uncovered++
		}
	}
	return covered, uncovered
}

// Clone returns an independent copy of v.
func (v *BitVector) Clone() *BitVector {
	if v == nil {
		return NewBitVector()
	}
	out := &BitVector{slots: make([]slot, len(v.slots))}
	copy(out.slots, v.slots)
	return out
}

// Equal reports whether both vectors hold the same slots.
func (v *BitVector) Equal(other *BitVector) bool {
	if v.Count() != other.Count() {
		return false
	}
	for i := range v.Count() {
		if v.slots[i] != other.slots[i] {
			return false
		}
	}
	return true
}

// Raw exposes the slot encoding (0 absent, 1 uncovered, 2 covered) for
// serialisation. The returned slice is a copy.
func (v *BitVector) Raw() []byte {
	out := make([]byte, v.Count())
	for i := range out {
		out[i] = byte(v.slots[i])
	}
	return out
}

// BitVectorFromRaw rebuilds a vector from Raw output. Unknown slot values
// become absent entries.
func BitVectorFromRaw(raw []byte) *BitVector {
	v := &BitVector{slots: make([]slot, len(raw))}
	for i, b := range raw {
		if s := slot(b); s <= slotCovered {
			v.slots[i] = s
		}
	}
	return v
}
