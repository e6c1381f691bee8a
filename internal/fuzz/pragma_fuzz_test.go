package fuzztests

import (
	"strings"
	"testing"

	"covmark/internal/cover"
	"covmark/internal/pragma"
	"covmark/internal/testkit"
)

func FuzzPragmaApplyLines(f *testing.F) {
	addSeeds(f, pragmaSeeds)
	f.Fuzz(func(t *testing.T, input []byte) {
		src := strings.Split(string(clip(input)), "\n")
		lines := cover.NewBitVector()
		for i := 1; i <= len(src)+3; i++ {
			lines.Set(i, i%2 == 0)
		}
		before := lines.Clone()
		pragma.ApplyLines(src, lines)

		if lines.Count() != before.Count() {
			t.Fatalf("Count changed: %d -> %d", before.Count(), lines.Count())
		}
		// маскирование только удаляет, значения не меняются
		for line, covered := range lines.Enumerate() {
			if was, ok := before.Get(line); !ok || was != covered {
				t.Fatalf("line %d changed from (%v,%v) to %v", line, was, ok, covered)
			}
		}
		if err := testkit.CheckEntryInvariants(cover.NewEntry(lines)); err != nil {
			t.Fatalf("invariant: %v", err)
		}
		markers := pragma.Scan(src)
		for i := 1; i < len(markers); i++ {
			if markers[i].Line <= markers[i-1].Line {
				t.Fatalf("markers out of order: %+v", markers)
			}
		}
	})
}
