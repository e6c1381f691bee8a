package fuzztests

import (
	"bytes"
	"io/fs"
	"testing"
	"time"

	"covmark/internal/diag"
	"covmark/internal/report"
	"covmark/internal/testkit"
)

// parseTimeout is the maximum time allowed for parsing a single input.
// If parsing takes longer, the resync logic probably loops.
const parseTimeout = 5 * time.Second

func statOK(string) (fs.FileInfo, error) { return nil, nil }

func FuzzReportParse(f *testing.F) {
	addSeeds(f, reportSeeds)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clip(input)
		bag := diag.NewBag(128)
		done := make(chan struct{})
		var (
			idx *report.Index
			err error
		)
		go func() {
			defer close(done)
			idx, err = report.Parse(bytes.NewReader(input), report.Options{
				BaseDir:  "/base",
				Reporter: diag.BagReporter{Bag: bag},
				Stat:     statOK,
			})
		}()
		select {
		case <-done:
		case <-time.After(parseTimeout):
			t.Fatalf("parse did not finish in %s on %q", parseTimeout, input)
		}
		if err != nil {
			t.Fatalf("in-memory parse failed: %v", err)
		}
		if err := testkit.CheckIndexInvariants(idx); err != nil {
			t.Fatalf("invariant: %v\ninput: %q", err, input)
		}
	})
}

// FuzzReportRoundTrip checks that writing a parsed index and parsing it
// again gives an Equal index.
func FuzzReportRoundTrip(f *testing.F) {
	addSeeds(f, reportSeeds)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clip(input)
		opts := report.Options{BaseDir: "/base", Stat: statOK}
		first, err := report.Parse(bytes.NewReader(input), opts)
		if err != nil {
			t.Skip()
		}
		var buf bytes.Buffer
		if err := report.WriteNative(&buf, first); err != nil {
			t.Fatalf("write: %v", err)
		}
		second, err := report.Parse(bytes.NewReader(buf.Bytes()), opts)
		if err != nil {
			t.Fatalf("reparse: %v", err)
		}
		if !first.Equal(second) {
			t.Fatalf("round trip changed the index\ninput: %q\nwritten: %q", input, buf.String())
		}
	})
}
