// Package aggregate turns raw instrumentation samples into per-line states.
package aggregate

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"covmark/internal/cover"
)

// ContinuationThreshold is the lowest raw line number that instrumentation
// uses to mean "one more point of the previous line".
const ContinuationThreshold = 0xFEEFEE

// Sample is one instrumentation point. A continuation sample has no line of
// its own and belongs to the line of the sample before it.
type Sample struct {
	Line         int
	Hits         int
	Continuation bool
}

// Primary returns a sample for a real source line.
func Primary(line, hits int) Sample { return Sample{Line: line, Hits: hits} }

// Continuation returns a sample that extends the previous line.
func Continuation(hits int) Sample { return Sample{Hits: hits, Continuation: true} }

// Raw decodes the numeric encoding used by instrumentation output.
func Raw(line, hits int) Sample {
	if line >= ContinuationThreshold {
		return Continuation(hits)
	}
	return Primary(line, hits)
}

type triple struct {
	line    int
	total   int
	covered int
}

func (t triple) state() cover.State {
	switch {
	case t.covered == 0:
		return cover.Uncovered
	case t.covered == t.total:
		return cover.Covered
	default:
		return cover.Partially
	}
}

func hit(hits int) int {
	if hits > 0 {
		return 1
	}
	return 0
}

func compact(samples []Sample) []triple {
	var out []triple
	for _, s := range samples {
		n := len(out)
		switch {
		case !s.Continuation && n > 0 && s.Line == out[n-1].line:
			// повтор строки открывает новую корзину
			out = append(out, triple{line: s.Line, total: 1, covered: hit(s.Hits)})
		case s.Continuation:
			if n == 0 {
				continue
			}
			out[n-1].total++
			out[n-1].covered += hit(s.Hits)
		default:
			out = append(out, triple{line: s.Line, total: 1, covered: hit(s.Hits)})
		}
	}
	if len(samples) == 0 {
		out = append(out, triple{line: 0, total: 1, covered: 1})
	}
	return out
}

// Aggregate classifies every line from 0 to the highest sampled line.
// Lines before the first sample are Covered; lines between samples take the
// state of the preceding sampled line. An empty input yields [Covered].
func Aggregate(samples []Sample) []cover.State {
	triples := compact(samples)
	if len(triples) == 0 {
		// только продолжения без основной строки
		return []cover.State{cover.Covered}
	}
	slices.SortStableFunc(triples, func(a, b triple) int { return a.line - b.line })

	last := triples[len(triples)-1].line
	out := make([]cover.State, max(last, 0)+1)
	for i := range out {
		out[i] = cover.Covered
	}

	prevLine := -1
	prev := cover.Covered
	for _, t := range triples {
		if t.line < 0 {
			continue
		}
		if prevLine >= 0 {
			for line := prevLine + 1; line < t.line; line++ {
				out[line] = prev
			}
		}
		prev = t.state()
		out[t.line] = prev
		prevLine = t.line
	}
	for line := prevLine + 1; line < len(out); line++ {
		out[line] = prev
	}
	return out
}

// ParseSamples reads "line hits" pairs, one per line. Blank lines and lines
// starting with # are skipped. A line of "+ hits" is a continuation sample.
func ParseSamples(r io.Reader) ([]Sample, error) {
	var out []Sample
	sc := bufio.NewScanner(r)
	no := 0
	for sc.Scan() {
		no++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"line hits\", got %q", no, text)
		}
		hits, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad hit count %q", no, fields[1])
		}
		if fields[0] == "+" {
			out = append(out, Continuation(hits))
			continue
		}
		line, err := strconv.Atoi(fields[0])
		if err != nil || line < 0 {
			return nil, fmt.Errorf("line %d: bad line number %q", no, fields[0])
		}
		out = append(out, Raw(line, hits))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
