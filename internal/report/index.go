package report

import (
	"slices"
	"time"

	"covmark/internal/cover"
	"covmark/internal/source"
)

// Index maps normalized source paths to their coverage entries.
// An Index is built once by the parser and is read-only afterwards.
type Index struct {
	// FileDate is the report's last-write time; coverage for a source file
	// is trusted only while the source is not newer.
	FileDate time.Time
	// Source is the report path the index was read from, if any.
	Source string
	// BaseDir resolves relative lookups.
	BaseDir string

	entries map[string]*cover.Entry
	paths   map[string]string // key -> path as resolved from the report
}

func newIndex(baseDir string) *Index {
	return &Index{
		BaseDir: baseDir,
		entries: make(map[string]*cover.Entry),
		paths:   make(map[string]string),
	}
}

// NewIndex returns an empty index; used by tests and the disk cache.
func NewIndex(baseDir string, fileDate time.Time) *Index {
	idx := newIndex(baseDir)
	idx.FileDate = fileDate
	return idx
}

// Insert adds an entry under the normalized form of path. It returns false
// and leaves the index unchanged if the key is already present.
func (idx *Index) Insert(path string, e *cover.Entry) bool {
	return idx.insert(source.NormalizeKey(path), path, e)
}

func (idx *Index) insert(key, path string, e *cover.Entry) bool {
	if _, dup := idx.entries[key]; dup {
		return false
	}
	idx.entries[key] = e
	idx.paths[key] = path
	return true
}

// Path returns the path a key was inserted with, or the key itself.
func (idx *Index) Path(key string) string {
	if p, ok := idx.paths[key]; ok && p != "" {
		return p
	}
	return key
}

// Lookup returns the entry for path. Relative paths resolve against BaseDir.
func (idx *Index) Lookup(path string) (*cover.Entry, bool) {
	if idx == nil {
		return nil, false
	}
	if !source.IsRooted(path) && idx.BaseDir != "" {
		path = source.Resolve(idx.BaseDir, path)
	}
	e, ok := idx.entries[source.NormalizeKey(path)]
	return e, ok
}

// Len returns the number of files in the index.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Keys returns the normalized keys in sorted order.
func (idx *Index) Keys() []string {
	if idx == nil {
		return nil
	}
	keys := make([]string, 0, len(idx.entries))
	for k := range idx.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Entry returns the entry stored under an already normalized key.
func (idx *Index) Entry(key string) *cover.Entry {
	if idx == nil {
		return nil
	}
	return idx.entries[key]
}

// Fresh reports whether data in the index can be trusted for a source file
// last written at sourceModTime.
func (idx *Index) Fresh(sourceModTime time.Time) bool {
	if idx == nil {
		return false
	}
	return !idx.FileDate.Before(sourceModTime)
}

// Equal reports whether both indices hold the same entries. FileDate and
// Source are not compared: re-parsing an unchanged report must be Equal.
func (idx *Index) Equal(other *Index) bool {
	if idx.Len() != other.Len() {
		return false
	}
	if idx == nil {
		return true
	}
	for k, e := range idx.entries {
		o, ok := other.entries[k]
		if !ok || !e.Equal(o) {
			return false
		}
	}
	return true
}

// Map applies fn to a clone of every entry and returns a new index.
// The receiver is left untouched.
func (idx *Index) Map(fn func(key string, e *cover.Entry)) *Index {
	out := newIndex(idx.BaseDir)
	out.FileDate = idx.FileDate
	out.Source = idx.Source
	for k, e := range idx.entries {
		c := e.Clone()
		if fn != nil {
			fn(k, c)
		}
		out.entries[k] = c
		out.paths[k] = idx.paths[k]
	}
	return out
}

// FileSummary is one row of Overview.
type FileSummary struct {
	Key       string
	Covered   int
	Uncovered int
}

// Total returns the number of instrumented lines.
func (s FileSummary) Total() int { return s.Covered + s.Uncovered }

// Percent returns covered lines as a percentage, 100 for files without
// instrumented lines.
func (s FileSummary) Percent() float64 {
	if s.Total() == 0 {
		return 100
	}
	return 100 * float64(s.Covered) / float64(s.Total())
}

// Overview summarises every file, sorted by key.
func (idx *Index) Overview() []FileSummary {
	keys := idx.Keys()
	out := make([]FileSummary, 0, len(keys))
	for _, k := range keys {
		covered, uncovered := idx.entries[k].Lines.Stats()
		out = append(out, FileSummary{Key: k, Covered: covered, Uncovered: uncovered})
	}
	return out
}

// Totals sums an overview.
func Totals(rows []FileSummary) FileSummary {
	var t FileSummary
	for _, r := range rows {
		t.Covered += r.Covered
		t.Uncovered += r.Uncovered
	}
	return t
}
