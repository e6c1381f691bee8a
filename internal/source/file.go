package source

import (
	"bytes"
	"fmt"
	"time"

	"fortio.org/safecast"
)

// FileID is an index into a FileSet.
type FileID uint32

// FileFlags records what happened to a file's bytes on the way in.
type FileFlags uint8

const (
	FileVirtual        FileFlags = 1 << iota // added from memory, not read from disk
	FileHadBOM                               // UTF-8 BOM stripped
	FileNormalizedCRLF                       // \r\n rewritten to \n
)

// File is one loaded source. Content is normalized; line numbers are 1-based.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of '\n'
	ModTime time.Time
	Flags   FileFlags
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// normalize strips a leading BOM (when stripBOM is set) and folds \r\n
// into \n. Lone \r bytes are kept.
func normalize(content []byte, stripBOM bool) ([]byte, FileFlags) {
	var flags FileFlags
	if stripBOM && bytes.HasPrefix(content, utf8BOM) {
		content = content[len(utf8BOM):]
		flags |= FileHadBOM
	}
	if bytes.Contains(content, []byte("\r\n")) {
		content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
		flags |= FileNormalizedCRLF
	}
	return content, flags
}

func indexLines(content []byte) []uint32 {
	idx := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for off := 0; ; {
		i := bytes.IndexByte(content[off:], '\n')
		if i < 0 {
			return idx
		}
		off += i
		pos, err := safecast.Conv[uint32](off)
		if err != nil {
			panic(fmt.Errorf("line offset overflow: %w", err))
		}
		idx = append(idx, pos)
		off++
	}
}

// LineCount counts lines the way editors do: a trailing newline does not
// open a new line and empty content has none.
func (f *File) LineCount() int {
	if len(f.Content) == 0 {
		return 0
	}
	if f.Content[len(f.Content)-1] == '\n' {
		return len(f.LineIdx)
	}
	return len(f.LineIdx) + 1
}

// Line returns line n without its terminator, "" when out of range.
func (f *File) Line(n int) string {
	if n < 1 || n > f.LineCount() {
		return ""
	}
	var start, end int
	if n > 1 {
		start = int(f.LineIdx[n-2]) + 1
	}
	if n <= len(f.LineIdx) {
		end = int(f.LineIdx[n-1])
	} else {
		end = len(f.Content)
	}
	return string(f.Content[start:end])
}

func (f *File) Lines() []string {
	out := make([]string, 0, f.LineCount())
	for n := 1; n <= f.LineCount(); n++ {
		out = append(out, f.Line(n))
	}
	return out
}

// FormatPath renders f.Path, see the package-level FormatPath.
func (f *File) FormatPath(mode, baseDir string) string {
	return FormatPath(f.Path, mode, baseDir)
}
