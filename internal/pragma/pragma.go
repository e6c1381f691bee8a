// Package pragma strips coverage data for source regions that are marked
// as excluded with EnableCodeCoverage / DisableCodeCoverage markers.
package pragma

import (
	"strings"
	"unicode"

	"covmark/internal/cover"
	"covmark/internal/source"
)

// Kind tells whether a marker enables or disables coverage.
type Kind uint8

const (
	Enable Kind = iota + 1
	Disable
)

func (k Kind) String() string {
	switch k {
	case Enable:
		return "enable"
	case Disable:
		return "disable"
	default:
		return "none"
	}
}

// Form is the syntax a marker was written in.
type Form uint8

const (
	Directive Form = iota + 1 // #pragma EnableCodeCoverage
	Comment                   // // EnableCodeCoverage
)

func (f Form) String() string {
	switch f {
	case Directive:
		return "pragma"
	case Comment:
		return "comment"
	default:
		return "none"
	}
}

// Marker is a detected marker on a 1-based source line.
type Marker struct {
	Line int
	Kind Kind
	Form Form
}

const (
	enableWord  = "EnableCodeCoverage"
	disableWord = "DisableCodeCoverage"
)

func markerWord(s string) Kind {
	switch {
	case strings.HasPrefix(s, enableWord):
		return Enable
	case strings.HasPrefix(s, disableWord):
		return Disable
	}
	return 0
}

// directive looks for "#pragma" followed by at least one blank. found is
// true for any such directive, marker or not: "#pragma once // ..." never
// falls back to the comment form.
func directive(line string) (k Kind, found bool) {
	i := strings.Index(line, "#pragma")
	if i < 0 {
		return 0, false
	}
	rest := line[i+len("#pragma"):]
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if len(trimmed) == len(rest) {
		return 0, false
	}
	return markerWord(trimmed), true
}

// comment checks only the first // on the line.
func comment(line string) Kind {
	i := strings.Index(line, "//")
	if i < 0 {
		return 0
	}
	return markerWord(strings.TrimLeftFunc(line[i+2:], unicode.IsSpace))
}

func detect(line string) (Kind, Form) {
	if k, found := directive(line); found {
		if k == 0 {
			return 0, 0
		}
		return k, Directive
	}
	if k := comment(line); k != 0 {
		return k, Comment
	}
	return 0, 0
}

// Scan returns the markers found in src in line order.
func Scan(src []string) []Marker {
	var out []Marker
	for i, line := range src {
		if k, f := detect(line); k != 0 {
			out = append(out, Marker{Line: i + 1, Kind: k, Form: f})
		}
	}
	return out
}

// ApplyLines removes entries of lines for every line inside a disabled
// region of src. Both marker lines belong to the region and are removed.
func ApplyLines(src []string, lines *cover.BitVector) {
	if lines == nil {
		return
	}
	enabled := true
	for i, text := range src {
		line := i + 1
		switch k, _ := detect(text); k {
		case Enable:
			lines.Remove(line)
			enabled = true
		case Disable:
			enabled = false
		}
		if !enabled {
			lines.Remove(line)
		}
	}
	if enabled {
		return
	}
	// данные за концом файла устарели вместе с регионом
	for line := len(src) + 1; line < lines.Count(); line++ {
		lines.Remove(line)
	}
}

// Apply reads the source file at path and masks lines with ApplyLines.
// On a read error lines is left untouched and the error is returned.
func Apply(path string, lines *cover.BitVector) error {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return err
	}
	ApplyLines(fs.Get(id).Lines(), lines)
	return nil
}

// Unclosed returns the disable marker that opened a region still open at
// the end of the file. Repeated disables keep the first one.
func Unclosed(markers []Marker) (Marker, bool) {
	var open Marker
	for _, m := range markers {
		switch m.Kind {
		case Disable:
			if open.Kind == 0 {
				open = m
			}
		case Enable:
			open = Marker{}
		}
	}
	return open, open.Kind != 0
}
