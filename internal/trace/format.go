package trace

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Format is the on-disk shape of trace events.
type Format uint8

const (
	FormatAuto Format = iota // by output file extension
	FormatText
	FormatNDJSON
)

// ParseFormat reads a --trace-format value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	}
	return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
}

// FormatForPath picks NDJSON for .ndjson and .json outputs, text otherwise.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".json":
		return FormatNDJSON
	}
	return FormatText
}

// AppendEvent appends one formatted line (with trailing newline) to dst.
func AppendEvent(dst []byte, ev Event, format Format) []byte {
	if format == FormatNDJSON {
		return appendJSON(dst, ev)
	}
	return appendText(dst, ev)
}

type jsonEvent struct {
	Time   string            `json:"time"`
	Seq    uint64            `json:"seq"`
	Kind   string            `json:"kind"`
	Scope  string            `json:"scope"`
	Span   uint64            `json:"span,omitempty"`
	Parent uint64            `json:"parent,omitempty"`
	Name   string            `json:"name"`
	Detail string            `json:"detail,omitempty"`
	TookUS int64             `json:"took_us,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

func appendJSON(dst []byte, ev Event) []byte {
	j := jsonEvent{
		Time:   ev.At.UTC().Format(time.RFC3339Nano),
		Seq:    ev.Seq,
		Kind:   ev.Kind.String(),
		Scope:  ev.Scope.String(),
		Span:   ev.Span,
		Parent: ev.Parent,
		Name:   ev.Name,
		Detail: ev.Detail,
		TookUS: ev.Took.Microseconds(),
	}
	if len(ev.Attrs) > 0 {
		j.Attrs = make(map[string]string, len(ev.Attrs))
		for _, a := range ev.Attrs {
			j.Attrs[a.Key] = a.Value
		}
	}
	data, err := json.Marshal(j)
	if err != nil {
		return dst
	}
	dst = append(dst, data...)
	return append(dst, '\n')
}

// appendText renders
//
//	15:04:05.000 #12    → parse
//	15:04:05.002 #13      ← parse ok 1.9ms files=3
func appendText(dst []byte, ev Event) []byte {
	dst = ev.At.AppendFormat(dst, "15:04:05.000")
	dst = append(dst, " #"...)
	seq := strconv.FormatUint(ev.Seq, 10)
	dst = append(dst, seq...)
	for i := len(seq); i < 5; i++ {
		dst = append(dst, ' ')
	}
	dst = append(dst, ' ')
	if ev.Parent != 0 {
		dst = append(dst, "  "...)
	}
	switch ev.Kind {
	case KindSpanBegin:
		dst = append(dst, "→ "...)
	case KindSpanEnd:
		dst = append(dst, "← "...)
	default:
		dst = append(dst, "• "...)
	}
	dst = append(dst, ev.Name...)
	if ev.Detail != "" {
		dst = append(dst, ' ')
		dst = append(dst, ev.Detail...)
	}
	if ev.Kind == KindSpanEnd {
		dst = append(dst, ' ')
		dst = append(dst, ev.Took.Round(time.Microsecond).String()...)
	}
	for _, a := range ev.Attrs {
		dst = append(dst, ' ')
		dst = append(dst, a.Key...)
		dst = append(dst, '=')
		dst = append(dst, a.Value...)
	}
	return append(dst, '\n')
}
