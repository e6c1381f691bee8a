package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"covmark/internal/diag"
	"covmark/internal/source"
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>: <SEV> <CODE>: <Message>
// затем, если включено, строку исходника с номером.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	files := opts.Files
	if files == nil && opts.ShowPreview {
		files = source.NewFileSetWithBase(opts.BaseDir)
	}
	for _, d := range bag.Items() {
		loc := opts.PathMode.format(d.Path, opts.BaseDir)
		if loc != "" && d.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, d.Line)
		}
		var sb strings.Builder
		if loc != "" {
			sb.WriteString(p.loc.Sprint(loc))
			sb.WriteString(": ")
		}
		sb.WriteString(p.severity(d.Severity).Sprint(strings.ToUpper(d.Severity.String())))
		sb.WriteByte(' ')
		sb.WriteString(p.code.Sprint(d.Code.ID()))
		sb.WriteString(": ")
		sb.WriteString(d.Message)
		sb.WriteByte('\n')
		if opts.ShowPreview && d.Line > 0 && d.Path != "" {
			if line, ok := previewLine(files, d.Path, d.Line); ok {
				fmt.Fprintf(&sb, "%s %s\n", p.gutter.Sprintf("%5d |", d.Line), line)
			}
		}
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

func previewLine(files *source.FileSet, path string, line int) (string, bool) {
	f, ok := files.GetByPath(path)
	if !ok {
		id, err := files.Load(path)
		if err != nil {
			return "", false
		}
		f = files.Get(id)
	}
	if line > f.LineCount() {
		return "", false
	}
	return f.Line(line), true
}

type palette struct {
	loc, code, gutter    *color.Color
	info, warning, error *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		loc:     mk(color.Bold),
		code:    mk(color.FgHiBlack),
		gutter:  mk(color.FgBlue),
		info:    mk(color.FgCyan, color.Bold),
		warning: mk(color.FgYellow, color.Bold),
		error:   mk(color.FgRed, color.Bold),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.error
	case diag.SevWarning:
		return p.warning
	default:
		return p.info
	}
}
