package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"covmark/internal/report"
)

// TableOpts configures RenderOverview.
type TableOpts struct {
	Width int // total width, 0 means 100
	Color bool
	// Path maps an index key to the display path; nil shows the key.
	Path func(key string) string
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	fairStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	plainStyle  = lipgloss.NewStyle()
)

func percentStyle(pct float64, color bool) lipgloss.Style {
	if !color {
		return plainStyle
	}
	switch {
	case pct >= 80:
		return goodStyle
	case pct >= 50:
		return fairStyle
	default:
		return badStyle
	}
}

// RenderOverview renders per-file coverage rows followed by a total line.
func RenderOverview(rows []report.FileSummary, opts TableOpts) string {
	width := opts.Width
	if width <= 0 {
		width = 100
	}
	const numWidth = 9
	nameWidth := max(width-3*numWidth-6, 20)

	header := func(s lipgloss.Style, text string) string {
		if opts.Color {
			return s.Render(text)
		}
		return text
	}

	var b strings.Builder
	b.WriteString(header(headerStyle, fmt.Sprintf("%s %*s %*s %*s",
		pad("FILE", nameWidth), numWidth, "COVERED", numWidth, "MISSED", numWidth, "PERCENT")))
	b.WriteByte('\n')
	for _, row := range rows {
		name := row.Key
		if opts.Path != nil {
			name = opts.Path(row.Key)
		}
		pct := fmt.Sprintf("%*.1f%%", numWidth-1, row.Percent())
		fmt.Fprintf(&b, "%s %*d %*d %s\n",
			pad(truncate(name, nameWidth), nameWidth),
			numWidth, row.Covered, numWidth, row.Uncovered,
			percentStyle(row.Percent(), opts.Color).Render(pct))
	}
	total := report.Totals(rows)
	pct := fmt.Sprintf("%*.1f%%", numWidth-1, total.Percent())
	fmt.Fprintf(&b, "%s %*d %*d %s\n",
		pad(fmt.Sprintf("total (%d files)", len(rows)), nameWidth),
		numWidth, total.Covered, numWidth, total.Uncovered,
		percentStyle(total.Percent(), opts.Color).Render(pct))
	return b.String()
}

func pad(value string, width int) string {
	if w := runewidth.StringWidth(value); w < width {
		return value + strings.Repeat(" ", width-w)
	}
	return value
}

// truncate keeps the end of long paths, where the file name is.
func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	// режем слева: имя файла важнее каталога
	runes := []rune(value)
	for i := range runes {
		tail := string(runes[i:])
		if runewidth.StringWidth(tail) <= width-3 {
			return "..." + tail
		}
	}
	return runewidth.Truncate(value, width, "")
}
