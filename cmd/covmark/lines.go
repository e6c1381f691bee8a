package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"covmark/internal/cover"
	"covmark/internal/diag"
	"covmark/internal/report"
	"covmark/internal/source"
)

var linesCmd = &cobra.Command{
	Use:   "lines [flags] <file>",
	Short: "Show per-line coverage of one source file",
	Long: `Show the coverage state and profile of every line of a source file.
Files modified after the report was written have no coverage.`,
	Args: cobra.ExactArgs(1),
	RunE: runLines,
}

func init() {
	linesCmd.Flags().String("report", "", "coverage report (default from settings)")
	linesCmd.Flags().String("format", "pretty", "output format (pretty|res|json)")
	linesCmd.Flags().Bool("no-cache", false, "ignore the parsed report cache")
	linesCmd.Flags().Bool("no-pragma", false, "do not mask coverage with source pragmas")
}

type lineJSON struct {
	Line    int    `json:"line"`
	State   string `json:"state"`
	Deep    uint8  `json:"deep"`
	Shallow uint8  `json:"shallow"`
	Text    string `json:"text,omitempty"`
}

func runLines(cmd *cobra.Command, args []string) error {
	opts, err := readGlobalOpts(cmd)
	if err != nil {
		return err
	}
	reportArg, err := cmd.Flags().GetString("report")
	if err != nil {
		return fmt.Errorf("failed to get report flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	switch format {
	case "pretty", "res", "json":
	default:
		return fmt.Errorf("unknown format %q (expected pretty|res|json)", format)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	noPragma, err := cmd.Flags().GetBool("no-pragma")
	if err != nil {
		return fmt.Errorf("failed to get no-pragma flag: %w", err)
	}

	target, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadSettings(opts, reportArg)
	if err != nil {
		return err
	}
	bag := newBag(opts)
	session, timer, err := openSession(cfg, diag.BagReporter{Bag: bag}, sessionOpts{noCache: noCache, noPragma: noPragma, timings: opts.timings})
	if err != nil {
		return err
	}
	if _, err := loadIndex(cmd.Context(), session); err != nil {
		_ = printDiagnostics(cmd, bag, diagPretty, opts, cfg.Report.Base)
		return err
	}

	entry, ok := session.Lookup(target)
	states := session.Gutter(target)

	// исходник нужен только для pretty/json; его отсутствие не ошибка
	var src []string
	if format != "res" {
		files := source.NewFileSet()
		if id, err := files.Load(target); err == nil {
			src = files.Get(id).Lines()
		} else {
			diag.Warnf(diag.BagReporter{Bag: bag}, diag.IOLoadFileError, target, 0, "%v", err)
		}
	}
	if perr := printDiagnostics(cmd, bag, diagPretty, opts, cfg.Report.Base); perr != nil {
		return perr
	}
	if !ok {
		return fmt.Errorf("no coverage for %s", target)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "res":
		fmt.Fprintln(out, report.EncodeStates(states))
	case "json":
		rows := collectLines(entry, states, src)
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("failed to encode lines: %w", err)
		}
	default:
		printLines(out, entry, states, src, opts.color)
	}
	printTimings(cmd.ErrOrStderr(), opts, timer)
	return nil
}

func collectLines(entry *cover.Entry, states []cover.State, src []string) []lineJSON {
	n := max(len(states)-1, len(src))
	rows := make([]lineJSON, 0, n)
	for line := 1; line <= n; line++ {
		st := cover.Irrelevant
		if line < len(states) {
			st = states[line]
		}
		p := entry.Profile.Get(line - 1)
		row := lineJSON{Line: line, State: st.String(), Deep: p.Deep, Shallow: p.Shallow}
		if line <= len(src) {
			row.Text = src[line-1]
		}
		rows = append(rows, row)
	}
	return rows
}

func printLines(out io.Writer, entry *cover.Entry, states []cover.State, src []string, useColor bool) {
	marks := map[cover.State]*color.Color{
		cover.Covered:   color.New(color.FgGreen),
		cover.Partially: color.New(color.FgYellow),
		cover.Uncovered: color.New(color.FgRed),
	}
	for _, row := range collectLines(entry, states, src) {
		st := cover.Irrelevant
		if row.Line < len(states) {
			st = states[row.Line]
		}
		mark := string(st.Byte())
		if c, ok := marks[st]; ok && useColor {
			mark = c.Sprint(mark)
		}
		prof := "       "
		if row.Deep != 0 || row.Shallow != 0 {
			prof = fmt.Sprintf("%3d/%-3d", row.Deep, row.Shallow)
		}
		fmt.Fprintf(out, "%5d %s %s | %s\n", row.Line, mark, prof, row.Text)
	}
}
