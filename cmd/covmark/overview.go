package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"covmark/internal/diag"
	"covmark/internal/report"
	"covmark/internal/source"
	"covmark/internal/ui"
)

var overviewCmd = &cobra.Command{
	Use:   "overview [flags] [report]",
	Short: "Show per-file coverage",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOverview,
}

func init() {
	overviewCmd.Flags().String("format", "table", "output format (table|json)")
	overviewCmd.Flags().Bool("no-cache", false, "ignore the parsed report cache")
	overviewCmd.Flags().Bool("no-pragma", false, "do not mask coverage with source pragmas")
	overviewCmd.Flags().String("filter", "", "only show files whose path contains this text")
}

type overviewRow struct {
	Path      string  `json:"path"`
	Covered   int     `json:"covered"`
	Uncovered int     `json:"uncovered"`
	Percent   float64 `json:"percent"`
}

func runOverview(cmd *cobra.Command, args []string) error {
	opts, err := readGlobalOpts(cmd)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q (expected table|json)", format)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	noPragma, err := cmd.Flags().GetBool("no-pragma")
	if err != nil {
		return fmt.Errorf("failed to get no-pragma flag: %w", err)
	}
	filter, err := cmd.Flags().GetString("filter")
	if err != nil {
		return fmt.Errorf("failed to get filter flag: %w", err)
	}

	var reportArg string
	if len(args) > 0 {
		reportArg = args[0]
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
	idx, err := loadIndex(cmd.Context(), session)
	if perr := printDiagnostics(cmd, bag, diagPretty, opts, cfg.Report.Base); perr != nil {
		return perr
	}
	if err != nil {
		return err
	}

	rows := filterRows(idx.Overview(), source.NormalizeKey(filter))
	if format == "json" {
		out := make([]overviewRow, 0, len(rows))
		for _, r := range rows {
			out = append(out, overviewRow{
				Path:      idx.Path(r.Key),
				Covered:   r.Covered,
				Uncovered: r.Uncovered,
				Percent:   r.Percent(),
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode overview: %w", err)
		}
	} else {
		base := cfg.Report.Base
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderOverview(rows, ui.TableOpts{
			Width: terminalWidth(),
			Color: opts.color,
			Path: func(key string) string {
				return source.FormatPath(idx.Path(key), "relative", base)
			},
		}))
	}
	printTimings(cmd.ErrOrStderr(), opts, timer)
	return nil
}

func filterRows(rows []report.FileSummary, key string) []report.FileSummary {
	if key == "" || key == "." {
		return rows
	}
	out := rows[:0:0]
	for _, r := range rows {
		if strings.Contains(r.Key, key) {
			out = append(out, r)
		}
	}
	return out
}

// terminalWidth returns the stdout width or 0 when it is not a terminal.
func terminalWidth() int {
	if !isTerminal(os.Stdout) {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
