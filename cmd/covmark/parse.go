package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"covmark/internal/diag"
	"covmark/internal/diagfmt"
	"covmark/internal/report"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] [report]",
	Short: "Parse a coverage report and print a summary",
	Long: `Parse a native coverage report, apply source pragmas and print the
number of files and lines together with every diagnostic found on the way`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif)")
	parseCmd.Flags().Bool("no-pragma", false, "do not mask coverage with source pragmas")
}

type parseSummary struct {
	Report      string                    `json:"report"`
	Files       int                       `json:"files"`
	Covered     int                       `json:"covered"`
	Uncovered   int                       `json:"uncovered"`
	Percent     float64                   `json:"percent"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

func runParse(cmd *cobra.Command, args []string) error {
	opts, err := readGlobalOpts(cmd)
	if err != nil {
		return err
	}
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := readDiagFormat(formatStr)
	if err != nil {
		return err
	}
	noPragma, err := cmd.Flags().GetBool("no-pragma")
	if err != nil {
		return fmt.Errorf("failed to get no-pragma flag: %w", err)
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
	// parse всегда читает отчёт заново: из кэша диагностики не восстановить
	session, timer, err := openSession(cfg, diag.BagReporter{Bag: bag}, sessionOpts{noCache: true, noPragma: noPragma, timings: opts.timings})
	if err != nil {
		return err
	}
	idx, loadErr := loadIndex(cmd.Context(), session)
	if loadErr != nil {
		if err := printDiagnostics(cmd, bag, format, opts, cfg.Report.Base); err != nil {
			return err
		}
		return loadErr
	}

	total := report.Totals(idx.Overview())
	switch format {
	case diagJSON:
		bag.Sort()
		out := parseSummary{
			Report:    session.ReportPath(),
			Files:     idx.Len(),
			Covered:   total.Covered,
			Uncovered: total.Uncovered,
			Percent:   total.Percent(),
			Diagnostics: diagfmt.BuildDiagnosticsOutput(bag, diagfmt.JSONOpts{
				PathMode: diagfmt.PathModeRelative,
				BaseDir:  cfg.Report.Base,
				Max:      opts.maxDiagnostics,
			}),
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
	case diagSarif:
		if err := printDiagnostics(cmd, bag, format, opts, cfg.Report.Base); err != nil {
			return err
		}
	default:
		if err := printDiagnostics(cmd, bag, format, opts, cfg.Report.Base); err != nil {
			return err
		}
		if !opts.quiet {
			printParseSummary(cmd.OutOrStdout(), session.ReportPath(), idx.Len(), total)
		}
	}
	printTimings(cmd.ErrOrStderr(), opts, timer)
	return checkBag(bag)
}

func printParseSummary(out io.Writer, path string, files int, total report.FileSummary) {
	fmt.Fprintf(out, "%s: %d files, %d/%d lines covered (%.1f%%)\n",
		path, files, total.Covered, total.Total(), total.Percent())
}
