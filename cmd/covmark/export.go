package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"covmark/internal/diag"
	"covmark/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export [flags] [report]",
	Short: "Write the masked coverage in another format",
	Long: `Write the coverage after pragma masking as a native report,
Cobertura XML or Clover XML`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("format", "native", "output format (native|cobertura|clover)")
	exportCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
	exportCmd.Flags().String("package", "", "package/project name in XML output (default: settings root name)")
	exportCmd.Flags().Bool("no-cache", false, "ignore the parsed report cache")
	exportCmd.Flags().Bool("no-pragma", false, "do not mask coverage with source pragmas")
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	opts, err := readGlobalOpts(cmd)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	switch format {
	case "native", "cobertura", "clover":
	default:
		return fmt.Errorf("unknown format %q (expected native|cobertura|clover)", format)
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	pkg, err := cmd.Flags().GetString("package")
	if err != nil {
		return fmt.Errorf("failed to get package flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
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
	if pkg == "" {
		pkg = filepath.Base(cfg.Root)
	}

	bag := newBag(opts)
	session, timer, err := openSession(cfg, diag.BagReporter{Bag: bag}, sessionOpts{noCache: noCache, noPragma: noPragma, timings: opts.timings})
	if err != nil {
		return err
	}
	idx, loadErr := loadIndex(cmd.Context(), session)
	if perr := printDiagnostics(cmd, bag, diagPretty, opts, cfg.Report.Base); perr != nil {
		return perr
	}
	if loadErr != nil {
		return loadErr
	}

	var out io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, cerr := os.Create(output)
		if cerr != nil {
			return fmt.Errorf("failed to create %s: %w", output, cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		out = f
	}
	if err := writeIndex(out, idx, format, pkg); err != nil {
		return fmt.Errorf("failed to write %s: %w", format, err)
	}
	if output != "" && !opts.quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d files to %s\n", idx.Len(), output)
	}
	printTimings(cmd.ErrOrStderr(), opts, timer)
	return nil
}

func writeIndex(w io.Writer, idx *report.Index, format, pkg string) error {
	switch format {
	case "cobertura":
		return report.WriteCobertura(w, idx, pkg)
	case "clover":
		return report.WriteClover(w, idx, pkg)
	default:
		return report.WriteNative(w, idx)
	}
}
