package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"covmark/internal/diag"
	"covmark/internal/pragma"
	"covmark/internal/source"
)

var pragmasCmd = &cobra.Command{
	Use:   "pragmas [flags] <file>...",
	Short: "List coverage pragmas in source files",
	Long: `List EnableCodeCoverage / DisableCodeCoverage markers and warn about
regions that are never closed`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPragmas,
}

func init() {
	pragmasCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif)")
}

type fileMarkers struct {
	path    string
	markers []pragma.Marker
}

func runPragmas(cmd *cobra.Command, args []string) error {
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

	bag := newBag(opts)
	r := diag.BagReporter{Bag: bag}
	found := scanPragmas(args, r, format != diagPretty)

	if format == diagPretty && !opts.quiet {
		printMarkers(cmd.OutOrStdout(), found)
	}
	if err := printDiagnostics(cmd, bag, format, opts, ""); err != nil {
		return err
	}
	return checkBag(bag)
}

// scanPragmas loads every file and reports problems to r. withInfo adds
// one PragmaInfo note per marker, for machine readable output.
func scanPragmas(paths []string, r diag.Reporter, withInfo bool) []fileMarkers {
	files := source.NewFileSet()
	out := make([]fileMarkers, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		id, err := files.Load(abs)
		if err != nil {
			diag.Errorf(r, diag.PragmaScanFailed, abs, 0, "%v", err)
			continue
		}
		markers := pragma.Scan(files.Get(id).Lines())
		if withInfo {
			for _, m := range markers {
				diag.Infof(r, diag.PragmaInfo, abs, m.Line, "%s (%s)", m.Kind, m.Form)
			}
		}
		if m, open := pragma.Unclosed(markers); open {
			diag.Warnf(r, diag.PragmaUnclosed, abs, m.Line,
				"coverage disabled here is never re-enabled; the rest of the file is excluded")
		}
		out = append(out, fileMarkers{path: abs, markers: markers})
	}
	return out
}

func printMarkers(out io.Writer, found []fileMarkers) {
	for _, f := range found {
		if len(f.markers) == 0 {
			fmt.Fprintf(out, "%s: no markers\n", f.path)
			continue
		}
		for _, m := range f.markers {
			fmt.Fprintf(out, "%s:%d: %s (%s)\n", f.path, m.Line, m.Kind, m.Form)
		}
	}
}
