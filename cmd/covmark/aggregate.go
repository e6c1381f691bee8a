package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"covmark/internal/aggregate"
	"covmark/internal/cover"
	"covmark/internal/diag"
	"covmark/internal/report"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate [flags] [samples]",
	Short: "Turn raw line hit samples into line states",
	Long: `Read "line hits" samples (one pair per line, "+ hits" for a
continuation of the previous line) from a file or stdin and print the
resulting per-line states`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().String("format", "states", "output format (states|res)")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	opts, err := readGlobalOpts(cmd)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "states" && format != "res" {
		return fmt.Errorf("unknown format %q (expected states|res)", format)
	}

	in := cmd.InOrStdin()
	name := "<stdin>"
	if len(args) > 0 && args[0] != "-" {
		name = args[0]
		// #nosec G304 -- path comes from the command line
		f, err := os.Open(name)
		if err != nil {
			bag := newBag(opts)
			diag.Errorf(diag.BagReporter{Bag: bag}, diag.IOLoadFileError, name, 0, "%v", err)
			if perr := printDiagnostics(cmd, bag, diagPretty, opts, ""); perr != nil {
				return perr
			}
			return checkBag(bag)
		}
		defer f.Close()
		in = f
	}

	samples, err := aggregate.ParseSamples(in)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	states := aggregate.Aggregate(samples)
	writeStates(cmd.OutOrStdout(), states, format)
	return nil
}

func writeStates(out io.Writer, states []cover.State, format string) {
	if format == "res" {
		fmt.Fprintln(out, report.EncodeStates(states))
		return
	}
	for line, st := range states {
		fmt.Fprintf(out, "%d %s\n", line, st)
	}
}
