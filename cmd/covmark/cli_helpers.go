package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"covmark/internal/diag"
	"covmark/internal/diagfmt"
	"covmark/internal/observ"
	"covmark/internal/project"
	"covmark/internal/version"
)

// globalOpts собирает глобальные флаги один раз на команду.
type globalOpts struct {
	color          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
	config         string
}

func readGlobalOpts(cmd *cobra.Command) (globalOpts, error) {
	flags := cmd.Root().PersistentFlags()
	var opts globalOpts

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return opts, fmt.Errorf("failed to get color flag: %w", err)
	}
	if opts.color, err = resolveColor(colorFlag); err != nil {
		return opts, err
	}
	if opts.quiet, err = flags.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = flags.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if opts.config, err = flags.GetString("config"); err != nil {
		return opts, fmt.Errorf("failed to get config flag: %w", err)
	}

	// fatih/color сам смотрит на NO_COLOR и tty; флаг сильнее
	color.NoColor = !opts.color
	return opts, nil
}

// loadSettings reads --config or the nearest .coverage/settings.toml.
// reportArg, when set, replaces the configured report path.
func loadSettings(opts globalOpts, reportArg string) (project.Settings, error) {
	var (
		cfg project.Settings
		err error
	)
	if opts.config != "" {
		cfg, err = project.LoadExplicit(opts.config)
	} else {
		var wd string
		if wd, err = os.Getwd(); err != nil {
			return project.Settings{}, err
		}
		cfg, err = project.Load(wd)
	}
	if err != nil {
		return project.Settings{}, err
	}
	if reportArg != "" {
		abs, err := filepath.Abs(reportArg)
		if err != nil {
			return project.Settings{}, err
		}
		cfg.Report.Path = abs
	}
	return cfg, nil
}

func newBag(opts globalOpts) *diag.Bag {
	return diag.NewBag(opts.maxDiagnostics)
}

// diagFormat is the --format of commands that only print diagnostics.
type diagFormat string

const (
	diagPretty diagFormat = "pretty"
	diagJSON   diagFormat = "json"
	diagSarif  diagFormat = "sarif"
)

func readDiagFormat(value string) (diagFormat, error) {
	switch f := diagFormat(strings.ToLower(strings.TrimSpace(value))); f {
	case diagPretty, diagJSON, diagSarif:
		return f, nil
	case "":
		return diagPretty, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected pretty|json|sarif)", value)
	}
}

// printDiagnostics writes the bag in the chosen format. Pretty output goes
// to stderr so it never mixes with data on stdout.
func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, format diagFormat, opts globalOpts, baseDir string) error {
	bag.Sort()
	if opts.quiet {
		bag.Filter(diag.SevWarning)
	}
	switch format {
	case diagJSON:
		return diagfmt.JSON(cmd.OutOrStdout(), bag, diagfmt.JSONOpts{
			PathMode: diagfmt.PathModeRelative,
			BaseDir:  baseDir,
			Max:      opts.maxDiagnostics,
		})
	case diagSarif:
		return diagfmt.Sarif(cmd.OutOrStdout(), bag, diagfmt.SarifRunMeta{
			ToolName:       "covmark",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		})
	default:
		if bag.Len() == 0 {
			return nil
		}
		return diagfmt.Pretty(cmd.ErrOrStderr(), bag, diagfmt.PrettyOpts{
			Color:       opts.color,
			PathMode:    diagfmt.PathModeAuto,
			BaseDir:     baseDir,
			ShowPreview: !opts.quiet,
		})
	}
}

// errDiagnostics is returned when a command produced error diagnostics;
// they are already printed, cobra only has to set the exit code.
type errDiagnostics struct{ n int }

func (e errDiagnostics) Error() string {
	return fmt.Sprintf("%d error(s) reported", e.n)
}

func checkBag(bag *diag.Bag) error {
	if !bag.HasErrors() {
		return nil
	}
	n := 0
	for _, d := range bag.Items() {
		if d.Severity >= diag.SevError {
			n++
		}
	}
	return errDiagnostics{n: n}
}

func printTimings(out io.Writer, opts globalOpts, timer *observ.Timer) {
	if !opts.timings || timer == nil || out == nil {
		return
	}
	fmt.Fprint(out, timer.Summary())
}
