package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"covmark/internal/diag"
	"covmark/internal/driver"
	"covmark/internal/report"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] [report]",
	Short: "Reload the report whenever it changes",
	Long: `Poll the coverage report and reload it, with pragma masking, every
time it is rewritten. Shows a live dashboard on a terminal and one line per
reload otherwise.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("interval", time.Second, "poll interval")
	watchCmd.Flags().String("ui", "auto", "dashboard mode (auto|on|off)")
	watchCmd.Flags().Bool("no-cache", false, "ignore the parsed report cache")
	watchCmd.Flags().Bool("no-pragma", false, "do not mask coverage with source pragmas")
}

func runWatch(cmd *cobra.Command, args []string) error {
	opts, err := readGlobalOpts(cmd)
	if err != nil {
		return err
	}
	interval, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return fmt.Errorf("failed to get interval flag: %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive, got %s", interval)
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiStr)
	if err != nil {
		return err
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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	useTUI := shouldUseTUI(mode, opts.quiet)
	so := sessionOpts{noCache: noCache, noPragma: noPragma}

	if useTUI {
		// в TUI диагностики копим и печатаем после выхода
		bag := newBag(opts)
		phases := make(chan driver.PhaseEvent, 64)
		so.observer = phaseForwarder(phases)
		session, _, err := openSession(cfg, diag.NewDedupReporter(diag.BagReporter{Bag: bag}), so)
		if err != nil {
			return err
		}
		title := "watching " + session.ReportPath()
		uiErr := runWatchWithUI(ctx, title, session, phases, func(ctx context.Context) {
			pollReport(ctx, session, interval)
		})
		if err := printDiagnostics(cmd, bag, diagPretty, opts, cfg.Report.Base); err != nil {
			return err
		}
		return uiErr
	}

	errOut := cmd.ErrOrStderr()
	r := diag.NewDedupReporter(diag.ReporterFunc(func(d diag.Diagnostic) {
		if opts.quiet && d.Severity < diag.SevWarning {
			return
		}
		fmt.Fprintln(errOut, d.String())
	}))
	session, _, err := openSession(cfg, r, so)
	if err != nil {
		return err
	}
	if !opts.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "watching %s every %s\n", session.ReportPath(), interval)
	}

	updates, cancel := session.Subscribe()
	go func() {
		pollReport(ctx, session, interval)
		cancel()
	}()
	for u := range updates {
		printUpdate(cmd.OutOrStdout(), u)
	}
	return nil
}

// pollReport refreshes the session right away and then on every tick until
// ctx is done. Failures are already delivered to subscribers.
func pollReport(ctx context.Context, s *driver.Session, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		_, _ = s.Refresh(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func printUpdate(out io.Writer, u driver.Update) {
	stamp := u.At.Local().Format(time.TimeOnly)
	switch {
	case u.Err != nil:
		fmt.Fprintf(out, "%s refresh failed: %v\n", stamp, u.Err)
	case u.Changed:
		total := report.Totals(u.Index.Overview())
		fmt.Fprintf(out, "%s reloaded: %d files, %d/%d lines covered (%.1f%%)\n",
			stamp, u.Index.Len(), total.Covered, total.Total(), total.Percent())
	case u.Index == nil:
		fmt.Fprintf(out, "%s reset\n", stamp)
	}
}
