package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"covmark/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "covmark",
	Short: "Line coverage reports with in-source pragma masking",
	Long: `covmark reads native line coverage reports, masks them with
EnableCodeCoverage / DisableCodeCoverage pragmas found in the sources and
prints, exports or watches the result`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		stopProf, err := setupProfiling(cmd)
		if err != nil {
			return err
		}
		cleanup, err := setupTracing(cmd)
		if err != nil {
			stopProf()
			return err
		}
		traceCleanup = func(failed bool) {
			cleanup(failed)
			stopProf()
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if traceCleanup != nil {
			traceCleanup(false)
			traceCleanup = nil
		}
	},
}

// traceCleanup закрывает трассировку и профилировщики
var traceCleanup func(failed bool)

func init() {
	// версия для автоматического флага --version
	rootCmd.Version = version.Version
	// Команды
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(linesCmd)
	rootCmd.AddCommand(pragmasCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("config", "", "settings file (default: nearest .coverage/settings.toml)")

	// Трассировка
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "stream", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 4096, "ring buffer capacity for --trace-mode ring|both")

	// Профилирование
	rootCmd.PersistentFlags().String("cpu-profile", "", "write CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write Go runtime trace to file")
}

// main запускает rootCmd; при ошибке выходит с кодом 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		if traceCleanup != nil {
			traceCleanup(true)
		}
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
