package main

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"covmark/internal/version"
)

const versionTagline = "every line accounted for"

// buildInfo is both the JSON payload and the source of the pretty output.
// Fields left empty were not requested.
type buildInfo struct {
	Tool       string `json:"tool"`
	Version    string `json:"version"`
	Tagline    string `json:"tagline"`
	GitCommit  string `json:"git_commit,omitempty"`
	GitMessage string `json:"git_message,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
}

var versionFlags struct {
	format                   string
	hash, message, date, all bool
}

func init() {
	f := versionCmd.Flags()
	f.BoolVar(&versionFlags.hash, "hash", false, "include git commit hash")
	f.BoolVar(&versionFlags.message, "message", false, "include git commit message")
	f.BoolVar(&versionFlags.date, "date", false, "include build timestamp")
	f.BoolVar(&versionFlags.all, "full", false, "show every recorded bit of build metadata")
	f.StringVar(&versionFlags.format, "format", "pretty", "output format (pretty|json)")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show covmark build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		gopts, err := readGlobalOpts(cmd)
		if err != nil {
			return err
		}
		info := collectBuildInfo(
			versionFlags.hash || versionFlags.all,
			versionFlags.message || versionFlags.all,
			versionFlags.date || versionFlags.all,
		)
		out := cmd.OutOrStdout()
		switch strings.ToLower(versionFlags.format) {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		case "pretty":
			printBuildInfo(out, info, gopts.quiet)
			return nil
		}
		return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFlags.format)
	},
}

func collectBuildInfo(hash, message, date bool) buildInfo {
	known := func(s string) string { return cmp.Or(strings.TrimSpace(s), "unknown") }
	info := buildInfo{
		Tool:    "covmark",
		Version: cmp.Or(strings.TrimSpace(version.Version), "dev"),
		Tagline: versionTagline,
	}
	if hash {
		info.GitCommit = known(version.GitCommit)
	}
	if message {
		info.GitMessage = known(version.GitMessage)
	}
	if date {
		info.BuildDate = known(version.BuildDate)
	}
	return info
}

func printBuildInfo(out io.Writer, info buildInfo, quiet bool) {
	fmt.Fprintf(out, "%s %s, %s\n", info.Tool, version.Colored(info.Version), info.Tagline)
	extra := false
	for _, row := range [][2]string{{"commit: ", info.GitCommit}, {"message:", info.GitMessage}, {"built:  ", info.BuildDate}} {
		if row[1] != "" {
			fmt.Fprintf(out, "%s %s\n", row[0], row[1])
			extra = true
		}
	}
	if !extra && !quiet {
		fmt.Fprintln(out, "set --hash, --message, --date, or --full for more build trivia")
	}
}
