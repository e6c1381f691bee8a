package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covmark/internal/cover"
	"covmark/internal/diag"
	"covmark/internal/driver"
	"covmark/internal/report"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// workspace is a project root with settings, one source file and a report.
type workspace struct {
	root   string
	config string
	src    string
	report string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	root := t.TempDir()
	w := &workspace{
		root:   root,
		config: filepath.Join(root, ".coverage", "settings.toml"),
		src:    filepath.Join(root, "src", "a.cpp"),
		report: filepath.Join(root, "cov.txt"),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(w.config), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(w.src), 0o755))
	settings := "[report]\npath = \"cov.txt\"\n\n[cache]\nenabled = false\n"
	require.NoError(t, os.WriteFile(w.config, []byte(settings), 0o600))

	src := "int a;\n// DisableCodeCoverage\nint b;\n// EnableCodeCoverage\nint c;\n"
	require.NoError(t, os.WriteFile(w.src, []byte(src), 0o600))
	require.NoError(t, os.Chtimes(w.src, t0, t0))

	rep := "FILE: src/a.cpp\nRES: ccuuc\nPROF: 10,20,\n"
	require.NoError(t, os.WriteFile(w.report, []byte(rep), 0o600))
	require.NoError(t, os.Chtimes(w.report, t0.Add(time.Minute), t0.Add(time.Minute)))
	return w
}

// resetFlags returns every flag of cmd and its children to its default;
// cobra keeps parsed values between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	for _, k := range []string{"COVMARK_REPORT", "COVMARK_BASE", "COVMARK_CACHE_DIR"} {
		t.Setenv(k, "")
	}
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--color", "off"}, args...))
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestParseCommandSummary(t *testing.T) {
	w := newWorkspace(t)
	out, stderr, err := execute(t, "--config", w.config, "parse")
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "1 files, 2/2 lines covered (100.0%)")
	assert.Empty(t, stderr)
}

func TestParseCommandNoPragma(t *testing.T) {
	w := newWorkspace(t)
	out, _, err := execute(t, "--config", w.config, "parse", "--no-pragma")
	require.NoError(t, err)
	assert.Contains(t, out, "1 files, 3/5 lines covered (60.0%)")
}

func TestParseCommandJSON(t *testing.T) {
	w := newWorkspace(t)
	out, _, err := execute(t, "--config", w.config, "parse", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"files": 1`)
	assert.Contains(t, out, `"covered": 2`)
	assert.Contains(t, out, `"diagnostics"`)
}

func TestParseCommandMissingReport(t *testing.T) {
	w := newWorkspace(t)
	require.NoError(t, os.Remove(w.report))
	_, stderr, err := execute(t, "--config", w.config, "parse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coverage report not found")
	assert.Contains(t, stderr, diag.SessionLoadFailed.ID())
}

func TestExportNative(t *testing.T) {
	w := newWorkspace(t)
	out, _, err := execute(t, "--config", w.config, "export")
	require.NoError(t, err)
	assert.Contains(t, out, "FILE: "+w.src)
	assert.Contains(t, out, "RES: c___c")
}

func TestExportCoberturaToFile(t *testing.T) {
	w := newWorkspace(t)
	dst := filepath.Join(w.root, "cobertura.xml")
	_, _, err := execute(t, "--config", w.config, "--quiet", "export", "--format", "cobertura", "-o", dst)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<coverage")
}

func TestLinesCommand(t *testing.T) {
	w := newWorkspace(t)
	out, _, err := execute(t, "--config", w.config, "lines", "--format", "res", w.src)
	require.NoError(t, err)
	assert.Equal(t, "c___c\n", out)

	out, _, err = execute(t, "--config", w.config, "lines", w.src)
	require.NoError(t, err)
	assert.Contains(t, out, " 10/20  | int a;")
	assert.Contains(t, out, "| // DisableCodeCoverage")
}

func TestLinesCommandStaleSource(t *testing.T) {
	w := newWorkspace(t)
	later := t0.Add(time.Hour)
	require.NoError(t, os.Chtimes(w.src, later, later))
	_, stderr, err := execute(t, "--config", w.config, "lines", w.src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no coverage")
	assert.Contains(t, stderr, diag.SessionStale.ID())
}

func TestOverviewJSON(t *testing.T) {
	w := newWorkspace(t)
	out, _, err := execute(t, "--config", w.config, "overview", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"path": "`+filepath.ToSlash(w.src))
	assert.Contains(t, out, `"percent": 100`)
}

func TestPragmasCommand(t *testing.T) {
	w := newWorkspace(t)
	open := filepath.Join(w.root, "src", "b.cpp")
	require.NoError(t, os.WriteFile(open, []byte("x\n#pragma DisableCodeCoverage\ny\n"), 0o600))

	out, stderr, err := execute(t, "pragmas", w.src, open)
	require.NoError(t, err)
	assert.Contains(t, out, w.src+":2: disable (comment)")
	assert.Contains(t, out, w.src+":4: enable (comment)")
	assert.Contains(t, out, open+":2: disable (pragma)")
	assert.Contains(t, stderr, diag.PragmaUnclosed.ID())
}

func TestPragmasCommandMissingFile(t *testing.T) {
	_, stderr, err := execute(t, "pragmas", filepath.Join(t.TempDir(), "nope.cpp"))
	require.Error(t, err)
	var de errDiagnostics
	assert.True(t, errors.As(err, &de))
	assert.Contains(t, stderr, diag.PragmaScanFailed.ID())
}

func TestAggregateCommand(t *testing.T) {
	samples := filepath.Join(t.TempDir(), "samples.txt")
	require.NoError(t, os.WriteFile(samples, []byte("# line hits\n5 0\n7 3\n"), 0o600))

	out, _, err := execute(t, "aggregate", "--format", "res", samples)
	require.NoError(t, err)
	assert.Equal(t, "ccccuuc\n", out)

	out, _, err = execute(t, "aggregate", samples)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "5 uncovered", lines[5])
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format", "json", "--hash")
	require.NoError(t, err)
	assert.Contains(t, out, `"tool": "covmark"`)
	assert.Contains(t, out, `"git_commit": "unknown"`)
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]tristate{"": modeAuto, "AUTO": modeAuto, "on": modeOn, " off ": modeOff} {
		got, err := readUIMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := readUIMode("maybe")
	assert.Error(t, err)
	assert.True(t, shouldUseTUI(modeOn, true))
	assert.False(t, shouldUseTUI(modeOff, false))
}

func TestResolveColor(t *testing.T) {
	on, err := resolveColor("on")
	require.NoError(t, err)
	assert.True(t, on)
	off, err := resolveColor("never")
	require.NoError(t, err)
	assert.False(t, off)
	_, err = resolveColor("purple")
	assert.Error(t, err)
}

func TestPrintUpdate(t *testing.T) {
	idx := report.NewIndex("", t0)
	v := cover.NewBitVector()
	v.Set(1, true)
	v.Set(2, false)
	idx.Insert("/src/a.cpp", cover.NewEntry(v))

	var buf bytes.Buffer
	printUpdate(&buf, driver.Update{Index: idx, Changed: true, At: t0})
	printUpdate(&buf, driver.Update{Index: idx, At: t0})
	printUpdate(&buf, driver.Update{Index: idx, Err: errors.New("boom"), At: t0})
	printUpdate(&buf, driver.Update{At: t0})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "reloaded: 1 files, 1/2 lines covered (50.0%)")
	assert.Contains(t, lines[1], "refresh failed: boom")
	assert.Contains(t, lines[2], "reset")
}
