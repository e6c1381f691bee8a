package diagfmt

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"covmark/internal/diag"
)

func sampleBag(t *testing.T, dir string) *diag.Bag {
	t.Helper()
	src := filepath.Join(dir, "a.cpp")
	if err := os.WriteFile(src, []byte("int a;\n// DisableCodeCoverage\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	bag := diag.NewBag(10)
	diag.Warnf(diag.BagReporter{Bag: bag}, diag.PragmaUnclosed, src, 2, "coverage disabled until end of file")
	diag.Errorf(diag.BagReporter{Bag: bag}, diag.ReportDuplicateFile, filepath.Join(dir, "coverage.txt"), 7, "duplicate")
	diag.Infof(diag.BagReporter{Bag: bag}, diag.ReportEmpty, "", 0, "no blocks")
	return bag
}

func TestPrettyPlain(t *testing.T) {
	dir := t.TempDir()
	bag := sampleBag(t, dir)
	var buf bytes.Buffer
	err := Pretty(&buf, bag, PrettyOpts{PathMode: PathModeRelative, BaseDir: dir, ShowPreview: true})
	if err != nil {
		t.Fatal(err)
	}
	want := "" +
		"a.cpp:2: WARNING PRG2002: coverage disabled until end of file\n" +
		"    2 | // DisableCodeCoverage\n" +
		"coverage.txt:7: ERROR REP1006: duplicate\n" +
		"INFO REP1008: no blocks\n"
	if got := buf.String(); got != want {
		t.Fatalf("Pretty output mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestPrettyColor(t *testing.T) {
	bag := diag.NewBag(1)
	diag.Errorf(diag.BagReporter{Bag: bag}, diag.ReportBadProfile, "x.txt", 1, "bad")
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, PrettyOpts{Color: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected ANSI escapes, got %q", buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	dir := t.TempDir()
	bag := sampleBag(t, dir)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, JSONOpts{PathMode: PathModeBasename, Max: 2}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 2 || len(out.Diagnostics) != 2 || !out.Truncated {
		t.Fatalf("expected 2 of 3 diagnostics, got %+v", out)
	}
	if out.Errors != 1 || out.Warnings != 1 {
		t.Fatalf("totals cover the whole bag, got %d errors %d warnings", out.Errors, out.Warnings)
	}
	first := out.Diagnostics[0]
	if first.Code != "PRG2002" || first.Severity != "WARNING" || first.Location.File != "a.cpp" || first.Location.Line != 2 {
		t.Fatalf("unexpected first diagnostic %+v", first)
	}
	if first.Title == "" {
		t.Error("title should come from the code table")
	}
}

func TestSarifOutput(t *testing.T) {
	bag := sampleBag(t, t.TempDir())
	var buf bytes.Buffer
	if err := Sarif(&buf, bag, SarifRunMeta{ToolName: "covmark", ToolVersion: "test", InvocationArgs: []string{"parse"}}); err != nil {
		t.Fatal(err)
	}
	var log sarifLog
	if err := json.Unmarshal(buf.Bytes(), &log); err != nil {
		t.Fatal(err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("unexpected log %+v", log)
	}
	run := log.Runs[0]
	if len(run.Results) != 3 || len(run.Tool.Driver.Rules) != 3 {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.Results[1].Level != "error" || run.Results[2].Locations != nil {
		t.Fatalf("unexpected results %+v", run.Results)
	}
	if run.Invocations[0].ExecutionSuccessful {
		t.Error("bag with errors must mark the run as failed")
	}
}

func TestParsePathMode(t *testing.T) {
	if m, ok := ParsePathMode("basename"); !ok || m != PathModeBasename {
		t.Fatalf("ParsePathMode(basename) = %v, %v", m, ok)
	}
	if _, ok := ParsePathMode("weird"); ok {
		t.Fatal("expected failure")
	}
}
