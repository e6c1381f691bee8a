package diag

import (
	"sync"
	"testing"
)

func TestBagLimitAndSort(t *testing.T) {
	bag := NewBag(3)
	r := BagReporter{Bag: bag}

	Warnf(r, ReportSourceMissing, "b.cpp", 0, "missing %s", "b.cpp")
	Errorf(r, ReportDuplicateFile, "a.cpp", 0, "duplicate")
	Infof(r, ReportExcluded, "a.cpp", 0, "excluded")
	Warnf(r, ReportBadProfile, "c.cpp", 0, "dropped by limit")

	if bag.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", bag.Len())
	}
	if !bag.HasErrors() || !bag.HasWarnings() {
		t.Error("expected errors and warnings")
	}

	bag.Sort()
	items := bag.Items()
	if items[0].Code != ReportDuplicateFile || items[1].Code != ReportExcluded || items[2].Path != "b.cpp" {
		t.Errorf("unexpected order: %v", items)
	}

	bag.Filter(SevWarning)
	if bag.Len() != 2 {
		t.Errorf("Filter kept %d items, want 2", bag.Len())
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Warnf(r, PragmaScanFailed, "x.cpp", 0, "cannot read")
		}()
	}
	wg.Wait()

	Warnf(r, PragmaScanFailed, "y.cpp", 0, "cannot read")
	if bag.Len() != 2 {
		t.Errorf("Len() = %d, want 2", bag.Len())
	}
}

func TestNilReporterIsSafe(t *testing.T) {
	Warnf(nil, ReportBadProfile, "", 0, "ignored")
	var dedup *DedupReporter
	dedup.Report(Diagnostic{})
	MultiReporter{nil, Nop}.Report(Diagnostic{})
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Severity: SevWarning, Code: ReportMissingRes, Message: "no RES", Path: "r.cov", Line: 4}
	if got, want := d.String(), "r.cov:4: WARNING REP1002: no RES"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if _, err := ParseSeverity("loud"); err == nil {
		t.Error("ParseSeverity accepted garbage")
	}
}
