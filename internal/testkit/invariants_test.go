package testkit

import (
	"strings"
	"testing"
	"time"

	"covmark/internal/cover"
	"covmark/internal/report"
)

func TestCheckIndexInvariants(t *testing.T) {
	idx := report.NewIndex("", time.Time{})
	v := cover.NewBitVector()
	v.Set(1, true)
	v.Ensure(2)
	v.Set(4, false)
	idx.Insert("/src/A.cpp", cover.NewEntry(v))

	if err := CheckIndexInvariants(idx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckIndexInvariants(nil); err == nil {
		t.Fatalf("nil index must fail")
	}
}

func TestCheckGutterMismatch(t *testing.T) {
	v := cover.NewBitVector()
	v.Set(2, true)
	states := []cover.State{cover.Irrelevant, cover.Uncovered, cover.Covered}
	err := CheckGutter(v, states)
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("expected line 1 mismatch, got %v", err)
	}
	if err := CheckGutter(v, states[:2]); err == nil {
		t.Fatalf("short gutter must fail")
	}
}
