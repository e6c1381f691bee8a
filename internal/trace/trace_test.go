package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestStreamTracerText(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatText)
	ctx := WithTracer(context.Background(), tr)

	ctx, span := Start(ctx, ScopeDriver, "refresh")
	_, child := Start(ctx, ScopePhase, "parse")
	child.Attr("files", "3").Attr("cache", "miss").End("ok")
	// file scope is below LevelPhase
	Point(ctx, ScopeFile, "pragma:a.cpp", "")
	span.End("")

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 events, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "  → parse") {
		t.Errorf("child begin not indented: %q", lines[1])
	}
	if !strings.Contains(lines[2], "← parse ok ") || !strings.HasSuffix(lines[2], "files=3 cache=miss") {
		t.Errorf("unexpected end line %q", lines[2])
	}
	if strings.Contains(out, "pragma:a.cpp") {
		t.Errorf("file scope event leaked at phase level")
	}
}

func TestSpanParentage(t *testing.T) {
	ring := NewRingTracer(8, LevelDetail)
	ctx := WithTracer(context.Background(), ring)

	ctx, outer := Start(ctx, ScopeDriver, "refresh")
	if SpanID(ctx) != outer.ID() {
		t.Fatalf("context does not carry the open span")
	}
	Point(ctx, ScopeFile, "pragma:b.cpp", "unreadable")
	outer.End("")

	evs := ring.Snapshot()
	if len(evs) != 3 {
		t.Fatalf("expected 3 events, got %+v", evs)
	}
	if evs[1].Kind != KindPoint || evs[1].Parent != outer.ID() || evs[1].Span != 0 {
		t.Errorf("point not attached to span: %+v", evs[1])
	}
	if evs[0].Seq >= evs[1].Seq || evs[1].Seq >= evs[2].Seq {
		t.Errorf("sequence not increasing: %d %d %d", evs[0].Seq, evs[1].Seq, evs[2].Seq)
	}
}

func TestRingTracerWraps(t *testing.T) {
	tr := NewRingTracer(2, LevelDetail)
	for _, name := range []string{"a", "b", "c"} {
		tr.Emit(Event{Kind: KindPoint, Scope: ScopeFile, Name: name})
	}
	got := tr.Snapshot()
	if len(got) != 2 || got[0].Name != "b" || got[1].Name != "c" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	var buf bytes.Buffer
	if err := tr.Dump(&buf, FormatNDJSON); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("unexpected dump %q", buf.String())
	}
	var last map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &last); err != nil {
		t.Fatal(err)
	}
	if last["name"] != "c" || last["kind"] != "point" || last["scope"] != "file" {
		t.Errorf("unexpected event %v", last)
	}
}

func TestNopContext(t *testing.T) {
	ctx, span := Start(context.Background(), ScopeDriver, "x")
	if span != nil || SpanID(ctx) != 0 {
		t.Fatal("nop tracer must not allocate spans")
	}
	if span.Attr("k", "v").End("") != 0 {
		t.Fatal("nil span has no duration")
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"off": LevelOff, "PHASE": LevelPhase, "debug": LevelDetail, "error": LevelError} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error")
	}
}

func TestLevelAdmits(t *testing.T) {
	if LevelOff.Admits(ScopeDriver) {
		t.Error("off admits nothing")
	}
	if !LevelError.Admits(ScopePhase) || LevelError.Admits(ScopeFile) {
		t.Error("error level keeps phases only")
	}
	if !LevelDetail.Admits(ScopeFile) {
		t.Error("detail admits files")
	}
}

func TestFormatForPath(t *testing.T) {
	if FormatForPath("trace.NDJSON") != FormatNDJSON || FormatForPath("out.json") != FormatNDJSON {
		t.Error("json extensions should select NDJSON")
	}
	if FormatForPath("-") != FormatText || FormatForPath("trace.log") != FormatText {
		t.Error("other outputs are text")
	}
}

type failing struct{ off }

func (failing) Flush() error { return errors.New("disk full") }
func (failing) Level() Level { return LevelDetail }

func TestTee(t *testing.T) {
	phase := NewRingTracer(4, LevelPhase)
	detail := NewRingTracer(4, LevelDetail)
	tee := NewTee(phase, detail)
	if tee.Level() != LevelDetail {
		t.Fatalf("tee level = %v", tee.Level())
	}
	ctx := WithTracer(context.Background(), tee)
	Point(ctx, ScopeFile, "pragma:c.cpp", "")
	if len(phase.Snapshot()) != 0 || len(detail.Snapshot()) != 1 {
		t.Fatalf("tee must filter per sink")
	}

	if err := NewTee(phase, failing{}).Flush(); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("flush error lost: %v", err)
	}
}

func TestFindRing(t *testing.T) {
	ring := NewRingTracer(4, LevelPhase)
	var buf bytes.Buffer
	tee := NewTee(NewStreamTracer(&buf, LevelPhase, FormatText), ring)

	if got, ok := FindRing(tee); !ok || got != ring {
		t.Fatalf("ring not found through tee")
	}
	if _, ok := FindRing(Nop); ok {
		t.Fatalf("nop tracer has no ring")
	}
}

func TestNewModes(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr != Nop {
		t.Fatalf("off should give Nop, got %v %v", tr, err)
	}
	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := FindRing(tr); !ok {
		t.Fatalf("both mode should include a ring")
	}
	if _, err := ParseMode("tape"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, err := New(Config{Level: LevelPhase, Mode: StorageMode(9)}); err == nil {
		t.Fatal("expected error for unknown mode value")
	}
}
