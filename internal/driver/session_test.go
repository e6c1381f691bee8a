package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covmark/internal/cover"
	"covmark/internal/diag"
	"covmark/internal/observ"
	"covmark/internal/testkit"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	dir    string
	report string
	bag    *diag.Bag
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{dir: dir, report: filepath.Join(dir, "coverage.txt"), bag: diag.NewBag(100)}
	f.source(t, "a.cpp", "int a;\n// DisableCodeCoverage\nint b;\n", t0)
	f.source(t, "b.cpp", "int c;\nint d;\n", t0)
	f.writeReport(t, "ccc", t0.Add(10*time.Second))
	return f
}

func (f *fixture) source(t *testing.T, name, body string, mod time.Time) {
	t.Helper()
	p := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	require.NoError(t, os.Chtimes(p, mod, mod))
}

func (f *fixture) writeReport(t *testing.T, resA string, mod time.Time) {
	t.Helper()
	body := fmt.Sprintf("FILE: %s\nRES: %s\nPROF: 1,2,\nFILE: b.cpp\nRES: cu\nPROF: \n",
		filepath.Join(f.dir, "a.cpp"), resA)
	require.NoError(t, os.WriteFile(f.report, []byte(body), 0o600))
	require.NoError(t, os.Chtimes(f.report, mod, mod))
}

func (f *fixture) session(t *testing.T, mutate func(*Config)) *Session {
	t.Helper()
	cfg := Config{
		ReportPath: f.report,
		BaseDir:    f.dir,
		Pragma:     true,
		Jobs:       2,
		Reporter:   diag.BagReporter{Bag: f.bag},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewSession(cfg)
	require.NoError(t, err)
	return s
}

func present(e *cover.Entry) []int {
	var out []int
	for line := range e.Lines.Enumerate() {
		out = append(out, line)
	}
	return out
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestSessionRefreshAppliesPragmas(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, nil)
	assert.Nil(t, s.Current())

	idx, err := s.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, idx.Len())
	assert.Same(t, idx, s.Current())
	assert.True(t, idx.FileDate.Equal(t0.Add(10*time.Second)))
	require.NoError(t, testkit.CheckIndexInvariants(idx))

	a, ok := s.Lookup(filepath.Join(f.dir, "a.cpp"))
	require.True(t, ok)
	assert.Equal(t, []int{1}, present(a))
	assert.Equal(t, cover.Profile{Deep: 1, Shallow: 2}, a.Profile.Get(0))

	b, ok := s.Lookup("b.cpp")
	require.True(t, ok, "relative lookups resolve against the base dir")
	assert.Equal(t, []int{1, 2}, present(b))
}

func TestSessionPragmaDisabled(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, func(c *Config) { c.Pragma = false })
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)
	a, ok := s.Lookup(filepath.Join(f.dir, "a.cpp"))
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, present(a))
}

func TestSessionRefreshUnchangedAndChanged(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, nil)
	updates, cancel := s.Subscribe()
	defer cancel()

	first, err := s.Refresh(context.Background())
	require.NoError(t, err)
	u := <-updates
	assert.True(t, u.Changed)
	assert.Same(t, first, u.Index)

	again, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, again)
	u = <-updates
	assert.False(t, u.Changed)

	f.writeReport(t, "u", t0.Add(time.Minute))
	next, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, next)
	u = <-updates
	assert.True(t, u.Changed)

	a, ok := s.Lookup(filepath.Join(f.dir, "a.cpp"))
	require.True(t, ok)
	covered, present := a.Lines.Get(1)
	assert.True(t, present)
	assert.False(t, covered)
}

func TestSessionKeepsLastGoodIndex(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, nil)
	good, err := s.Refresh(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(f.report))
	got, err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.Same(t, good, got)
	assert.Same(t, good, s.Current())
	assert.True(t, hasCode(f.bag, diag.SessionLoadFailed))
}

func TestSessionMissingReportOnFirstLoad(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.Remove(f.report))
	s := f.session(t, nil)
	idx, err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.Nil(t, idx)
	assert.Nil(t, s.Current())
}

func TestSessionStaleSource(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, nil)
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	f.source(t, "b.cpp", "int c;\nint d;\nint e;\n", t0.Add(time.Hour))
	_, ok := s.Lookup("b.cpp")
	assert.False(t, ok)
	assert.Nil(t, s.Gutter("b.cpp"))
	assert.True(t, hasCode(f.bag, diag.SessionStale))
}

func TestSessionGutterMemo(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, nil)
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	g1 := s.Gutter("b.cpp")
	require.Equal(t, []cover.State{cover.Irrelevant, cover.Covered, cover.Uncovered}, g1)
	g2 := s.Gutter(filepath.Join(f.dir, "B.CPP"))
	require.NotEmpty(t, g2)
	assert.Same(t, &g1[0], &g2[0])

	f.writeReport(t, "ccc", t0.Add(time.Minute))
	_, err = s.Refresh(context.Background())
	require.NoError(t, err)
	g3 := s.Gutter("b.cpp")
	assert.Equal(t, g1, g3)
	assert.NotSame(t, &g1[0], &g3[0])

	assert.Nil(t, s.Gutter("nope.cpp"))
}

func TestSessionReset(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, nil)
	_, err := s.Refresh(context.Background())
	require.NoError(t, err)
	s.Reset()
	assert.Nil(t, s.Current())
	_, ok := s.Lookup("b.cpp")
	assert.False(t, ok)

	idx, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())
}

func TestSessionConcurrentRefresh(t *testing.T) {
	f := newFixture(t)
	s := f.session(t, nil)
	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, err := s.Refresh(context.Background())
			if err == nil {
				results[i] = idx
			}
		}()
	}
	wg.Wait()
	for _, r := range results {
		assert.Same(t, s.Current(), r)
	}
}

func TestSessionDiskCache(t *testing.T) {
	f := newFixture(t)
	dc, err := OpenDiskCache(filepath.Join(f.dir, "cache"), "covmark")
	require.NoError(t, err)

	first := f.session(t, func(c *Config) { c.Cache = dc; c.Timer = observ.NewTimer() })
	want, err := first.Refresh(context.Background())
	require.NoError(t, err)

	timer := observ.NewTimer()
	var mu sync.Mutex
	var events []PhaseEvent
	second := f.session(t, func(c *Config) {
		c.Cache = dc
		c.Timer = timer
		c.Observer = func(ev PhaseEvent) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}
	})
	got, err := second.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
	assert.Equal(t, f.report, got.Source)

	rep := timer.Report()
	require.NotEmpty(t, rep.Phases)
	assert.Equal(t, PhaseCache, rep.Phases[0].Name)
	assert.Equal(t, "hit", rep.Phases[0].Note)
	for _, p := range rep.Phases {
		assert.NotEqual(t, PhaseParse, p.Name)
	}

	var progress int
	for _, ev := range events {
		if ev.Status == PhaseProgress {
			progress++
			assert.Equal(t, 2, ev.Total)
		}
	}
	assert.Equal(t, 2, progress)
}

func TestNewSessionRejectsEmptyPath(t *testing.T) {
	_, err := NewSession(Config{})
	require.Error(t, err)
}
