package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"covmark/internal/cover"
	"covmark/internal/diag"
	"covmark/internal/observ"
	"covmark/internal/pragma"
	"covmark/internal/project"
	"covmark/internal/report"
	"covmark/internal/source"
	"covmark/internal/trace"
)

// Config describes one coverage session.
type Config struct {
	ReportPath string
	BaseDir    string
	Exclude    []string
	// Pragma enables source marker masking after each parse.
	Pragma bool
	// Jobs bounds concurrent pragma scans; <= 0 means GOMAXPROCS.
	Jobs int
	// GutterCache is the LRU size for Gutter results; <= 0 means 128.
	GutterCache int
	// Cache is optional; nil disables the disk cache.
	Cache *DiskCache

	Reporter diag.Reporter
	Timer    *observ.Timer
	Observer PhaseObserver
	// Stat defaults to os.Stat; tests replace it to fake timestamps.
	Stat func(string) (fs.FileInfo, error)
}

// ConfigFromSettings maps project settings to a session config and opens
// the disk cache when it is enabled.
func ConfigFromSettings(s project.Settings, r diag.Reporter) (Config, error) {
	cfg := Config{
		ReportPath:  s.Report.Path,
		BaseDir:     s.Report.Base,
		Exclude:     s.Filter.Exclude,
		Pragma:      s.Pragma.Enabled,
		Jobs:        s.Session.Jobs,
		GutterCache: s.Session.GutterCache,
		Reporter:    r,
	}
	if s.Cache.Enabled {
		dc, err := OpenDiskCache(s.Cache.Dir, "covmark")
		if err != nil {
			return Config{}, fmt.Errorf("failed to open cache: %w", err)
		}
		cfg.Cache = dc
	}
	return cfg, nil
}

// Update is sent to subscribers after every refresh attempt.
type Update struct {
	// Index is the current index after the attempt; nil before the first
	// successful load or after Reset.
	Index *report.Index
	// Changed is true when a new index was swapped in.
	Changed bool
	// Err is the reason the attempt failed, if it did.
	Err error
	At  time.Time
}

type gutterEntry struct {
	idx    *report.Index
	states []cover.State
}

// Session owns the latest successfully parsed report and hands it to
// readers without locking. Parse-and-swap runs under mu; readers only
// ever see a complete index.
type Session struct {
	cfg Config

	mu      sync.Mutex // parse and swap
	group   singleflight.Group
	current atomic.Pointer[report.Index]

	gutters *lru.Cache[string, gutterEntry]

	subMu   sync.Mutex
	subs    map[int]chan Update
	nextSub int
}

// NewSession validates cfg and returns an empty session. Call Refresh to load.
func NewSession(cfg Config) (*Session, error) {
	if cfg.ReportPath == "" {
		return nil, errors.New("report path is empty")
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = runtime.GOMAXPROCS(0)
	}
	if cfg.GutterCache <= 0 {
		cfg.GutterCache = 128
	}
	if cfg.Stat == nil {
		cfg.Stat = os.Stat
	}
	if abs, err := filepath.Abs(cfg.ReportPath); err == nil {
		cfg.ReportPath = abs
	}
	gutters, err := lru.New[string, gutterEntry](cfg.GutterCache)
	if err != nil {
		return nil, err
	}
	return &Session{cfg: cfg, gutters: gutters, subs: make(map[int]chan Update)}, nil
}

// ReportPath returns the absolute report path the session watches.
func (s *Session) ReportPath() string { return s.cfg.ReportPath }

// Current returns the last good index, or nil.
func (s *Session) Current() *report.Index { return s.current.Load() }

// Reset drops the current index; the next Refresh parses from scratch.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Store(nil)
	s.gutters.Purge()
	s.notify(Update{At: time.Now()})
}

// Refresh reloads the report when it changed since the current index was
// built. Concurrent calls share one load. On failure the previous index
// stays current and is returned together with the error.
func (s *Session) Refresh(ctx context.Context) (*report.Index, error) {
	v, err, _ := s.group.Do(s.cfg.ReportPath, func() (any, error) {
		return s.refresh(ctx)
	})
	idx, _ := v.(*report.Index)
	return idx, err
}

func (s *Session) refresh(ctx context.Context) (*report.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := trace.Start(ctx, trace.ScopeDriver, "refresh")
	defer span.End("")

	path := s.cfg.ReportPath
	cur := s.current.Load()

	info, err := s.cfg.Stat(path)
	if err != nil {
		return s.fail(cur, fmt.Errorf("report %s: %w", path, err))
	}
	modTime := info.ModTime().UTC()
	if cur != nil && cur.Source == path && !modTime.After(cur.FileDate) {
		span.Attr("result", "unchanged")
		s.notify(Update{Index: cur, At: time.Now()})
		return cur, nil
	}

	s.cfg.Timer.Reset()
	idx, err := s.load(ctx, path, modTime)
	if err != nil {
		return s.fail(cur, err)
	}
	if s.cfg.Pragma {
		if idx, err = s.mask(ctx, idx); err != nil {
			return s.fail(cur, err)
		}
	}

	_, swap := s.phase(ctx, PhaseSwap)
	s.current.Store(idx)
	s.gutters.Purge()
	swap.end(fmt.Sprintf("%d files", idx.Len()))

	span.Attr("files", fmt.Sprint(idx.Len()))
	reportTimings(s.cfg.Reporter, path, s.cfg.Timer)
	s.notify(Update{Index: idx, Changed: true, At: time.Now()})
	return idx, nil
}

func (s *Session) fail(cur *report.Index, err error) (*report.Index, error) {
	if cur != nil {
		diag.Warnf(s.cfg.Reporter, diag.SessionLoadFailed, s.cfg.ReportPath, 0,
			"%v; keeping coverage from %s", err, cur.FileDate.Local().Format(time.DateTime))
	} else {
		diag.Warnf(s.cfg.Reporter, diag.SessionLoadFailed, s.cfg.ReportPath, 0, "%v", err)
	}
	s.notify(Update{Index: cur, Err: err, At: time.Now()})
	return cur, err
}

func (s *Session) load(ctx context.Context, path string, modTime time.Time) (*report.Index, error) {
	var key project.Digest
	if s.cfg.Cache != nil {
		_, ph := s.phase(ctx, PhaseCache)
		idx, k := s.fromCache(path)
		key = k
		if idx != nil {
			ph.end("hit")
			idx.FileDate = modTime
			idx.Source = path
			return idx, nil
		}
		ph.end("miss")
	}

	_, ph := s.phase(ctx, PhaseParse)
	idx, err := report.ParseFile(path, report.Options{
		BaseDir:  s.cfg.BaseDir,
		Exclude:  s.cfg.Exclude,
		Reporter: s.cfg.Reporter,
		Stat:     s.cfg.Stat,
	})
	if err != nil {
		ph.end("failed")
		return nil, err
	}
	ph.end(fmt.Sprintf("%d files", idx.Len()))
	idx.FileDate = modTime

	if s.cfg.Cache != nil && !key.IsZero() {
		if err := s.cfg.Cache.Put(key, indexToDiskPayload(idx)); err != nil {
			diag.Warnf(s.cfg.Reporter, diag.SessionCacheError, s.cfg.Cache.Dir(), 0, "cache write: %v", err)
		}
	}
	return idx, nil
}

func (s *Session) fromCache(path string) (*report.Index, project.Digest) {
	key, err := cacheKey(path, s.cfg.BaseDir, s.cfg.Exclude)
	if err != nil {
		return nil, project.Digest{}
	}
	var payload DiskPayload
	ok, err := s.cfg.Cache.Get(key, &payload)
	if err != nil {
		diag.Warnf(s.cfg.Reporter, diag.SessionCacheError, s.cfg.Cache.Dir(), 0, "cache read: %v", err)
		return nil, key
	}
	if !ok {
		return nil, key
	}
	return diskPayloadToIndex(&payload), key
}

// mask applies pragma markers to a copy of idx. Unreadable sources are
// skipped and keep their coverage as parsed.
func (s *Session) mask(ctx context.Context, idx *report.Index) (*report.Index, error) {
	ctx, ph := s.phase(ctx, PhasePragma)
	out := idx.Map(nil)
	keys := out.Keys()
	total := len(keys)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Jobs)
	for _, key := range keys {
		path := out.Path(key)
		lines := out.Entry(key).Lines
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := pragma.Apply(path, lines); err != nil {
				trace.Point(gctx, trace.ScopeFile, "pragma:"+path, err.Error())
			}
			n := int(done.Add(1))
			if s.cfg.Observer != nil {
				s.cfg.Observer(PhaseEvent{Name: PhasePragma, Status: PhaseProgress, Done: n, Total: total})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		ph.end("cancelled")
		return nil, err
	}
	ph.end(fmt.Sprintf("%d files", total))
	return out, nil
}

// Lookup returns coverage for a source file. Files changed after the report
// was written have no trustworthy coverage and are reported as missing.
func (s *Session) Lookup(path string) (*cover.Entry, bool) {
	return s.lookup(s.current.Load(), path)
}

func (s *Session) lookup(idx *report.Index, path string) (*cover.Entry, bool) {
	e, ok := idx.Lookup(path)
	if !ok || !s.fresh(idx, path) {
		return nil, false
	}
	return e, true
}

func (s *Session) fresh(idx *report.Index, path string) bool {
	if !source.IsRooted(path) && idx.BaseDir != "" {
		path = source.Resolve(idx.BaseDir, path)
	}
	info, err := s.cfg.Stat(path)
	if err != nil || info == nil {
		// нет файла - нечего сравнивать
		return true
	}
	if idx.Fresh(info.ModTime()) {
		return true
	}
	diag.Infof(s.cfg.Reporter, diag.SessionStale, path, 0,
		"source modified after the coverage report was written")
	return false
}

// Gutter returns the dense state array for a source file, or nil when there
// is no fresh coverage for it. The slice is shared and must not be modified.
func (s *Session) Gutter(path string) []cover.State {
	idx := s.current.Load()
	e, ok := s.lookup(idx, path)
	if !ok {
		return nil
	}
	key := path
	if !source.IsRooted(key) && idx.BaseDir != "" {
		key = source.Resolve(idx.BaseDir, key)
	}
	key = source.NormalizeKey(key)
	if g, ok := s.gutters.Get(key); ok && g.idx == idx {
		return g.states
	}
	states := e.Gutter()
	s.gutters.Add(key, gutterEntry{idx: idx, states: states})
	return states
}

// Subscribe returns a channel of refresh updates and a cancel func.
// Slow subscribers only see the latest update.
func (s *Session) Subscribe() (<-chan Update, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan Update, 1)
	s.subs[id] = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Session) notify(u Update) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- u:
		default:
			// вытесняем устаревшее обновление
			select {
			case <-ch:
			default:
			}
			ch <- u
		}
	}
}

type phaseRun struct {
	s     *Session
	name  string
	idx   int
	span  *trace.Span
	start time.Time
}

func (s *Session) phase(ctx context.Context, name string) (context.Context, *phaseRun) {
	ctx, span := trace.Start(ctx, trace.ScopePhase, name)
	p := &phaseRun{s: s, name: name, idx: s.cfg.Timer.Begin(name), span: span, start: time.Now()}
	if s.cfg.Observer != nil {
		s.cfg.Observer(PhaseEvent{Name: name, Status: PhaseStart})
	}
	return ctx, p
}

func (p *phaseRun) end(note string) {
	p.s.cfg.Timer.End(p.idx, note)
	p.span.End(note)
	if p.s.cfg.Observer != nil {
		p.s.cfg.Observer(PhaseEvent{Name: p.name, Status: PhaseEnd, Elapsed: time.Since(p.start)})
	}
}
