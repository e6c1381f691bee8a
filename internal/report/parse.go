package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"covmark/internal/cover"
	"covmark/internal/diag"
	"covmark/internal/source"
)

const (
	markerFile = "FILE:"
	markerRes  = "RES:"
	markerProf = "PROF:"
)

// Options configure a parse.
type Options struct {
	// BaseDir resolves relative FILE: paths. Empty means the working directory.
	BaseDir string
	// Exclude drops blocks whose normalized path contains any fragment.
	Exclude []string
	// Reporter receives recoverable findings. Nil discards them.
	Reporter diag.Reporter
	// Stat checks whether a resolved source file exists. Defaults to os.Stat.
	Stat func(string) (fs.FileInfo, error)
	// Name is used as the diagnostic path for report-level findings.
	Name string
}

// lineReader yields report lines with a one line push-back buffer, which is
// how the parser resynchronises on a FILE: line it read too early.
type lineReader struct {
	r       *bufio.Reader
	no      int
	pending *string
	err     error
}

func (lr *lineReader) next() (string, bool) {
	if lr.pending != nil {
		line := *lr.pending
		lr.pending = nil
		return line, true
	}
	if lr.err != nil {
		return "", false
	}
	line, err := lr.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			lr.err = err
			return "", false
		}
		lr.err = io.EOF
		if line == "" {
			return "", false
		}
	}
	lr.no++
	return strings.TrimRight(line, "\r\n"), true
}

func (lr *lineReader) unread(line string) {
	lr.pending = &line
}

// failure returns the I/O error that stopped reading, if any.
func (lr *lineReader) failure() error {
	if lr.err == nil || errors.Is(lr.err, io.EOF) {
		return nil
	}
	return lr.err
}

func cutMarker(line, marker string) (string, bool) {
	rest, ok := strings.CutPrefix(line, marker)
	if !ok {
		return "", false
	}
	// как и в исходном формате: ровно один пробел после маркера
	return strings.TrimPrefix(rest, " "), true
}

// Parse reads a report from r. I/O failures abort the parse and return a
// nil Index; format problems are reported through opts.Reporter and the
// affected block is skipped or kept partially.
func Parse(r io.Reader, opts Options) (*Index, error) {
	p := &parser{
		opts:  opts,
		lr:    &lineReader{r: bufio.NewReaderSize(r, 64*1024)},
		index: newIndex(opts.BaseDir),
	}
	if p.opts.Stat == nil {
		p.opts.Stat = os.Stat
	}
	for _, frag := range opts.Exclude {
		if frag = strings.TrimSpace(frag); frag != "" {
			p.exclude = append(p.exclude, source.NormalizeKey(frag))
		}
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.index, nil
}

// ParseFile parses the report at path and stamps the index with the
// report's last-write time.
func ParseFile(path string, opts Options) (*Index, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- report path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if opts.Name == "" {
		opts.Name = path
	}
	idx, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	idx.FileDate = info.ModTime().UTC()
	idx.Source = path
	return idx, nil
}

type parser struct {
	opts    Options
	lr      *lineReader
	index   *Index
	exclude []string
	blocks  int
}

func (p *parser) run() error {
	for {
		line, ok := p.lr.next()
		if !ok {
			break
		}
		name, isFile := cutMarker(line, markerFile)
		if !isFile {
			// неизвестные строки между блоками пропускаем
			continue
		}
		p.blocks++
		p.block(name, p.lr.no)
	}
	if err := p.lr.failure(); err != nil {
		return err
	}
	if p.blocks == 0 {
		diag.Infof(p.opts.Reporter, diag.ReportEmpty, p.opts.Name, 0, "no FILE: blocks found")
	}
	return nil
}

func (p *parser) block(name string, fileLine int) {
	path := p.resolve(name, fileLine)
	key := source.NormalizeKey(path)

	resLine, ok := p.lr.next()
	if !ok {
		diag.Warnf(p.opts.Reporter, diag.ReportMissingRes, p.opts.Name, fileLine,
			"report ends before RES: line of %s", name)
		return
	}
	res, isRes := cutMarker(resLine, markerRes)
	if !isRes {
		diag.Warnf(p.opts.Reporter, diag.ReportMissingRes, p.opts.Name, p.lr.no,
			"expected RES: line for %s, block skipped", name)
		p.lr.unread(resLine)
		return
	}

	lines := decodeRes(res)
	entry := cover.NewEntry(lines)

	profLine, ok := p.lr.next()
	if ok {
		if prof, isProf := cutMarker(profLine, markerProf); isProf {
			p.decodeProf(prof, entry.Profile, name, p.lr.no)
		} else {
			diag.Infof(p.opts.Reporter, diag.ReportMissingProf, p.opts.Name, p.lr.no,
				"no PROF: line for %s", name)
			p.lr.unread(profLine)
		}
	}

	if p.excluded(key) {
		diag.Infof(p.opts.Reporter, diag.ReportExcluded, path, 0, "excluded by filter")
		return
	}
	if !p.index.insert(key, path, entry) {
		diag.Errorf(p.opts.Reporter, diag.ReportDuplicateFile, p.opts.Name, fileLine,
			"duplicate coverage block for key %s; keeping the first one", key)
	}
}

func (p *parser) resolve(name string, fileLine int) string {
	if source.IsRooted(name) {
		return name
	}
	base := p.opts.BaseDir
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			base = wd
		}
	}
	path := source.Resolve(base, name)
	if _, err := p.opts.Stat(path); err != nil {
		diag.Warnf(p.opts.Reporter, diag.ReportSourceMissing, p.opts.Name, fileLine,
			"cannot find %s under %s", name, base)
	}
	return path
}

func (p *parser) excluded(key string) bool {
	for _, frag := range p.exclude {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}

func decodeRes(res string) *cover.BitVector {
	v := cover.NewBitVector()
	for i, r := range []rune(res) {
		switch r {
		case 'c', 'p':
			v.Set(i+1, true)
		case 'u':
			v.Set(i+1, false)
		default:
			v.Ensure(i + 1)
		}
	}
	return v
}

// decodeProf fills prof from a "deep,shallow," stream. Every value is
// comma terminated; the final terminator may be missing.
func (p *parser) decodeProf(stream string, prof *cover.ProfileVector, name string, lineNo int) {
	line := 0
	for stream != "" {
		deep, rest, err := nextPercent(stream)
		if err != nil {
			p.badProfile(name, lineNo, line, err)
			return
		}
		if rest == "" {
			p.badProfile(name, lineNo, line, errors.New("missing shallow value"))
			return
		}
		shallow, rest, err := nextPercent(rest)
		if err != nil {
			p.badProfile(name, lineNo, line, err)
			return
		}
		stream = rest
		if !prof.Set(line, deep, shallow) {
			diag.Warnf(p.opts.Reporter, diag.ReportProfileOverflow, p.opts.Name, lineNo,
				"%s: profile has entries past line %d, ignored", name, prof.Len())
			return
		}
		line++
	}
}

func (p *parser) badProfile(name string, lineNo, entry int, err error) {
	diag.Warnf(p.opts.Reporter, diag.ReportBadProfile, p.opts.Name, lineNo,
		"%s: profile entry %d: %v", name, entry, err)
}
