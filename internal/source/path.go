package source

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// NormalizeKey is the single path normalisation used for coverage lookups:
// separators become '/', the path is cleaned and Unicode case-folded.
// Both the report parser and every query go through it.
func NormalizeKey(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, `\`, "/")
	unc := strings.HasPrefix(p, "//")
	p = path.Clean(p)
	if unc && !strings.HasPrefix(p, "//") {
		p = "/" + p
	}
	// Caser хранит состояние, поэтому создаём новый на каждый вызов.
	return cases.Fold().String(p)
}

// IsRooted reports whether p is absolute on any platform the reports come
// from: POSIX roots, UNC/backslash roots and drive letters.
func IsRooted(p string) bool {
	if filepath.IsAbs(p) {
		return true
	}
	if p == "" {
		return false
	}
	if p[0] == '/' || p[0] == '\\' {
		return true
	}
	if len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/') {
		c := p[0] | 0x20
		return c >= 'a' && c <= 'z'
	}
	return false
}

// Resolve joins a relative p with base and makes it absolute. Rooted paths
// are returned unchanged.
func Resolve(base, p string) string {
	if IsRooted(p) {
		return p
	}
	joined := filepath.Join(base, p)
	if abs, err := filepath.Abs(joined); err == nil {
		return abs
	}
	return joined
}

// AbsolutePath returns the absolute, slash separated form of p.
func AbsolutePath(p string) (string, error) {
	if IsRooted(p) {
		return filepath.ToSlash(p), nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(abs), nil
}

// RelativePath returns p relative to baseDir. Paths outside baseDir fall
// back to their absolute form.
func RelativePath(p, baseDir string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs), nil
	}
	return filepath.ToSlash(rel), nil
}

// BaseName returns the last element of p for either separator style.
func BaseName(p string) string {
	return path.Base(strings.ReplaceAll(p, `\`, "/"))
}

// FormatPath renders p for display.
// mode: "absolute", "relative", "basename", "auto"
// baseDir: базовая директория для относительных путей (игнорируется для других режимов)
func FormatPath(p, mode, baseDir string) string {
	switch mode {
	case "absolute":
		if abs, err := AbsolutePath(p); err == nil {
			return abs
		}
		return p

	case "relative":
		if baseDir == "" {
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		if IsRooted(p) && !filepath.IsAbs(p) {
			return p
		}
		if rel, err := RelativePath(p, baseDir); err == nil {
			return rel
		}
		return p

	case "basename":
		return BaseName(p)

	case "auto":
		// Auto: короткие или относительные пути как есть, иначе basename
		if len(p) < 40 || !IsRooted(p) {
			return p
		}
		return BaseName(p)

	default:
		return p
	}
}

// ModTime returns the UTC last-write time of p.
func ModTime(p string) (time.Time, error) {
	info, err := os.Stat(p)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime().UTC(), nil
}
