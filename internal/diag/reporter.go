package diag

import "fmt"

// Reporter: минимальный контракт получения диагностик.
// Реализации: BagReporter (кладёт в Bag), Nop, DedupReporter, MultiReporter.
type Reporter interface {
	Report(d Diagnostic)
}

// Warnf emits a warning to r; a nil r drops it.
func Warnf(r Reporter, code Code, path string, line int, format string, args ...any) {
	emit(r, SevWarning, code, path, line, format, args...)
}

// Errorf emits a recoverable error to r.
func Errorf(r Reporter, code Code, path string, line int, format string, args ...any) {
	emit(r, SevError, code, path, line, format, args...)
}

// Infof emits an informational diagnostic to r.
func Infof(r Reporter, code Code, path string, line int, format string, args ...any) {
	emit(r, SevInfo, code, path, line, format, args...)
}

func emit(r Reporter, sev Severity, code Code, path string, line int, format string, args ...any) {
	if r == nil {
		return
	}
	r.Report(Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
		Line:     line,
	})
}

type nopReporter struct{}

func (nopReporter) Report(Diagnostic) {}

// Nop discards every diagnostic.
var Nop Reporter = nopReporter{}

// BagReporter пишет диагностики в *Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// MultiReporter fans a diagnostic out to every non-nil reporter.
type MultiReporter []Reporter

func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) {
	if f != nil {
		f(d)
	}
}
