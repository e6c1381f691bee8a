package diag

import "fmt"

// Diagnostic is a single finding. Path and Line are optional (Line is
// 1-based, 0 when the finding is not tied to a line).
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Path     string
	Line     int
}

// Location renders path[:line] or "" when neither is known.
func (d Diagnostic) Location() string {
	switch {
	case d.Path == "":
		return ""
	case d.Line > 0:
		return fmt.Sprintf("%s:%d", d.Path, d.Line)
	default:
		return d.Path
	}
}

func (d Diagnostic) String() string {
	if loc := d.Location(); loc != "" {
		return fmt.Sprintf("%s: %s %s: %s", loc, d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s %s: %s", d.Severity, d.Code, d.Message)
}
