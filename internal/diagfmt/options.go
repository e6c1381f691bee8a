package diagfmt

import "covmark/internal/source"

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto chooses relative or absolute path automatically.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode converts a flag value to a PathMode.
func ParsePathMode(s string) (PathMode, bool) {
	switch s {
	case "", "auto":
		return PathModeAuto, true
	case "absolute":
		return PathModeAbsolute, true
	case "relative":
		return PathModeRelative, true
	case "basename":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

func (m PathMode) format(path, baseDir string) string {
	if path == "" {
		return ""
	}
	switch m {
	case PathModeAbsolute:
		return source.FormatPath(path, "absolute", baseDir)
	case PathModeRelative:
		return source.FormatPath(path, "relative", baseDir)
	case PathModeBasename:
		return source.FormatPath(path, "basename", baseDir)
	default:
		return source.FormatPath(path, "auto", baseDir)
	}
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color    bool
	PathMode PathMode
	BaseDir  string
	// ShowPreview prints the referenced source line under the message.
	ShowPreview bool
	// Files resolves preview lines; nil means files are loaded on demand.
	Files *source.FileSet
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode PathMode
	BaseDir  string
	Max      int // обрезка вывода, не Bag
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InvocationArgs []string
}
