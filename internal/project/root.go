package project

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	// SettingsDir is the per-project directory holding covmark state.
	SettingsDir = ".coverage"
	// SettingsFile is the settings file name inside SettingsDir.
	SettingsFile = "settings.toml"
)

// FindSettings looks for .coverage/settings.toml in startDir and each of its
// parents. ok is false when the filesystem root is reached without a match.
func FindSettings(startDir string) (path string, ok bool, err error) {
	dir, err := filepath.Abs(cmp.Or(startDir, "."))
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for prev := ""; dir != prev; prev, dir = dir, filepath.Dir(dir) {
		candidate := filepath.Join(dir, SettingsDir, SettingsFile)
		_, err := os.Stat(candidate)
		switch {
		case err == nil:
			return candidate, true, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
	}
	return "", false, nil
}

// FindProjectRoot returns the directory that owns the settings file.
func FindProjectRoot(startDir string) (string, bool, error) {
	path, ok, err := FindSettings(startDir)
	if !ok {
		return "", false, err
	}
	return rootOf(path), true, nil
}

// rootOf maps a settings path to its project root: the parent of .coverage,
// or the file's own directory for settings kept elsewhere.
func rootOf(settingsPath string) string {
	dir := filepath.Dir(settingsPath)
	if filepath.Base(dir) == SettingsDir {
		return filepath.Dir(dir)
	}
	return dir
}
