package project

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment overrides, applied after the settings file.
const (
	EnvReport   = "COVMARK_REPORT"
	EnvBase     = "COVMARK_BASE"
	EnvCacheDir = "COVMARK_CACHE_DIR"
)

// DefaultReportName is used when neither settings nor environment name a report.
const DefaultReportName = "coverage.txt"

// Settings is the merged covmark configuration for one project.
type Settings struct {
	// Root is the project root; empty when no settings file was found.
	Root string `toml:"-"`
	// Path of the settings file that was loaded, if any.
	Path string `toml:"-"`

	Report  ReportSettings  `toml:"report"`
	Filter  FilterSettings  `toml:"filter"`
	Pragma  PragmaSettings  `toml:"pragma"`
	Cache   CacheSettings   `toml:"cache"`
	Session SessionSettings `toml:"session"`
}

// ReportSettings locate the report file and the base for relative FILE: paths.
type ReportSettings struct {
	Path string `toml:"path"`
	Base string `toml:"base"`
}

// FilterSettings drop files from the index.
type FilterSettings struct {
	Exclude []string `toml:"exclude"`
}

// PragmaSettings toggle source marker masking.
type PragmaSettings struct {
	Enabled bool `toml:"enabled"`
}

// CacheSettings configure the parsed report disk cache.
type CacheSettings struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// SessionSettings tune the background refresh.
type SessionSettings struct {
	Jobs        int `toml:"jobs"`
	GutterCache int `toml:"gutter_cache"`
}

// Defaults returns the settings used when no file is present.
func Defaults() Settings {
	return Settings{
		Report:  ReportSettings{Path: DefaultReportName},
		Pragma:  PragmaSettings{Enabled: true},
		Cache:   CacheSettings{Enabled: true},
		Session: SessionSettings{Jobs: runtime.GOMAXPROCS(0), GutterCache: 128},
	}
}

// LoadSettingsFile decodes a settings file over the defaults.
func LoadSettingsFile(path string) (Settings, error) {
	cfg := Defaults()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Settings{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Session.Jobs < 0 {
		return Settings{}, fmt.Errorf("%s: [session].jobs must not be negative", path)
	}
	cfg.Path = path
	cfg.Root = rootOf(path)
	return cfg, nil
}

// Load finds settings starting at startDir, loads .env from the project
// root (or startDir) and applies environment overrides. A missing settings
// file is not an error.
func Load(startDir string) (Settings, error) {
	cfg := Defaults()
	path, ok, err := FindSettings(startDir)
	if err != nil {
		return Settings{}, err
	}
	if ok {
		if cfg, err = LoadSettingsFile(path); err != nil {
			return Settings{}, err
		}
	} else if cfg.Root, err = filepath.Abs(cmp.Or(startDir, ".")); err != nil {
		return Settings{}, err
	}
	return finish(cfg)
}

// LoadExplicit loads the given settings file (e.g. from --config) and then
// applies .env and environment overrides the same way Load does.
func LoadExplicit(path string) (Settings, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Settings{}, err
	}
	cfg, err := LoadSettingsFile(abs)
	if err != nil {
		return Settings{}, err
	}
	return finish(cfg)
}

func finish(cfg Settings) (Settings, error) {
	// .env не обязателен; уже заданные переменные окружения не трогаем
	if err := godotenv.Load(filepath.Join(cfg.Root, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnv()
	cfg.resolve()
	return cfg, nil
}

func (s *Settings) applyEnv() {
	if v, ok := os.LookupEnv(EnvReport); ok && v != "" {
		s.Report.Path = v
	}
	if v, ok := os.LookupEnv(EnvBase); ok && v != "" {
		s.Report.Base = v
	}
	if v, ok := os.LookupEnv(EnvCacheDir); ok && v != "" {
		s.Cache.Dir = v
	}
}

// resolve makes report, base and cache paths absolute against Root.
func (s *Settings) resolve() {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(s.Root, p)
	}
	s.Report.Path = abs(s.Report.Path)
	if s.Report.Base == "" {
		s.Report.Base = s.Root
	}
	s.Report.Base = abs(s.Report.Base)
	s.Cache.Dir = abs(s.Cache.Dir)
	if s.Session.Jobs == 0 {
		s.Session.Jobs = runtime.GOMAXPROCS(0)
	}
}
