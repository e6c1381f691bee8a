package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, root, body string) {
	t.Helper()
	dir := filepath.Join(root, SettingsDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFile), []byte(body), 0o600))
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if old, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { _ = os.Setenv(k, old) })
		} else {
			t.Cleanup(func() { _ = os.Unsetenv(k) })
		}
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestFindSettingsWalksUp(t *testing.T) {
	root := t.TempDir()
	writeSettings(t, root, "")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, ok, err := FindProjectRoot(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root, got)

	_, ok, err = FindSettings(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadSettings(t *testing.T) {
	unsetEnv(t, EnvReport, EnvBase, EnvCacheDir)
	root := t.TempDir()
	writeSettings(t, root, `
[report]
path = "out/cov.txt"

[filter]
exclude = ["third_party/", "gen/"]

[pragma]
enabled = false

[session]
jobs = 3
`)
	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, filepath.Join(root, "out", "cov.txt"), cfg.Report.Path)
	assert.Equal(t, root, cfg.Report.Base)
	assert.Equal(t, []string{"third_party/", "gen/"}, cfg.Filter.Exclude)
	assert.False(t, cfg.Pragma.Enabled)
	assert.True(t, cfg.Cache.Enabled, "defaults survive partial files")
	assert.Equal(t, 3, cfg.Session.Jobs)
	assert.Equal(t, 128, cfg.Session.GutterCache)
}

func TestLoadSettingsUnknownKey(t *testing.T) {
	root := t.TempDir()
	writeSettings(t, root, "[report]\npth = \"x\"\n")
	_, err := Load(root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report.pth")
}

func TestLoadEnvOverrides(t *testing.T) {
	unsetEnv(t, EnvReport, EnvBase, EnvCacheDir)
	root := t.TempDir()
	writeSettings(t, root, "[report]\npath = \"file.txt\"\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("COVMARK_BASE=src\nCOVMARK_CACHE_DIR=/tmp/covcache\n"), 0o600))
	t.Setenv(EnvReport, "env.txt")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "env.txt"), cfg.Report.Path)
	assert.Equal(t, filepath.Join(root, "src"), cfg.Report.Base)
	assert.Equal(t, "/tmp/covcache", cfg.Cache.Dir)
}

func TestLoadWithoutSettings(t *testing.T) {
	unsetEnv(t, EnvReport, EnvBase, EnvCacheDir)
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, filepath.Join(dir, DefaultReportName), cfg.Report.Path)
	assert.True(t, cfg.Pragma.Enabled)
	assert.Positive(t, cfg.Session.Jobs)
}

func TestCombineIsOrderSensitive(t *testing.T) {
	var base Digest
	a := Combine(base, "x", "y")
	b := Combine(base, "y", "x")
	c := Combine(base, "xy")
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.False(t, a.IsZero())
	assert.Len(t, a.String(), 64)
}

func TestLoadExplicitOutsideSettingsDir(t *testing.T) {
	unsetEnv(t, EnvReport, EnvBase, EnvCacheDir)
	root := t.TempDir()
	path := filepath.Join(root, "ci.toml")
	require.NoError(t, os.WriteFile(path, []byte("[report]\npath = \"out/cov.txt\"\n"), 0o600))

	cfg, err := LoadExplicit(path)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, filepath.Join(root, "out", "cov.txt"), cfg.Report.Path)
	assert.Equal(t, root, cfg.Report.Base)
}
