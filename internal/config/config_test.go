package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doccbuild.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "docc:\n  catalog: Docs.docc\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Snippets"}, cfg.Snippets.Roots)
	assert.Equal(t, []string{".swift"}, cfg.Snippets.Extensions)
	assert.Equal(t, "Docs.docc", cfg.Docc.Catalog)
	assert.Equal(t, ".doccbuild/archive.doccarchive", cfg.Docc.Output)
	assert.Equal(t, "auto", cfg.Docc.SourceService)
	assert.Equal(t, "targets.json", cfg.Targets.DumpPath)
	assert.Equal(t, ".doccbuild/cache.db", cfg.Cache.Path)
	assert.Equal(t, "doccbuild.builds", cfg.Events.Subject)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
	assert.Equal(t, LogFormatText, cfg.Logging.Format)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("DOCCBUILD_TEST_BASE", "my-package")
	path := writeConfig(t, "docc:\n  hosting_base_path: ${DOCCBUILD_TEST_BASE}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "my-package", cfg.Docc.HostingBasePath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestInit_RefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doccbuild.yaml")

	require.NoError(t, Init(path, false))
	assert.Error(t, Init(path, false))
	assert.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Cache.Enabled)
}

func TestDaemonConfig_DurationParsing(t *testing.T) {
	d := DaemonConfig{Debounce: "500ms", RebuildInterval: "1h"}
	assert.Equal(t, 500*time.Millisecond, d.DebounceDuration())
	assert.Equal(t, time.Hour, d.RebuildIntervalDuration())

	bad := DaemonConfig{Debounce: "nope", RebuildInterval: "-5s"}
	assert.Equal(t, 2*time.Second, bad.DebounceDuration())
	assert.Equal(t, 30*time.Minute, bad.RebuildIntervalDuration())
}

func TestNormalizeLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, NormalizeLogLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel("warning"))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel("bogus"))
	assert.Equal(t, LogLevelInfo, NormalizeLogLevel(""))
}

func TestNormalizeLogFormat(t *testing.T) {
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
	assert.Equal(t, LogFormatText, NormalizeLogFormat("anything"))
}

func TestDefault_IsComplete(t *testing.T) {
	cfg := Default()
	assert.NotEmpty(t, cfg.Snippets.Roots)
	assert.NotEmpty(t, cfg.Docc.Output)
	assert.True(t, cfg.Cache.Enabled)
}
