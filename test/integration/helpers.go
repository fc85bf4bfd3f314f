package integration

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/doccbuild/internal/config"
)

// writeSnippetTree materializes a snippet source tree under a fresh temp
// directory. Keys are relative paths, values are file contents.
func writeSnippetTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// fakeDocc writes a shell script standing in for the docc executable. It
// records its invocation arguments into argsFile and exits successfully.
func fakeDocc(t *testing.T, argsFile string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake docc scripts require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "docc")
	script := "#!/bin/sh\necho \"$@\" > " + argsFile + "\nexit 0\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// pipelineConfig builds a config pointing at the given snippet root with all
// outputs under dir.
func pipelineConfig(t *testing.T, dir, snippetRoot string) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Snippets.Roots = []string{snippetRoot}
	cfg.Render.Output = filepath.Join(dir, "rendered")
	cfg.Docc.Output = filepath.Join(dir, "archive.doccarchive")
	cfg.Docc.SourceService = "none"
	cfg.Targets.DumpPath = filepath.Join(dir, "targets.json")
	cfg.Cache.Path = filepath.Join(dir, "cache.db")
	return cfg
}

// readPage reads a rendered page and splits its frontmatter from the body.
func readPage(t *testing.T, path string) (map[string]any, string) {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	require.True(t, strings.HasPrefix(content, "---\n"), "page must start with frontmatter")

	end := strings.Index(content[4:], "\n---\n")
	require.GreaterOrEqual(t, end, 0, "page must close its frontmatter")

	var fm map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(content[4:end+4]), &fm))

	return fm, content[end+9:]
}
