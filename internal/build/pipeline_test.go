package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doccbuild/internal/cache"
	"git.home.luguber.info/inful/doccbuild/internal/config"
)

const sampleSource = `// A tiny example.
// It shows the parser in action.

// snippet.main
print("hello")
// snippet.end
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	root := filepath.Join(dir, "Snippets")
	require.NoError(t, os.MkdirAll(root, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Hello.swift"), []byte(sampleSource), 0o644))

	cfg := config.Default()
	cfg.Snippets.Roots = []string{root}
	cfg.Render.Output = filepath.Join(dir, "rendered")
	cfg.Targets.DumpPath = filepath.Join(dir, "targets.json")
	return cfg
}

func TestPipeline_Extract(t *testing.T) {
	cfg := testConfig(t)
	p := NewPipeline(cfg, Options{})

	result, err := p.Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Extracted)
	assert.Zero(t, result.Cached)
	assert.Zero(t, result.Failed)
	require.Len(t, result.Pages, 1)

	content, err := os.ReadFile(result.Pages[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Hello")
	assert.Contains(t, string(content), `print("hello")`)
}

func TestPipeline_ExtractUsesCacheOnSecondPass(t *testing.T) {
	cfg := testConfig(t)
	store, err := cache.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	p := NewPipeline(cfg, Options{Store: store})

	first, err := p.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Extracted)

	second, err := p.Extract(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Extracted)
	assert.Equal(t, 1, second.Cached)

	// The cached page still lands on disk.
	require.Len(t, second.Pages, 1)
	_, err = os.Stat(second.Pages[0])
	assert.NoError(t, err)
}

func TestPipeline_ExtractReextractsChangedSource(t *testing.T) {
	cfg := testConfig(t)
	store, err := cache.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	p := NewPipeline(cfg, Options{Store: store})
	_, err = p.Extract(context.Background())
	require.NoError(t, err)

	source := filepath.Join(cfg.Snippets.Roots[0], "Hello.swift")
	require.NoError(t, os.WriteFile(source, []byte("print(\"changed\")\n"), 0o644))

	second, err := p.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Extracted)
	assert.Zero(t, second.Cached)
}

func TestPipeline_ExtractCanceledContext(t *testing.T) {
	cfg := testConfig(t)
	p := NewPipeline(cfg, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Extract(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_ResolveTargetFromDump(t *testing.T) {
	cfg := testConfig(t)
	dump := `{"targets":[
		{"name":"Core","kind":"library"},
		{"name":"tool","kind":"executable"}
	]}`
	require.NoError(t, os.WriteFile(cfg.Targets.DumpPath, []byte(dump), 0o644))

	p := NewPipeline(cfg, Options{})

	tgt, err := p.resolveTarget("tool")
	require.NoError(t, err)
	assert.Equal(t, "tool", tgt.Name)

	tgt, err = p.resolveTarget("")
	require.NoError(t, err)
	assert.Equal(t, "Core", tgt.Name)

	_, err = p.resolveTarget("Missing")
	assert.Error(t, err)
}

func TestPipeline_ResolveTargetWithoutDump(t *testing.T) {
	cfg := testConfig(t)
	cfg.Docc.Catalog = "docs/MyLib.docc"
	p := NewPipeline(cfg, Options{})

	tgt, err := p.resolveTarget("")
	require.NoError(t, err)
	assert.Equal(t, "MyLib", tgt.Name)
	assert.Equal(t, "library", tgt.Kind)
}
