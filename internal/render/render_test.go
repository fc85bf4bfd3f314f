package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/doccbuild/internal/snippet"
)

func sampleFile() snippet.File {
	return snippet.File{
		Path:         "/src/Snippets/Networking/Retry.swift",
		RelativePath: "Networking/Retry.swift",
		Name:         "Networking.Retry",
	}
}

func TestRenderFile_PageShape(t *testing.T) {
	s := snippet.Parse("// Retries a request.\n" +
		"// snippet.setup\n" +
		"let client = Client()\n" +
		"// snippet.setup.end\n" +
		"client.retry()\n")

	page, err := New(t.TempDir()).RenderFile(sampleFile(), s)
	require.NoError(t, err)

	content := string(page.Content)
	assert.Equal(t, "Networking/Retry.md", page.RelativePath)
	assert.True(t, strings.HasPrefix(content, "---\n"))
	assert.Contains(t, content, "title: Networking Retry")
	assert.Contains(t, content, "snippet: Networking.Retry")
	assert.Contains(t, content, "uid: ")
	assert.Contains(t, content, "fingerprint: ")
	assert.Contains(t, content, "Retries a request.")
	assert.Contains(t, content, "```swift\nlet client = Client()\nclient.retry()\n```")
	assert.Contains(t, content, "## Setup")
	assert.Contains(t, content, "```swift\nlet client = Client()\n```")
}

func TestRenderFile_NoExplanationNoSlices(t *testing.T) {
	s := snippet.Parse("let x = 1\n")

	page, err := New(t.TempDir()).RenderFile(sampleFile(), s)
	require.NoError(t, err)

	content := string(page.Content)
	assert.Contains(t, content, "```swift\nlet x = 1\n```")
	assert.NotContains(t, content, "## ")
}

func TestWrite_CreatesNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)

	path, err := r.Write(Page{RelativePath: "Networking/Retry.md", Content: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Networking", "Retry.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
}

func TestExplanationLinks(t *testing.T) {
	links := ExplanationLinks([]string{
		"See [the docs](https://example.com/docs) and ![img](./diagram.png).",
		"Also <https://example.com/auto> and [symbol](doc:MySymbol).",
	})

	assert.Equal(t, []string{
		"https://example.com/docs",
		"./diagram.png",
		"https://example.com/auto",
		"doc:MySymbol",
	}, links)
}

func TestExplanationLinks_Empty(t *testing.T) {
	assert.Nil(t, ExplanationLinks(nil))
}

func TestIsResolvableDestination(t *testing.T) {
	assert.True(t, isResolvableDestination("https://example.com"))
	assert.True(t, isResolvableDestination("doc:Symbol"))
	assert.True(t, isResolvableDestination("#anchor"))
	assert.False(t, isResolvableDestination("./relative.md"))
	assert.False(t, isResolvableDestination(""))
}
