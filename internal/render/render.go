// Package render turns extracted snippets into Markdown pages that the docc
// catalog picks up alongside hand-written articles.
package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/doccbuild/internal/docc"
	"git.home.luguber.info/inful/doccbuild/internal/logfields"
	"git.home.luguber.info/inful/doccbuild/internal/snippet"
)

// Page is one rendered snippet page, ready to be written under the render
// output directory.
type Page struct {
	RelativePath string
	Content      []byte
}

// Renderer produces snippet pages.
type Renderer struct {
	outputDir string
}

// New creates a renderer writing beneath outputDir.
func New(outputDir string) *Renderer {
	return &Renderer{outputDir: outputDir}
}

// frontmatter is the YAML header stamped onto every generated page.
type frontmatter struct {
	Title       string `yaml:"title"`
	Snippet     string `yaml:"snippet"`
	UID         string `yaml:"uid"`
	Fingerprint string `yaml:"fingerprint"`
}

// RenderFile renders one extracted snippet into a Markdown page. Explanation
// links that cannot resolve inside an archive are logged, not fatal.
func (r *Renderer) RenderFile(file snippet.File, s snippet.Snippet) (Page, error) {
	warnUnresolvableLinks(file.Name, s.Explanation)

	body := renderBody(file, s)

	fm := frontmatter{
		Title:   docc.DisplayName(file.Name),
		Snippet: file.Name,
		UID:     uuid.NewString(),
	}
	fmYAML, err := yaml.Marshal(&fm)
	if err != nil {
		return Page{}, fmt.Errorf("marshal frontmatter for %s: %w", file.Name, err)
	}
	fm.Fingerprint = mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(fmYAML), "\n"), body)

	fmYAML, err = yaml.Marshal(&fm)
	if err != nil {
		return Page{}, fmt.Errorf("marshal frontmatter for %s: %w", file.Name, err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fmYAML)
	buf.WriteString("---\n\n")
	buf.WriteString(body)

	return Page{RelativePath: PageRelativePath(file), Content: buf.Bytes()}, nil
}

// PageRelativePath returns where a source file's page lands relative to the
// render output directory. Cached pages reuse this to land in the same spot.
func PageRelativePath(file snippet.File) string {
	return strings.TrimSuffix(file.RelativePath, filepath.Ext(file.RelativePath)) + ".md"
}

func renderBody(file snippet.File, s snippet.Snippet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", docc.DisplayName(file.Name))

	if len(s.Explanation) > 0 {
		b.WriteString(strings.Join(s.Explanation, "\n"))
		b.WriteString("\n\n")
	}

	lang := fenceLanguage(file.Path)
	if len(s.Presentation) > 0 {
		fmt.Fprintf(&b, "```%s\n%s\n```\n", lang, strings.Join(s.Presentation, "\n"))
	}

	for _, name := range sortedSliceNames(s.Slices) {
		rng := s.Slices[name]
		if rng.End <= rng.Start {
			continue
		}
		fmt.Fprintf(&b, "\n## %s\n\n", docc.DisplayName(name))
		fmt.Fprintf(&b, "```%s\n%s\n```\n", lang, strings.Join(s.Presentation[rng.Start:rng.End], "\n"))
	}

	return b.String()
}

// Write persists a page beneath the renderer's output directory.
func (r *Renderer) Write(page Page) (string, error) {
	path := filepath.Join(r.outputDir, page.RelativePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("create render directory: %w", err)
	}
	if err := os.WriteFile(path, page.Content, 0o644); err != nil {
		return "", fmt.Errorf("write snippet page: %w", err)
	}
	slog.Debug("Wrote snippet page", logfields.Path(path))
	return path, nil
}

func sortedSliceNames(slices map[string]snippet.Range) []string {
	names := make([]string, 0, len(slices))
	for name := range slices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func fenceLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".swift":
		return "swift"
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js":
		return "javascript"
	case ".ts":
		return "typescript"
	default:
		return ""
	}
}

func warnUnresolvableLinks(name string, explanation []string) {
	for _, dest := range ExplanationLinks(explanation) {
		if isResolvableDestination(dest) {
			continue
		}
		slog.Warn("Snippet explanation link may not resolve in the archive",
			logfields.Snippet(name), slog.String("destination", dest))
	}
}

// isResolvableDestination accepts absolute URLs, docc symbol links and
// in-page anchors; bare relative paths have nothing to resolve against once
// the page lands in an archive.
func isResolvableDestination(dest string) bool {
	switch {
	case dest == "":
		return false
	case strings.HasPrefix(dest, "http://"), strings.HasPrefix(dest, "https://"):
		return true
	case strings.HasPrefix(dest, "doc:"):
		return true
	case strings.HasPrefix(dest, "#"):
		return true
	default:
		return false
	}
}
