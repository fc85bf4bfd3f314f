package snippet

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/doccbuild/internal/logfields"
)

// File represents a discovered snippet source file.
type File struct {
	Path         string // absolute path to the file
	RelativePath string // path relative to its snippet root
	Name         string // dotted identifier: nested directories plus base name
}

// Discovery walks snippet roots collecting source files eligible for
// extraction. Hidden and underscore-prefixed entries are skipped.
type Discovery struct {
	roots      []string
	extensions map[string]struct{}
}

// NewDiscovery creates a discovery instance for the given roots. Extensions
// are matched case-insensitively; an empty list defaults to ".swift".
func NewDiscovery(roots []string, extensions []string) *Discovery {
	return &Discovery{roots: roots, extensions: ExtensionSet(extensions)}
}

// ExtensionSet normalizes configured snippet extensions into a lookup set:
// lowercased, dot-prefixed, defaulting to ".swift" when empty. Every consumer
// of the extension list must filter through the same set so that discovery
// and change watching agree on what counts as a snippet source.
func ExtensionSet(extensions []string) map[string]struct{} {
	if len(extensions) == 0 {
		extensions = []string{".swift"}
	}
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[strings.ToLower(ext)] = struct{}{}
	}
	return set
}

// DiscoverAll returns every snippet file under the configured roots in
// deterministic order. A missing root is logged and skipped rather than
// treated as an error.
func (d *Discovery) DiscoverAll() ([]File, error) {
	var files []File

	for _, root := range d.roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("resolve snippet root %s: %w", root, err)
		}
		if _, err := os.Stat(absRoot); os.IsNotExist(err) {
			slog.Warn("Snippet root not found", logfields.Path(root))
			continue
		}

		rootFiles, err := d.walkRoot(absRoot)
		if err != nil {
			return nil, fmt.Errorf("walk snippet root %s: %w", root, err)
		}
		files = append(files, rootFiles...)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	slog.Debug("Snippet discovery completed", slog.Int("files", len(files)))
	return files, nil
}

func (d *Discovery) walkRoot(root string) ([]File, error) {
	var files []File

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := entry.Name()
		if path != root && (strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_")) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if _, ok := d.extensions[strings.ToLower(filepath.Ext(base))]; !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, File{
			Path:         path,
			RelativePath: rel,
			Name:         snippetName(rel),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// snippetName converts a relative file path into a dotted snippet identifier,
// e.g. "Networking/Retry.swift" becomes "Networking.Retry".
func snippetName(rel string) string {
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	parts := strings.Split(filepath.ToSlash(rel), "/")
	return strings.Join(parts, ".")
}
