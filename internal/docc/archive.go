package docc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// CheckArchive inspects a produced docc archive: index.html must parse, and
// when a hosting base path was requested, the document's <base href> must
// reflect it. Failures here are advisory; callers log and continue.
func CheckArchive(archivePath, hostingBasePath string) error {
	indexPath := filepath.Join(archivePath, "index.html")
	f, err := os.Open(indexPath)
	if err != nil {
		return fmt.Errorf("open archive index: %w", err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return fmt.Errorf("parse archive index: %w", err)
	}

	if hostingBasePath == "" {
		return nil
	}

	expected := "/" + strings.Trim(hostingBasePath, "/") + "/"
	href, found := findBaseHref(doc)
	if !found {
		return fmt.Errorf("archive index has no <base> element; expected base href %q", expected)
	}
	if href != expected {
		return fmt.Errorf("archive base href is %q, expected %q", href, expected)
	}
	return nil
}

func findBaseHref(n *html.Node) (string, bool) {
	if n.Type == html.ElementNode && n.Data == "base" {
		for _, attr := range n.Attr {
			if attr.Key == "href" {
				return attr.Val, true
			}
		}
		return "", true
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if href, ok := findBaseHref(child); ok {
			return href, ok
		}
	}
	return "", false
}
