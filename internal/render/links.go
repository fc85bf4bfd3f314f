package render

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExplanationLinks parses an explanation as Markdown and returns every link
// destination it references, in document order.
func ExplanationLinks(explanation []string) []string {
	if len(explanation) == 0 {
		return nil
	}
	body := []byte(strings.Join(explanation, "\n"))

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var destinations []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.AutoLink:
			destinations = append(destinations, string(node.URL(body)))
		case *gmast.Link:
			destinations = append(destinations, string(node.Destination))
		case *gmast.Image:
			destinations = append(destinations, string(node.Destination))
		}
		return gmast.WalkContinue, nil
	})
	return destinations
}
