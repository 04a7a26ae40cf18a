// Package znel parses Zoho Notebook content markup into the content tree
// the conversion engine walks. The markup is HTML-shaped with a few custom
// elements (resource descriptors, self-contained checkboxes), so it goes
// through fragment parsing rather than a hand-rolled tokenizer.
package znel

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	zohodomain "github.com/sleroq/zoho-to-obsidian/internal/domain/zoho"
)

// Parse turns raw content markup into a content tree. The returned root is
// never nil: empty input yields an empty root, which is a valid, renderable
// note body.
func Parse(content string) (*zohodomain.ContentNode, error) {
	root := zohodomain.NewRoot()
	if strings.TrimSpace(content) == "" {
		return root, nil
	}

	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(content), ctx)
	if err != nil {
		return root, err
	}

	for _, n := range nodes {
		if converted := convert(n); converted != nil {
			root.Children = append(root.Children, converted)
		}
	}
	return root, nil
}

// convert maps an html.Node to a ContentNode, dropping comments, doctypes,
// and anything else that is neither text nor an element.
func convert(n *html.Node) *zohodomain.ContentNode {
	switch n.Type {
	case html.TextNode:
		return zohodomain.Text(n.Data)
	case html.ElementNode:
		out := &zohodomain.ContentNode{
			Kind: zohodomain.KindElement,
			Tag:  strings.ToLower(n.Data),
		}
		for _, a := range n.Attr {
			out.Attrs = append(out.Attrs, zohodomain.Attr{
				Key:   strings.ToLower(a.Key),
				Value: a.Val,
			})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if converted := convert(c); converted != nil {
				out.Children = append(out.Children, converted)
			}
		}
		return out
	default:
		return nil
	}
}
