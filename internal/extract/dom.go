package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// textRuns returns the trimmed, non-blank text nodes under sel (including the
// selected nodes themselves) whose parent element is one of tags, in document
// order. It is the equivalent of matching "tag::text" for every tag at once.
func textRuns(sel *goquery.Selection, tags ...string) []string {
	want := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		want[tag] = struct{}{}
	}
	var runs []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && n.Parent != nil && n.Parent.Type == html.ElementNode {
			if _, ok := want[n.Parent.Data]; ok {
				if text := strings.TrimSpace(n.Data); text != "" {
					runs = append(runs, text)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return runs
}

// firstRun returns the first text run matched by textRuns, or "".
func firstRun(sel *goquery.Selection, tags ...string) string {
	if runs := textRuns(sel, tags...); len(runs) > 0 {
		return runs[0]
	}
	return ""
}

// ownText returns the first non-blank text node that is a direct child of the
// first selected element.
func ownText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	for c := sel.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		if text := strings.TrimSpace(c.Data); text != "" {
			return text
		}
	}
	return ""
}

// attr returns the trimmed attribute value and whether it was present.
func attr(sel *goquery.Selection, name string) (string, bool) {
	v, ok := sel.Attr(name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}
