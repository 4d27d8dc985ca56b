package content

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractCode returns the source text of the code element with the given id
// in rendered markup, with highlighting spans removed. Code bodies never end
// in a newline, so one added by the lexer is dropped.
func ExtractCode(markup, id string) (string, bool) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", false
	}
	node := findByID(root, id)
	if node == nil {
		return "", false
	}
	var sb strings.Builder
	collectText(node, &sb)
	return strings.TrimRight(sb.String(), "\n"), true
}

// CodeIDs lists the ids of code elements in document order.
func CodeIDs(markup string) []string {
	return collectAttr(markup, "code", "id")
}

// Links lists link targets in document order.
func Links(markup string) []string {
	return collectAttr(markup, "a", "href")
}

func collectAttr(markup, element, key string) []string {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil
	}
	var vals []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == element {
			if v := attr(n, key); v != "" {
				vals = append(vals, v)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return vals
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
