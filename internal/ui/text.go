package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLToText converts rendered message HTML into terminal text. Paragraphs
// are wrapped at width (0 disables wrapping); code blocks and tables keep
// their layout. Math is shown as its TeX source.
func HTMLToText(markup string, st *Styles, width int) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		return markup
	}

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	r := &textRenderer{st: st, width: width}
	return strings.Join(r.blocks(root), "\n\n")
}

type textRenderer struct {
	st    *Styles
	width int
}

func (r *textRenderer) blocks(parent *html.Node) []string {
	var out []string
	var para strings.Builder

	flush := func() {
		if s := trimLines(para.String()); s != "" {
			out = append(out, r.wrap(s))
		}
		para.Reset()
	}

	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if !isBlock(c) {
			para.WriteString(r.inline(c))
			continue
		}
		flush()
		if s := r.block(c); s != "" {
			out = append(out, s)
		}
	}
	flush()
	return out
}

func (r *textRenderer) block(n *html.Node) string {
	switch n.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		return r.st.Heading.Render(strings.Repeat("#", level) + " " + trimLines(r.children(n)))
	case atom.P:
		return r.wrap(trimLines(r.children(n)))
	case atom.Ul, atom.Ol:
		return r.list(n, 0)
	case atom.Pre:
		return indent(strings.TrimRight(textContent(n), "\n"), "  ")
	case atom.Blockquote:
		inner := strings.Join(r.blocks(n), "\n\n")
		return indent(inner, r.st.Muted.Render("│ "))
	case atom.Table:
		return r.table(n)
	case atom.Hr:
		w := r.width
		if w <= 0 || w > 40 {
			w = 40
		}
		return r.st.Muted.Render(strings.Repeat("─", w))
	}

	switch {
	case hasClass(n, "code-block-container"):
		return r.codeBlock(n)
	case hasClass(n, "math-block-container"), hasClass(n, "katex-display"):
		return "  " + r.st.Math.Render(texSource(n))
	}
	return strings.Join(r.blocks(n), "\n\n")
}

func (r *textRenderer) codeBlock(n *html.Node) string {
	var sb strings.Builder
	if label := find(n, func(c *html.Node) bool { return hasClass(c, "code-language") }); label != nil {
		sb.WriteString(r.st.CodeLabel.Render(textContent(label)))
		sb.WriteString("\n")
	}
	if code := find(n, func(c *html.Node) bool { return c.DataAtom == atom.Code }); code != nil {
		sb.WriteString(indent(strings.TrimRight(textContent(code), "\n"), "  "))
	}
	return sb.String()
}

func (r *textRenderer) list(n *html.Node, depth int) string {
	ordered := n.DataAtom == atom.Ol
	num := 1
	if s, ok := attr(n, "start"); ok {
		if v, err := strconv.Atoi(s); err == nil {
			num = v
		}
	}
	pad := strings.Repeat("  ", depth)

	var lines []string
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}
		var text strings.Builder
		var nested []string
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.DataAtom == atom.Ul || c.DataAtom == atom.Ol {
				nested = append(nested, r.list(c, depth+1))
				continue
			}
			text.WriteString(r.inline(c))
		}
		marker := "• "
		if ordered {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		lines = append(lines, pad+marker+trimLines(text.String()))
		lines = append(lines, nested...)
	}
	return strings.Join(lines, "\n")
}

func (r *textRenderer) table(n *html.Node) string {
	var rows [][]string
	header := false
	walk(n, func(tr *html.Node) {
		if tr.DataAtom != atom.Tr {
			return
		}
		var row []string
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.DataAtom == atom.Th || c.DataAtom == atom.Td {
				if c.DataAtom == atom.Th && len(rows) == 0 {
					header = true
				}
				row = append(row, collapse(textContent(c)))
			}
		}
		rows = append(rows, row)
	})
	if len(rows) == 0 {
		return ""
	}

	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var lines []string
	for ri, row := range rows {
		cells := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = runewidth.FillRight(cell, widths[i])
		}
		line := strings.TrimRight(strings.Join(cells, " │ "), " ")
		if ri == 0 && header {
			lines = append(lines, r.st.Bold.Render(line))
			seps := make([]string, len(widths))
			for i, w := range widths {
				seps[i] = strings.Repeat("─", w)
			}
			lines = append(lines, r.st.Muted.Render(strings.Join(seps, "─┼─")))
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (r *textRenderer) children(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(r.inline(c))
	}
	return sb.String()
}

func (r *textRenderer) inline(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return collapse(n.Data)
	case html.ElementNode:
	default:
		return ""
	}

	switch n.DataAtom {
	case atom.Br:
		return "\n"
	case atom.Strong, atom.B:
		return r.st.Bold.Render(r.children(n))
	case atom.Em, atom.I:
		return r.st.Emphasis.Render(r.children(n))
	case atom.Code:
		return r.st.Code.Render(textContent(n))
	case atom.A:
		text := r.children(n)
		if href, ok := attr(n, "href"); ok && href != "" && href != collapse(textContent(n)) {
			return r.st.Link.Render(text) + " " + r.st.Muted.Render("("+href+")")
		}
		return r.st.Link.Render(text)
	case atom.Input:
		if t, _ := attr(n, "type"); t == "checkbox" {
			if _, checked := attr(n, "checked"); checked {
				return "[x]"
			}
			return "[ ]"
		}
		return ""
	case atom.Script, atom.Style, atom.Button:
		return ""
	}

	switch {
	case hasClass(n, "katex"):
		return r.st.Math.Render(texSource(n))
	case hasClass(n, "math-plain"):
		return r.st.Math.Render(textContent(n))
	case hasClass(n, "math-error"):
		return r.st.Error.Render(textContent(n))
	}
	if isBlock(n) {
		return strings.Join(r.blocks(n), "\n")
	}
	return r.children(n)
}

func (r *textRenderer) wrap(s string) string {
	if r.width <= 0 {
		return s
	}
	return ansi.Wordwrap(s, r.width, " \t")
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Ul, atom.Ol, atom.Pre, atom.Blockquote, atom.Table, atom.Hr:
		return true
	}
	return hasClass(n, "katex-display")
}

// texSource returns the TeX annotation inside rendered math, or the
// element's text when there is none.
func texSource(n *html.Node) string {
	ann := find(n, func(c *html.Node) bool {
		enc, _ := attr(c, "encoding")
		return c.Data == "annotation" && enc == "application/x-tex"
	})
	if ann != nil {
		return textContent(ann)
	}
	return collapse(textContent(n))
}

func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && match(c) {
			return c
		}
		if f := find(c, match); f != nil {
			return f
		}
	}
	return nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			fn(c)
		}
		walk(c, fn)
	}
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// collapse folds whitespace runs into single spaces.
func collapse(s string) string {
	if s == "" {
		return ""
	}
	var sb strings.Builder
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
			}
			space = true
		default:
			sb.WriteRune(r)
			space = false
		}
	}
	return sb.String()
}

func trimLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
