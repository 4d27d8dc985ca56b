// Package blocks splits rendered message HTML into an ordered sequence of
// blocks for progressive reveal. Text nodes become animatable blocks; code,
// tables, headings and math become atomic blocks that must appear whole.
package blocks

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Block is one unit of progressive reveal.
//
// Concatenating HTML() of every block in order reproduces the serialized
// document. Prefix holds structural markup (tags, whitespace, comments) that
// precedes the block; Suffix is only set on the last block and holds the
// trailing markup.
type Block struct {
	Prefix  string
	Content string // text for animatable blocks, outer HTML for complex blocks
	Markup  string // Content as it appears once fully revealed
	Suffix  string
	Complex bool

	// Open lists the elements still open after Prefix, outermost first.
	Open []string

	// raw marks a fallback block whose Content is unparsed markup.
	raw bool
}

// HTML returns the fully revealed representation of the block.
func (b Block) HTML() string {
	return b.Prefix + b.Markup + b.Suffix
}

// Raw reports whether the block is the unparsed fallback over the whole
// input.
func (b Block) Raw() bool {
	return b.raw
}

// Len returns the number of revealable characters in the block.
func (b Block) Len() int {
	return utf8.RuneCountInString(b.Content)
}

// Partial returns the block with only the first n characters of its content
// revealed. Complex blocks are all-or-nothing. The result never ends inside a
// tag; callers append CloseTags(b.Open) to obtain well-formed markup.
func (b Block) Partial(n int) string {
	if b.Complex {
		if n <= 0 {
			return b.Prefix
		}
		return b.Prefix + b.Markup
	}
	if n >= b.Len() {
		return b.Prefix + b.Markup
	}
	if n <= 0 {
		return b.Prefix
	}
	if b.raw {
		return b.Prefix + cutOutsideTag(b.Content, n)
	}
	return b.Prefix + html.EscapeString(truncateRunes(b.Content, n))
}

// CloseTags returns end tags for the open element stack, innermost first.
func CloseTags(open []string) string {
	if len(open) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := len(open) - 1; i >= 0; i-- {
		sb.WriteString("</")
		sb.WriteString(open[i])
		sb.WriteString(">")
	}
	return sb.String()
}

// Reconstruct concatenates the fully revealed HTML of every block.
func Reconstruct(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.HTML())
	}
	return sb.String()
}

var markupPattern = regexp.MustCompile(`<[^>]*>`)

// HasMarkup reports whether s contains anything that looks like a tag.
func HasMarkup(s string) bool {
	return markupPattern.MatchString(s)
}

var complexPattern = regexp.MustCompile(strings.Join([]string{
	`class="code-block-container"`,
	`class="math-block-container"`,
	`class="math-inline"`,
	`class="enhanced-table"`,
	`class="enhanced-blockquote"`,
	`class="[^"]*hljs[^"]*"`,
	`class="[^"]*katex[^"]*"`,
	`(?i:<(pre|code|table|h[1-6])[^>]*>)`,
}, "|"))

// IsComplexMarkup applies the complex-construct patterns to raw markup. It is
// the classification used when the input cannot be split into blocks.
func IsComplexMarkup(s string) bool {
	return complexPattern.MatchString(s)
}

var complexTags = map[atom.Atom]bool{
	atom.Pre:   true,
	atom.Code:  true,
	atom.Table: true,
	atom.H1:    true,
	atom.H2:    true,
	atom.H3:    true,
	atom.H4:    true,
	atom.H5:    true,
	atom.H6:    true,
}

var complexClasses = map[string]bool{
	"code-block-container": true,
	"math-block-container": true,
	"math-inline":          true,
	"enhanced-table":       true,
	"enhanced-blockquote":  true,
}

// IsComplexNode reports whether an element must be revealed atomically.
func IsComplexNode(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if complexTags[n.DataAtom] {
		return true
	}
	for _, a := range n.Attr {
		if a.Namespace != "" || a.Key != "class" {
			continue
		}
		for _, cls := range strings.Fields(a.Val) {
			if complexClasses[cls] || strings.Contains(cls, "hljs") || strings.Contains(cls, "katex") {
				return true
			}
		}
	}
	return false
}

// rawTextTags hold content that is not markup-escaped text and therefore is
// never animated.
var rawTextTags = map[atom.Atom]bool{
	atom.Script:    true,
	atom.Style:     true,
	atom.Xmp:       true,
	atom.Iframe:    true,
	atom.Noembed:   true,
	atom.Noframes:  true,
	atom.Noscript:  true,
	atom.Plaintext: true,
}

var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "keygen": true, "link": true,
	"meta": true, "param": true, "source": true, "track": true, "wbr": true,
}

// Parse splits content into blocks. It never fails: input that yields no
// blocks becomes a single block covering the whole input.
func Parse(content string) []Block {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(content), ctx)
	if err != nil {
		return []Block{fallback(content)}
	}

	p := &parser{}
	for _, n := range nodes {
		p.walk(n)
	}
	if len(p.blocks) == 0 {
		return []Block{fallback(content)}
	}
	p.blocks[len(p.blocks)-1].Suffix = p.pending.String()
	return p.blocks
}

func fallback(content string) Block {
	return Block{
		Content: content,
		Markup:  content,
		Complex: IsComplexMarkup(content),
		raw:     true,
	}
}

type parser struct {
	blocks  []Block
	pending strings.Builder
	stack   []string
}

func (p *parser) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			p.pending.WriteString(html.EscapeString(n.Data))
			return
		}
		p.emit(n.Data, html.EscapeString(n.Data), false)

	case html.ElementNode:
		if IsComplexNode(n) {
			var sb strings.Builder
			if err := html.Render(&sb, n); err != nil {
				// Render only fails on malformed trees; treat the element as text.
				p.emit(nodeText(n), html.EscapeString(nodeText(n)), false)
				return
			}
			p.emit(sb.String(), sb.String(), true)
			return
		}
		if rawTextTags[n.DataAtom] {
			_ = html.Render(&p.pending, n)
			return
		}

		writeStartTag(&p.pending, n)
		if voidTags[n.Data] {
			return
		}
		p.stack = append(p.stack, n.Data)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			p.walk(c)
		}
		p.stack = p.stack[:len(p.stack)-1]
		p.pending.WriteString("</")
		p.pending.WriteString(n.Data)
		p.pending.WriteString(">")

	case html.CommentNode, html.DoctypeNode:
		_ = html.Render(&p.pending, n)
	}
}

func (p *parser) emit(content, markup string, complex bool) {
	p.blocks = append(p.blocks, Block{
		Prefix:  p.pending.String(),
		Content: content,
		Markup:  markup,
		Complex: complex,
		Open:    slices.Clone(p.stack),
	})
	p.pending.Reset()
}

func writeStartTag(sb *strings.Builder, n *html.Node) {
	sb.WriteString("<")
	sb.WriteString(n.Data)
	for _, a := range n.Attr {
		sb.WriteString(" ")
		if a.Namespace != "" {
			sb.WriteString(a.Namespace)
			sb.WriteString(":")
		}
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(a.Val))
		sb.WriteString(`"`)
	}
	if voidTags[n.Data] {
		sb.WriteString("/>")
		return
	}
	sb.WriteString(">")
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// cutOutsideTag truncates raw markup to n characters, extending the cut to
// the end of any tag it would otherwise split.
func cutOutsideTag(s string, n int) string {
	cut := truncateRunes(s, n)
	open := strings.LastIndexByte(cut, '<')
	if open == -1 || strings.LastIndexByte(cut, '>') > open {
		return cut
	}
	end := strings.IndexByte(s[len(cut):], '>')
	if end == -1 {
		return s
	}
	return s[:len(cut)+end+1]
}
