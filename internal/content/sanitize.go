package content

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// SanitizeStage strips anything the pipeline does not emit itself: scripts,
// event handlers, unknown elements and unsafe URLs.
type SanitizeStage struct {
	policy *bluemonday.Policy
}

// NewSanitizeStage builds the allow-list for pipeline output.
func NewSanitizeStage() *SanitizeStage {
	return &SanitizeStage{policy: Policy()}
}

// Name implements Stage.
func (*SanitizeStage) Name() string { return "sanitize" }

// Apply implements Stage.
func (s *SanitizeStage) Apply(doc *Document) {
	doc.Text = s.policy.Sanitize(doc.Text)
}

var pipelineElements = []string{
	"p", "br", "hr", "div", "span", "pre", "code", "blockquote",
	"h1", "h2", "h3", "h4", "h5", "h6",
	"ul", "ol", "li", "strong", "em", "del", "b", "i", "s",
	"table", "thead", "tbody", "tr", "th", "td",
	"dl", "dt", "dd", "sup", "sub", "kbd",
}

// MathML elements mostly carry no attributes, so each must be allowed bare.
var mathElements = []string{
	"math", "semantics", "annotation", "mrow", "mi", "mn", "mo", "mtext",
	"mspace", "mstyle", "msup", "msub", "msubsup", "mfrac", "msqrt", "mroot",
	"mover", "munder", "munderover", "mtable", "mtr", "mtd",
}

// Policy returns the allow-list used by the sanitize stage.
func Policy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(pipelineElements...)
	p.AllowNoAttrs().OnElements(pipelineElements...)
	p.AllowAttrs("class", "title", "id").Globally()
	p.AllowDataAttributes()

	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(false)
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowAttrs("href", "target", "rel").OnElements("a")

	p.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	p.AllowAttrs("checked", "disabled").OnElements("input")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^button$`)).OnElements("button")
	p.AllowElements("button")

	p.AllowElements(mathElements...)
	p.AllowNoAttrs().OnElements(mathElements...)
	p.AllowAttrs("xmlns", "display").OnElements("math")
	p.AllowAttrs("encoding").OnElements("annotation")
	p.AllowAttrs("stretchy", "fence", "movablelimits").OnElements("mo")
	p.AllowAttrs("accent").OnElements("mover")
	p.AllowAttrs("width").OnElements("mspace")
	p.AllowAttrs("mathvariant").OnElements("mstyle")
	p.AllowAttrs("linethickness").OnElements("mfrac")
	return p
}
