package content

import (
	"regexp"
	"strings"
)

var blockStartPattern = regexp.MustCompile(`^<(?:!--|/?(?:h[1-6]|ul|ol|li|table|thead|tbody|tr|td|th|div|blockquote|hr|pre|p|br|section|details|summary|dl|dt|dd|figure|math)\b)`)

// ParagraphStage wraps every non-blank line that does not open with a
// block-level element, then turns blank lines into break elements.
type ParagraphStage struct{}

// Name implements Stage.
func (ParagraphStage) Name() string { return "paragraph" }

// Apply implements Stage.
func (ParagraphStage) Apply(doc *Document) {
	lines := strings.Split(doc.Text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || blockStartPattern.MatchString(trimmed) {
			continue
		}
		lines[i] = `<p class="enhanced-paragraph">` + line + `</p>`
	}
	doc.Text = strings.ReplaceAll(strings.Join(lines, "\n"), "\n\n", "\n"+`<br class="enhanced-break">`+"\n")
}
