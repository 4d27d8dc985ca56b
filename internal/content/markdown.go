package content

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	headerPatterns = [6]*regexp.Regexp{
		regexp.MustCompile(`(?m)^# (.+)$`),
		regexp.MustCompile(`(?m)^## (.+)$`),
		regexp.MustCompile(`(?m)^### (.+)$`),
		regexp.MustCompile(`(?m)^#### (.+)$`),
		regexp.MustCompile(`(?m)^##### (.+)$`),
		regexp.MustCompile(`(?m)^###### (.+)$`),
	}
	headerReplacements = [6]string{
		`<h1 class="enhanced-h1">$1</h1>`,
		`<h2 class="enhanced-h2">$1</h2>`,
		`<h3 class="enhanced-h3">$1</h3>`,
		`<h4 class="enhanced-h4">$1</h4>`,
		`<h5 class="enhanced-h5">$1</h5>`,
		`<h6 class="enhanced-h6">$1</h6>`,
	}

	tableRowPattern       = regexp.MustCompile(`^\|(.+)\|$`)
	tableSeparatorPattern = regexp.MustCompile(`^\|[\s\-|:]+\|$`)
	taskPattern           = regexp.MustCompile(`(?m)^[ \t]*[-*+] \[([ xX])\] (.+)$`)
	unorderedItemPattern  = regexp.MustCompile(`^[-*+] (.+)$`)
	orderedItemPattern    = regexp.MustCompile(`^\d+\. (.+)$`)
	blockquotePattern     = regexp.MustCompile(`(?m)^> ?(.+)$`)
	inlineCodePattern     = regexp.MustCompile("`([^`\n]+)`")
	linkPattern           = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	boldPattern           = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern         = regexp.MustCompile(`\*([^*\n]+)\*`)
	strikePattern         = regexp.MustCompile(`~~([^~]+)~~`)
	hrPattern             = regexp.MustCompile(`(?m)^---$`)
)

// MarkdownStage is the fixed-order regex Markdown enhancer. Inline code is
// stashed first so emphasis and link rules never reach inside it.
type MarkdownStage struct{}

// Name implements Stage.
func (MarkdownStage) Name() string { return "markdown" }

// Apply implements Stage.
func (MarkdownStage) Apply(doc *Document) {
	t := inlineCodePattern.ReplaceAllStringFunc(doc.Text, func(m string) string {
		code := inlineCodePattern.FindStringSubmatch(m)[1]
		return doc.StashInline(`<code class="enhanced-inline-code">` + html.EscapeString(code) + `</code>`)
	})

	for i, p := range headerPatterns {
		t = p.ReplaceAllString(t, headerReplacements[i])
	}
	t = renderTables(t)
	t = taskPattern.ReplaceAllStringFunc(t, renderTask)
	t = renderLists(t)
	t = blockquotePattern.ReplaceAllString(t, `<blockquote class="enhanced-blockquote">$1</blockquote>`)
	// Anchors are stashed so emphasis rules never see the href.
	t = linkPattern.ReplaceAllStringFunc(t, func(m string) string {
		sub := linkPattern.FindStringSubmatch(m)
		return doc.StashInline(`<a href="` + html.EscapeString(sub[2]) + `" class="enhanced-link" target="_blank" rel="noopener noreferrer">` + emphasize(sub[1]) + `</a>`)
	})
	t = emphasize(t)
	t = hrPattern.ReplaceAllString(t, `<hr class="enhanced-hr">`)
	doc.Text = t
}

func emphasize(t string) string {
	t = boldPattern.ReplaceAllString(t, `<strong class="enhanced-bold">$1</strong>`)
	t = italicPattern.ReplaceAllString(t, `<em class="enhanced-italic">$1</em>`)
	return strikePattern.ReplaceAllString(t, `<del class="enhanced-strikethrough">$1</del>`)
}

func renderTask(m string) string {
	sub := taskPattern.FindStringSubmatch(m)
	if sub[1] == " " {
		return `<div class="enhanced-task-item"><input type="checkbox" disabled> <span class="task-text">` + sub[2] + `</span></div>`
	}
	return `<div class="enhanced-task-item checked"><input type="checkbox" checked disabled> <span class="task-text">` + sub[2] + `</span></div>`
}

// renderTables turns runs of |a|b| lines into one table. The first row is
// the header; separator rows are dropped.
func renderTables(t string) string {
	lines := strings.Split(t, "\n")
	out := make([]string, 0, len(lines))
	var rows []string
	header := false

	flush := func() {
		if len(rows) == 0 {
			return
		}
		var sb strings.Builder
		sb.WriteString(`<div class="enhanced-table-container"><table class="enhanced-table">`)
		sb.WriteString(rows[0])
		if len(rows) > 1 {
			sb.WriteString("<tbody>")
			for _, r := range rows[1:] {
				sb.WriteString(r)
			}
			sb.WriteString("</tbody>")
		}
		sb.WriteString("</table></div>")
		out = append(out, sb.String())
		rows = nil
		header = false
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !tableRowPattern.MatchString(trimmed) {
			flush()
			out = append(out, line)
			continue
		}
		if tableSeparatorPattern.MatchString(trimmed) {
			continue
		}
		cells := strings.Split(trimmed[1:len(trimmed)-1], "|")
		var sb strings.Builder
		if !header {
			sb.WriteString("<thead><tr>")
			for _, c := range cells {
				sb.WriteString(`<th class="enhanced-th">` + strings.TrimSpace(c) + `</th>`)
			}
			sb.WriteString("</tr></thead>")
			header = true
		} else {
			sb.WriteString(`<tr class="enhanced-tr">`)
			for _, c := range cells {
				sb.WriteString(`<td class="enhanced-td">` + strings.TrimSpace(c) + `</td>`)
			}
			sb.WriteString("</tr>")
		}
		rows = append(rows, sb.String())
	}
	flush()
	return strings.Join(out, "\n")
}

// renderLists groups consecutive list-item lines. A change between ordered
// and unordered items starts a new list.
func renderLists(t string) string {
	lines := strings.Split(t, "\n")
	out := make([]string, 0, len(lines))
	var items []string
	kind := ""

	flush := func() {
		if len(items) == 0 {
			return
		}
		out = append(out, `<`+kind+` class="enhanced-`+kind+`">`+strings.Join(items, "")+`</`+kind+`>`)
		items = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		var text, k string
		if m := unorderedItemPattern.FindStringSubmatch(trimmed); m != nil {
			text, k = m[1], "ul"
		} else if m := orderedItemPattern.FindStringSubmatch(trimmed); m != nil {
			text, k = m[1], "ol"
		} else {
			flush()
			out = append(out, line)
			continue
		}
		if k != kind {
			flush()
			kind = k
		}
		items = append(items, `<li class="enhanced-li">`+text+`</li>`)
	}
	flush()
	return strings.Join(out, "\n")
}
