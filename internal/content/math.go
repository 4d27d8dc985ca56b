package content

import (
	"errors"
	"regexp"
	"strings"

	"github.com/samsaffron/buddy-render/internal/mathrender"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

var (
	mathFencePattern   = regexp.MustCompile("(?s)```(?:math|latex|tex)[ \t]*\n?(.*?)```")
	envBeginPattern    = regexp.MustCompile(`\\begin\{(equation\*?|align\*?|gather\*?|aligned|split|matrix|pmatrix|bmatrix|Bmatrix|vmatrix|Vmatrix|cases)\}`)
	displayMathPattern = regexp.MustCompile(`\$\$([^$]+)\$\$`)
	// Opening $ not followed by space, closing $ not preceded by one, so
	// "$5 and $10" stays text.
	inlineMathPattern = regexp.MustCompile(`\$([^\s$](?:[^$\n]*[^\s$])?)\$`)
	// Regions the math stage must not touch.
	codeRegionPattern = regexp.MustCompile("(?s)```.*?```|`[^`\n]+`")
)

// MathStage renders TeX delimiters with the math engine.
type MathStage struct {
	Renderer mathrender.Renderer
	log      *logrus.Entry
}

// Name implements Stage.
func (MathStage) Name() string { return "math" }

// Apply implements Stage.
func (s MathStage) Apply(doc *Document) {
	doc.Text = mathFencePattern.ReplaceAllStringFunc(doc.Text, func(m string) string {
		src := mathFencePattern.FindStringSubmatch(m)[1]
		return doc.StashBlock(s.render(strings.TrimSpace(src), true))
	})
	doc.Text = outsideCode(doc.Text, func(text string) string {
		text = s.replaceEnvironments(doc, text)
		text = displayMathPattern.ReplaceAllStringFunc(text, func(m string) string {
			src := displayMathPattern.FindStringSubmatch(m)[1]
			return doc.StashBlock(s.render(strings.TrimSpace(src), true))
		})
		return replaceInlineMath(text, func(src string) string {
			return doc.StashInline(s.render(src, false))
		})
	})
}

func (s MathStage) replaceEnvironments(doc *Document, text string) string {
	var sb strings.Builder
	for {
		loc := envBeginPattern.FindStringSubmatchIndex(text)
		if loc == nil {
			sb.WriteString(text)
			return sb.String()
		}
		name := text[loc[2]:loc[3]]
		end := `\end{` + name + `}`
		rel := strings.Index(text[loc[1]:], end)
		if rel == -1 {
			sb.WriteString(text)
			return sb.String()
		}
		stop := loc[1] + rel + len(end)
		sb.WriteString(text[:loc[0]])
		sb.WriteString(doc.StashBlock(s.render(text[loc[0]:stop], true)))
		text = text[stop:]
	}
}

// replaceInlineMath applies fn to $...$ spans whose closing delimiter is not
// followed by a digit.
func replaceInlineMath(text string, fn func(src string) string) string {
	var sb strings.Builder
	for {
		loc := inlineMathPattern.FindStringSubmatchIndex(text)
		if loc == nil {
			sb.WriteString(text)
			return sb.String()
		}
		if loc[1] < len(text) && text[loc[1]] >= '0' && text[loc[1]] <= '9' {
			// Likely currency; skip past the opening $.
			sb.WriteString(text[:loc[0]+1])
			text = text[loc[0]+1:]
			continue
		}
		sb.WriteString(text[:loc[0]])
		sb.WriteString(fn(text[loc[2]:loc[3]]))
		text = text[loc[1]:]
	}
}

// outsideCode applies fn to the parts of text outside fenced and inline code.
func outsideCode(text string, fn func(string) string) string {
	locs := codeRegionPattern.FindAllStringIndex(text, -1)
	if locs == nil {
		return fn(text)
	}
	var sb strings.Builder
	last := 0
	for _, loc := range locs {
		sb.WriteString(fn(text[last:loc[0]]))
		sb.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	sb.WriteString(fn(text[last:]))
	return sb.String()
}

func (s MathStage) render(src string, display bool) string {
	if src == "" {
		return ""
	}
	var out string
	err := mathrender.ErrNotReady
	if s.Renderer != nil {
		out, err = s.Renderer.RenderToString(src, display)
	}
	switch {
	case errors.Is(err, mathrender.ErrNotReady):
		return `<span class="math-plain" title="Math engine not loaded">` + html.EscapeString(src) + `</span>`
	case err != nil:
		if s.log != nil {
			s.log.WithError(err).WithField("expr", src).Warn("math render failed")
		}
		return `<span class="math-error" title="` + html.EscapeString(err.Error()) + `">` + html.EscapeString(src) + `</span>`
	}
	if display {
		return `<div class="math-block-container" data-math-processed="true">` + out + `</div>`
	}
	return `<span class="math-inline" data-math-processed="true">` + out + `</span>`
}
