package content

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/samsaffron/buddy-render/internal/highlight"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

var codeFencePattern = regexp.MustCompile("(?s)```([\\w+#.-]*)[ \t]*\n?(.*?)```")

// codeNamespace seeds code block ids so that equal input yields equal ids.
var codeNamespace = uuid.MustParse("6f1c3b0e-5d55-4c2f-9a57-0b1f7a2e8c41")

// CodeStage renders fenced code blocks.
type CodeStage struct {
	Highlighter Highlighter
	log         *logrus.Entry
}

// Name implements Stage.
func (CodeStage) Name() string { return "code" }

// Apply implements Stage.
func (s CodeStage) Apply(doc *Document) {
	ordinal := 0
	doc.Text = codeFencePattern.ReplaceAllStringFunc(doc.Text, func(m string) string {
		sub := codeFencePattern.FindStringSubmatch(m)
		ordinal++
		return doc.StashBlock(s.Render(sub[1], sub[2], ordinal))
	})
}

// CodeID returns the element id for the ordinal-th code block of a message.
func CodeID(lang, code string, ordinal int) string {
	key := lang + "\x00" + code + "\x00" + strconv.Itoa(ordinal)
	return "code-" + uuid.NewSHA1(codeNamespace, []byte(key)).String()
}

// TrimCode strips the blank lines around a fence body and trailing spaces.
func TrimCode(code string) string {
	return strings.TrimRight(strings.TrimLeft(code, "\r\n"), " \t\r\n")
}

// Render produces the code block container for one fence.
func (s CodeStage) Render(lang, code string, ordinal int) string {
	code = TrimCode(code)
	if lang == "" {
		lang = highlight.DetectLanguage(code)
	}
	id := CodeID(lang, code, ordinal)
	body := s.highlight(code, lang)

	label := html.EscapeString(lang)
	return fmt.Sprintf(
		`<div class="code-block-container"><div class="code-block-header"><span class="code-language">%s</span></div>`+
			`<pre class="code-block"><code id="%s" class="hljs language-%s">%s</code></pre>`+
			`<button class="code-copy-btn" data-code-id="%s" title="Copy code">Copy</button></div>`,
		label, id, label, body, id)
}

func (s CodeStage) highlight(code, lang string) string {
	if s.Highlighter == nil || lang == highlight.PlainText || !s.Highlighter.Loaded() {
		return html.EscapeString(code)
	}
	out, err := s.Highlighter.Highlight(code, lang)
	if err != nil {
		if s.log != nil {
			s.log.WithError(err).WithField("lang", lang).Warn("highlight failed, using plain code")
		}
		return html.EscapeString(code)
	}
	return out
}
