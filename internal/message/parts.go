package message

import (
	"regexp"
	"strings"

	"github.com/samsaffron/buddy-render/internal/content"
	"github.com/samsaffron/buddy-render/internal/highlight"
)

// PartKind distinguishes prose from code.
type PartKind int

const (
	PartText PartKind = iota
	PartCode
)

func (k PartKind) String() string {
	if k == PartCode {
		return "code"
	}
	return "text"
}

// Part is one independently animated piece of a mixed message.
type Part struct {
	Kind PartKind
	// Text is raw Markdown for text parts and the fence body for code parts.
	Text string
	// Lang is the fence language, or the detected one for untagged fences.
	Lang string
	// Ordinal numbers code parts from 1 in message order.
	Ordinal int
}

var fencePattern = regexp.MustCompile("(?s)```([\\w+#.-]*)[ \t]*\n?(.*?)```")

var mathFenceLangs = map[string]bool{"math": true, "latex": true, "tex": true}

// SplitParts cuts text at code fences. Math fences stay inside the
// surrounding text part. Blank text between fences is dropped.
func SplitParts(text string) []Part {
	var parts []Part
	addText := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, Part{Kind: PartText, Text: s})
		}
	}

	last := 0
	ordinal := 0
	for _, loc := range fencePattern.FindAllStringSubmatchIndex(text, -1) {
		lang := text[loc[2]:loc[3]]
		if mathFenceLangs[lang] {
			continue
		}
		addText(text[last:loc[0]])
		ordinal++
		code := content.TrimCode(text[loc[4]:loc[5]])
		if lang == "" {
			lang = highlight.DetectLanguage(code)
		}
		parts = append(parts, Part{
			Kind:    PartCode,
			Text:    code,
			Lang:    lang,
			Ordinal: ordinal,
		})
		last = loc[1]
	}
	addText(text[last:])
	return parts
}

// IsMixed reports whether parts hold both prose and code.
func IsMixed(parts []Part) bool {
	var text, code bool
	for _, p := range parts {
		switch p.Kind {
		case PartText:
			text = true
		case PartCode:
			code = true
		}
	}
	return text && code
}
