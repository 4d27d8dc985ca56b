package content

import (
	"regexp"
	"strconv"
)

// Document is the text flowing through the stages. Fragments a stage has
// finished rendering are stashed behind placeholders so later stages cannot
// re-match them.
type Document struct {
	Text  string
	stash []string
}

const (
	inlineOpen  = "\uE000"
	inlineClose = "\uE001"
)

var placeholderPattern = regexp.MustCompile(`<!--buddy-stash-(\d+)-->|` + inlineOpen + `(\d+)` + inlineClose)

// StashBlock stores block-level markup. The placeholder starts with '<' so
// paragraph wrapping leaves a line holding only a block alone.
func (d *Document) StashBlock(markup string) string {
	d.stash = append(d.stash, markup)
	return "<!--buddy-stash-" + strconv.Itoa(len(d.stash)-1) + "-->"
}

// StashInline stores inline markup. The placeholder reads as text, so the
// surrounding line is still wrapped as a paragraph.
func (d *Document) StashInline(markup string) string {
	d.stash = append(d.stash, markup)
	return inlineOpen + strconv.Itoa(len(d.stash)-1) + inlineClose
}

// Restore replaces every placeholder in s with its stashed markup, including
// placeholders nested inside stashed markup (inline code in link text).
func (d *Document) Restore(s string) string {
	if len(d.stash) == 0 {
		return s
	}
	return d.restore(s, len(d.stash))
}

// restore only expands indices below limit. Nested placeholders always
// point at earlier entries, so this terminates even if the input text
// itself contains placeholder runes.
func (d *Document) restore(s string, limit int) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := placeholderPattern.FindStringSubmatch(m)
		idx := sub[1]
		if idx == "" {
			idx = sub[2]
		}
		i, err := strconv.Atoi(idx)
		if err != nil || i >= limit {
			return m
		}
		return d.restore(d.stash[i], i)
	})
}
