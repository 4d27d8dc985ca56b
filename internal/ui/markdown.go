package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// rendererCache caches one glamour renderer per wrap width. SetTheme
// empties it.
var rendererCache sync.Map // int -> *glamour.TermRenderer

// markdownRenderer returns the renderer for width, building it on first
// use. A width below MinWidth falls back to DefaultWidth.
func markdownRenderer(width int) (*glamour.TermRenderer, error) {
	if width < MinWidth {
		width = DefaultWidth
	}
	if r, ok := rendererCache.Load(width); ok {
		return r.(*glamour.TermRenderer), nil
	}

	none := uint(0)
	style := GlamourStyle()
	style.Document.Margin = &none
	style.Document.BlockPrefix = ""
	style.Document.BlockSuffix = ""
	style.CodeBlock.Margin = &none

	r, err := glamour.NewTermRenderer(glamour.WithStyles(style), glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	stored, _ := rendererCache.LoadOrStore(width, r)
	return stored.(*glamour.TermRenderer), nil
}

// RenderMarkdownWithError renders raw message text with ANSI styling.
// Display math fences ("```math") are shown as plain TeX blocks.
func RenderMarkdownWithError(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	r, err := markdownRenderer(width)
	if err != nil {
		return "", err
	}
	out, err := r.Render(strings.ReplaceAll(text, "```math", "```tex"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
