package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestRenderMarkdownWithError(t *testing.T) {
	got, err := RenderMarkdownWithError("  \n", 80)
	if err != nil || got != "" {
		t.Errorf("blank input = %q, %v", got, err)
	}

	got, err = RenderMarkdownWithError("# Title\n\nSome **bold** text.\n\n```math\nx^2\n```", 80)
	if err != nil {
		t.Fatal(err)
	}
	// Highlighted tokens are colored one by one.
	got = ansi.Strip(got)
	for _, want := range []string{"Title", "bold", "text.", "x^2"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q: %q", want, got)
		}
	}
	if strings.Contains(got, "**") {
		t.Errorf("markdown syntax left in output: %q", got)
	}
}

func TestMarkdownRenderer_Cache(t *testing.T) {
	a, err := markdownRenderer(60)
	if err != nil {
		t.Fatal(err)
	}
	b, err := markdownRenderer(60)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("same width should reuse the renderer")
	}

	narrow, err := markdownRenderer(0)
	if err != nil {
		t.Fatal(err)
	}
	def, _ := markdownRenderer(DefaultWidth)
	if narrow != def {
		t.Error("width 0 should use the default width renderer")
	}
}
