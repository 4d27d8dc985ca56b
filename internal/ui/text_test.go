package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/samsaffron/buddy-render/internal/content"
	"github.com/samsaffron/buddy-render/internal/highlight"
	"github.com/samsaffron/buddy-render/internal/mathrender"
)

func plainStyles() *Styles {
	return PlainStyles(&bytes.Buffer{})
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "   ", ""},
		{"heading and paragraph", `<h2>Title</h2><p>Hello <strong>world</strong></p>`, "## Title\n\nHello world"},
		{"whitespace collapsed", "<p>a \n\t b</p>", "a b"},
		{"nested list", `<ul><li>one</li><li>two<ul><li>nested</li></ul></li></ul>`, "• one\n• two\n  • nested"},
		{"ordered start", `<ol start="3"><li>a</li><li>b</li></ol>`, "3. a\n4. b"},
		{"checked task", `<div class="enhanced-task-item checked"><input type="checkbox" checked disabled> <span>done</span></div>`, "[x] done"},
		{"open task", `<div class="enhanced-task-item"><input type="checkbox" disabled> <span>todo</span></div>`, "[ ] todo"},
		{"link with href", `<p><a href="https://go.dev">Go</a></p>`, "Go (https://go.dev)"},
		{"bare link", `<p><a href="https://go.dev">https://go.dev</a></p>`, "https://go.dev"},
		{"inline code", `<p>run <code>go test</code> now</p>`, "run go test now"},
		{"blockquote", `<blockquote>quoted</blockquote>`, "│ quoted"},
		{"pre", "<pre>line 1\nline 2\n</pre>", "  line 1\n  line 2"},
		{"copy button dropped", `<div><button>Copy</button><p>x</p></div>`, "x"},
		{"math plain", `<p>see <span class="math-plain" title="Math engine not loaded">x^2</span></p>`, "see x^2"},
		{"math error", `<p><span class="math-error" title="bad">\frac{</span></p>`, `\frac{`},
		{"breaks between blocks", `<p>a</p>` + "\n" + `<br class="enhanced-break">` + "\n" + `<p>b</p>`, "a\n\nb"},
		{"entities decoded", `<p>a &lt; b &amp;&amp; c</p>`, "a < b && c"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := HTMLToText(tc.in, plainStyles(), 0)
			if got != tc.want {
				t.Errorf("HTMLToText(%q) =\n%q\nwant\n%q", tc.in, got, tc.want)
			}
		})
	}
}

func TestHTMLToText_Table(t *testing.T) {
	in := `<table><thead><tr><th>Name</th><th>Qty</th></tr></thead>` +
		`<tbody><tr><td>apple</td><td>3</td></tr><tr><td>漢字</td><td>12</td></tr></tbody></table>`
	got := HTMLToText(in, plainStyles(), 0)
	want := strings.Join([]string{
		"Name  │ Qty",
		"──────┼────",
		"apple │ 3",
		"漢字  │ 12",
	}, "\n")
	if got != want {
		t.Errorf("table =\n%s\nwant\n%s", got, want)
	}
}

func TestHTMLToText_Wraps(t *testing.T) {
	got := HTMLToText(`<p>one two three four five six</p>`, plainStyles(), 10)
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 10 {
			t.Errorf("line %q exceeds width 10 in %q", line, got)
		}
	}
	if strings.Join(strings.Fields(got), " ") != "one two three four five six" {
		t.Errorf("wrapping lost words: %q", got)
	}
}

func TestHTMLToText_PipelineOutput(t *testing.T) {
	hl := highlight.New("")
	if err := hl.Load(t.Context()); err != nil {
		t.Fatal(err)
	}
	p := content.New(content.WithHighlighter(hl), content.WithMath(mathrender.NewReady()))

	in := "# Notes\n\nEnergy is $E=mc^2$ here.\n\n$$\\frac{a}{b}$$\n\n```go\nfmt.Println(\"hi\")\n```"
	got := HTMLToText(p.ProcessSync(in), plainStyles(), 0)

	for _, want := range []string{
		"# Notes",
		"Energy is E=mc^2 here.",
		`  \frac{a}{b}`,
		"go\n  fmt.Println(\"hi\")",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Copy") {
		t.Errorf("copy button leaked into text:\n%s", got)
	}
	if strings.Contains(got, "<") {
		t.Errorf("markup leaked into text:\n%s", got)
	}
}
