package guard

import (
	"testing"

	"github.com/samsaffron/buddy-render/internal/content"
	"github.com/samsaffron/buddy-render/internal/highlight"
	"github.com/samsaffron/buddy-render/internal/mathrender"
)

func TestIsContentAlreadyRendered_RawInput(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", false},
		{"plain words", false},
		{"Hello **world**\n\n```js\nconst x = 1;\n```", false},
		{"$$E=mc^2$$ and $x$", false},
		{"| a | b |\n|---|---|", false},
		// Accepted false positive: the text quotes a signature verbatim.
		{`I love class="katex" styling`, true},
	}
	for _, tc := range tests {
		if got := IsContentAlreadyRendered(tc.input); got != tc.want {
			t.Errorf("IsContentAlreadyRendered(%q)=%v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestIsContentAlreadyRendered_PipelineOutput(t *testing.T) {
	inputs := []string{
		"just a sentence",
		"# Heading",
		"Hello **world**\n\n```js\nconst x = 1;\n```",
		"$$E=mc^2$$",
		"inline $a+b$ math",
		"$\\frac{a$",
		"- one\n- two",
		"> quoted",
		"| a | b |\n|---|---|\n| 1 | 2 |",
		"```\nplain\n```",
	}
	engines := map[string]mathrender.Renderer{
		"ready":     mathrender.NewReady(),
		"not ready": mathrender.New(),
	}
	for name, engine := range engines {
		p := content.New(content.WithHighlighter(highlight.New("")), content.WithMath(engine))
		for _, in := range inputs {
			out := p.ProcessSync(in)
			if !IsContentAlreadyRendered(out) {
				t.Errorf("%s: pipeline output of %q not recognised: %s", name, in, out)
			}
		}
	}
}

func TestMatch(t *testing.T) {
	sig, ok := Match(`<div class="math-block-container" data-math-processed="true">`)
	if !ok || sig != "math-block-container" {
		t.Errorf("Match=%q,%v", sig, ok)
	}
	if _, ok := Match("nothing here"); ok {
		t.Error("unexpected match")
	}
}

// Output without a signature is not recognised, so it must survive a second
// pass unchanged.
func TestUnsignedPipelineOutputIsStable(t *testing.T) {
	p := content.New(content.WithHighlighter(highlight.New("")), content.WithMath(mathrender.NewReady()))
	for _, in := range []string{"   ", " \n\t", "<div>hi</div>", `<p>already</p>`, "<ul><li>x</li></ul>"} {
		out := p.ProcessSync(in)
		if IsContentAlreadyRendered(out) {
			continue
		}
		if again := p.ProcessSync(out); again != out {
			t.Errorf("second pass over %q changed output:\n first %q\nsecond %q", in, out, again)
		}
	}
}
