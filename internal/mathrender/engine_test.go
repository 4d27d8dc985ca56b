package mathrender

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRenderToString_NotReady(t *testing.T) {
	if _, err := New().RenderToString("x", false); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err=%v, want ErrNotReady", err)
	}
}

func TestRenderToString(t *testing.T) {
	e := NewReady()
	tests := []struct {
		name    string
		expr    string
		display bool
		want    []string
	}{
		{
			name:    "einstein display",
			expr:    "E=mc^2",
			display: true,
			want: []string{
				`<span class="katex-display"><span class="katex">`,
				`display="block"`,
				`<mi>E</mi><mo>=</mo><mi>m</mi><msup><mi>c</mi><mn>2</mn></msup>`,
				`<annotation encoding="application/x-tex">E=mc^2</annotation>`,
			},
		},
		{
			name: "inline fraction",
			expr: `\frac{a}{b}`,
			want: []string{`<span class="katex"><math`, `<mfrac><mrow><mi>a</mi></mrow><mrow><mi>b</mi></mrow></mfrac>`},
		},
		{
			name: "greek and subscripts",
			expr: `\alpha_i^{2}`,
			want: []string{`<msubsup><mi>α</mi><mi>i</mi><mrow><mn>2</mn></mrow></msubsup>`},
		},
		{
			name: "multi digit number",
			expr: "3.14",
			want: []string{"<mn>3.14</mn>"},
		},
		{
			name: "root with index",
			expr: `\sqrt[3]{x}`,
			want: []string{`<mroot><mrow><mi>x</mi></mrow><mrow><mn>3</mn></mrow></mroot>`},
		},
		{
			name:    "sum with limits in display",
			expr:    `\sum_{i=1}^{n} i`,
			display: true,
			want:    []string{"<munderover>", "∑"},
		},
		{
			name: "sum inline uses scripts",
			expr: `\sum_{i=1}^{n} i`,
			want: []string{"<msubsup>"},
		},
		{
			name: "text keeps spaces",
			expr: `x \text{if } y`,
			want: []string{"<mtext>if </mtext>"},
		},
		{
			name: "left right fences",
			expr: `\left( x \right)`,
			want: []string{`<mo fence="true">(</mo><mi>x</mi><mo fence="true">)</mo>`},
		},
		{
			name:    "matrix environment",
			expr:    `\begin{pmatrix} a & b \\ c & d \end{pmatrix}`,
			display: true,
			want:    []string{"<mtable><mtr><mtd><mi>a</mi></mtd><mtd><mi>b</mi></mtd></mtr><mtr><mtd><mi>c</mi></mtd><mtd><mi>d</mi></mtd></mtr></mtable>"},
		},
		{
			name: "operators escaped",
			expr: `a < b`,
			want: []string{"<mo>&lt;</mo>"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := e.RenderToString(tc.expr, tc.display)
			if err != nil {
				t.Fatalf("RenderToString(%q): %v", tc.expr, err)
			}
			for _, w := range tc.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}
}

func TestRenderToString_Errors(t *testing.T) {
	e := NewReady()
	inputs := []string{
		`\frac{a`,
		`a}`,
		`\unknowncommand x`,
		`x^2^3`,
		`\left( x`,
		`\begin{pmatrix} a \end{bmatrix}`,
		`\begin{nosuchenv} a \end{nosuchenv}`,
		`a & b`,
	}
	for _, in := range inputs {
		_, err := e.RenderToString(in, false)
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("RenderToString(%q) err=%v, want ParseError", in, err)
		}
	}
}

func TestLoad_Shared(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	e := New().WithLoadHook(func(context.Context) error {
		calls.Add(1)
		<-release
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.Load(context.Background()); err != nil {
				t.Errorf("Load: %v", err)
			}
		}()
	}
	close(release)
	wg.Wait()
	if calls.Load() != 1 {
		t.Errorf("load ran %d times", calls.Load())
	}
	if !e.Ready() {
		t.Error("engine not ready after load")
	}
}

func TestLoad_Error(t *testing.T) {
	e := New().WithLoadHook(func(context.Context) error { return errors.New("no fonts") })
	if err := e.Load(context.Background()); err == nil || e.Ready() {
		t.Fatalf("err=%v ready=%v", err, e.Ready())
	}
}
