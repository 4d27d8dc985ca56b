package fade

import (
	"strings"
	"testing"
	"time"

	"github.com/samsaffron/buddy-render/internal/render/typewriter"
)

func TestTimingFor(t *testing.T) {
	tests := []struct {
		name         string
		opts         Options
		wantDuration time.Duration
		wantDelay    time.Duration
	}{
		{"speed 25", Options{Speed: 25}, 200 * time.Millisecond, 20 * time.Millisecond},
		{"speed 100", Options{Speed: 100}, 100 * time.Millisecond, 10 * time.Millisecond},
		{"speed clamped to 100", Options{Speed: 400}, 100 * time.Millisecond, 10 * time.Millisecond},
		{"speed 1", Options{Speed: 1}, time.Second, 100 * time.Millisecond},
		{"zero speed uses default", Options{}, 200 * time.Millisecond, 20 * time.Millisecond},
		{"duration override", Options{Speed: 25, FadeDuration: typewriter.Float(300)}, 300 * time.Millisecond, 20 * time.Millisecond},
		{"duration floor", Options{FadeDuration: typewriter.Float(2)}, 10 * time.Millisecond, 20 * time.Millisecond},
		{"delay override", Options{SegmentDelay: typewriter.Float(5)}, 200 * time.Millisecond, 5 * time.Millisecond},
		{"delay floor", Options{SegmentDelay: typewriter.Float(0)}, 200 * time.Millisecond, time.Millisecond},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TimingFor(tc.opts)
			if got.Duration != tc.wantDuration || got.Delay != tc.wantDelay {
				t.Errorf("TimingFor()=%+v, want duration %v delay %v", got, tc.wantDuration, tc.wantDelay)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	segs := Split("Hello, wide  world")
	var texts []string
	for i, s := range segs {
		if s.Index != i {
			t.Errorf("segment %d has index %d", i, s.Index)
		}
		texts = append(texts, s.Text)
	}
	if got := strings.Join(texts, ""); got != "Hello, wide  world" {
		t.Fatalf("segments do not cover input: %q", got)
	}
	want := []string{"Hello", ",", " ", "wide", "  ", "world"}
	if strings.Join(texts, "|") != strings.Join(want, "|") {
		t.Errorf("segments=%q, want %q", texts, want)
	}
	if !segs[2].Space || segs[3].Space {
		t.Errorf("whitespace tagging wrong: %+v", segs)
	}
}

func TestSplit_InvalidUTF8Fallback(t *testing.T) {
	segs := Split("ab\xff cd\n\nef")
	var texts []string
	for _, s := range segs {
		texts = append(texts, s.Text)
	}
	want := []string{"ab\xff", " ", "cd", "\n\n", "ef"}
	if strings.Join(texts, "|") != strings.Join(want, "|") {
		t.Errorf("segments=%q, want %q", texts, want)
	}
}

func TestRenderHTML(t *testing.T) {
	timing := Timing{Duration: 200 * time.Millisecond, Delay: 20 * time.Millisecond}
	code := `<div class="code-block-container"><pre><code class="hljs">a &lt; b</code></pre></div>`
	out, segs := RenderHTML(`<p>Hi there</p>`+code, timing)

	if len(segs) != 4 {
		t.Fatalf("got %d segments: %+v", len(segs), segs)
	}
	if !strings.HasPrefix(out, `<p><span class="fade-segment" style="animation-duration: 200ms; animation-delay: 0ms;`) {
		t.Errorf("unexpected start: %q", out)
	}
	if !strings.Contains(out, `<span class="fade-segment fade-segment-space" style="animation-duration: 200ms; animation-delay: 20ms;`) {
		t.Errorf("missing space segment: %q", out)
	}
	if !strings.Contains(out, `animation-delay: 60ms; animation-name: fadeIn; animation-fill-mode: forwards; animation-timing-function: ease-out;">`+code+`</span>`) {
		t.Errorf("complex block must fade as one unit: %q", out)
	}
	if strings.Count(out, "hljs") != 1 {
		t.Errorf("code markup duplicated or split: %q", out)
	}
}

func TestRenderHTML_EscapesText(t *testing.T) {
	out, _ := RenderHTML("<p>a &lt;b&gt;</p>", Timing{Duration: time.Millisecond, Delay: time.Millisecond})
	if !strings.Contains(out, "&lt;") || !strings.Contains(out, "&gt;") || strings.Contains(out, "<b>") {
		t.Errorf("text not escaped: %q", out)
	}
}

func TestFader_CompletesImmediatelyOnce(t *testing.T) {
	var done []string
	f := NewFader(Options{Speed: 25}, func(text string) { done = append(done, text) })
	f.Start("one two")
	if !f.Complete() {
		t.Fatal("fader should complete right after segmenting")
	}
	if len(done) != 1 || done[0] != "one two" {
		t.Fatalf("completion=%q", done)
	}
	if len(f.Segments()) != 3 {
		t.Errorf("segments=%+v", f.Segments())
	}

	f.Start("three")
	if len(done) != 2 || done[1] != "three" {
		t.Fatalf("restart must signal again: %q", done)
	}
	if len(f.Segments()) != 1 {
		t.Errorf("segments not replaced: %+v", f.Segments())
	}

	f.Reset()
	if f.HTML() != "" || f.Complete() {
		t.Error("reset did not clear state")
	}
}
