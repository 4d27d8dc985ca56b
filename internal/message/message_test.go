package message

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/samsaffron/buddy-render/internal/bridge"
	"github.com/samsaffron/buddy-render/internal/content"
	"github.com/samsaffron/buddy-render/internal/highlight"
	"github.com/samsaffron/buddy-render/internal/mathrender"
	"github.com/samsaffron/buddy-render/internal/render/typewriter"
)

const mixedText = "Here is the fix:\n```python\ndef f(): pass\n```"

type harness struct {
	msg    *Message
	proc   *content.Processor
	frames *typewriter.ManualFrames
	bridge *bridge.Recorder
	events []Event
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		proc:   content.New(content.WithHighlighter(highlight.New("")), content.WithMath(mathrender.NewReady())),
		frames: typewriter.NewManualFrames(),
		bridge: &bridge.Recorder{},
	}
	base := []Option{WithProcessor(h.proc), WithFrames(h.frames), WithBridge(h.bridge)}
	h.msg = New(append(base, opts...)...)
	h.msg.OnEvent(func(ev Event) { h.events = append(h.events, ev) })
	return h
}

func (h *harness) count(typ EventType) int {
	n := 0
	for _, ev := range h.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func (h *harness) run(t *testing.T) {
	t.Helper()
	now := time.Unix(0, 0)
	for i := 0; i < 2000 && h.frames.Pending() > 0; i++ {
		h.frames.Step(now)
		now = now.Add(typewriter.FrameInterval)
		h.msg.Render()
	}
	if h.frames.Pending() > 0 {
		t.Fatal("animation did not finish")
	}
}

func TestRender_NotStreaming(t *testing.T) {
	h := newHarness(t)
	h.msg.SetText("Hello **world**")

	want := h.proc.ProcessSync("Hello **world**")
	if got := h.msg.Render(); got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
	if h.frames.Pending() != 0 {
		t.Fatal("non-streaming render must not schedule frames")
	}
	if h.msg.cache.Size() != 1 {
		t.Fatalf("cache size = %d", h.msg.cache.Size())
	}
}

func TestRender_AlreadyRenderedPassesThrough(t *testing.T) {
	h := newHarness(t)
	rendered := h.proc.ProcessSync("# Title\n\nbody")
	h.msg.SetText(rendered)
	if got := h.msg.Render(); got != rendered {
		t.Fatalf("Render() = %q, want input unchanged", got)
	}
	if got, _ := h.msg.cache.Get(rendered); got != rendered {
		t.Fatal("pass-through result should be cached as itself")
	}
}

func TestRender_TextChangeClearsCache(t *testing.T) {
	h := newHarness(t)
	h.msg.SetText("one")
	h.msg.Render()
	h.msg.SetText("two")
	if h.msg.cache.Size() != 0 {
		t.Fatal("cache not cleared")
	}
	if got := h.msg.Render(); !strings.Contains(got, "two") {
		t.Fatalf("Render() = %q", got)
	}
}

func TestRender_SingleBlockStreaming(t *testing.T) {
	h := newHarness(t)
	h.msg.SetText("Hello **world**, this animates")
	h.msg.SetStreaming(true)

	first := h.msg.Render()
	if first != "" {
		t.Fatalf("first frame = %q, want empty", first)
	}

	prev := 0
	now := time.Unix(0, 0)
	for h.frames.Pending() > 0 {
		h.frames.Step(now)
		now = now.Add(typewriter.FrameInterval)
		n := len(h.msg.Render())
		if n < prev {
			t.Fatalf("display shrank from %d to %d", prev, n)
		}
		prev = n
	}

	want := h.msg.Processed()
	if got := h.msg.Render(); got != want {
		t.Fatalf("final display = %q, want %q", got, want)
	}
	if h.count(EventAnimationComplete) != 1 || h.count(EventStreamAnimationComplete) != 1 {
		t.Fatalf("events = %+v", h.events)
	}
	if h.events[0].Text != want {
		t.Errorf("completion carries %q", h.events[0].Text)
	}
	if !h.msg.Complete() {
		t.Error("Complete() = false")
	}
}

func TestRender_MixedSequencing(t *testing.T) {
	h := newHarness(t)
	h.msg.SetText(mixedText)
	h.msg.SetStreaming(true)

	out := h.msg.Render()
	if st, i := h.msg.State(); st != StateAnimating || i != 0 {
		t.Fatalf("state = %v(%d), want animating(0)", st, i)
	}
	if strings.Contains(out, "code-block-container") {
		t.Fatal("code part rendered before text part completed")
	}

	code := h.proc.RenderCode("python", "def f(): pass", 1)
	now := time.Unix(0, 0)
	for i := 0; i < 1000 && h.frames.Pending() > 0; i++ {
		h.frames.Step(now)
		now = now.Add(typewriter.FrameInterval)
		out = h.msg.Render()
		if h.count(EventPartComplete) == 0 && strings.Contains(out, "code-block-container") {
			t.Fatalf("code part visible before part 0 completed: %s", out)
		}
		if strings.Contains(out, "code-block-container") && !strings.Contains(out, code) {
			t.Fatalf("code block partially revealed: %s", out)
		}
	}

	if len(h.events) != 3 {
		t.Fatalf("events = %+v", h.events)
	}
	if ev := h.events[0]; ev.Type != EventPartComplete || ev.Index != 0 || ev.Text != "Here is the fix:" {
		t.Errorf("event 0 = %+v", ev)
	}
	if ev := h.events[1]; ev.Type != EventPartComplete || ev.Index != 1 || ev.Code != "def f(): pass" {
		t.Errorf("event 1 = %+v", ev)
	}
	if h.events[2].Type != EventStreamAnimationComplete {
		t.Errorf("event 2 = %+v", h.events[2])
	}

	want := h.proc.ProcessSync("Here is the fix:") + code
	if out != want {
		t.Fatalf("final display = %q, want %q", out, want)
	}
	if st, _ := h.msg.State(); st != StateComplete {
		t.Fatalf("state = %v", st)
	}
}

func TestRender_TextChangeRestartsSequence(t *testing.T) {
	h := newHarness(t)
	h.msg.SetText(mixedText)
	h.msg.SetStreaming(true)
	h.msg.Render()

	now := time.Unix(0, 0)
	for i := 0; i < 3; i++ {
		h.frames.Step(now)
		now = now.Add(typewriter.FrameInterval)
	}
	if h.frames.Pending() == 0 {
		t.Fatal("expected animation in flight")
	}

	h.msg.SetText("New intro:\n```go\nx := 1\n```")
	if h.frames.Pending() != 0 {
		t.Fatal("discarded run left a frame queued")
	}
	if st, _ := h.msg.State(); st != StateIdle {
		t.Fatalf("state = %v, want idle", st)
	}

	h.msg.Render()
	if st, i := h.msg.State(); st != StateAnimating || i != 0 {
		t.Fatalf("state = %v(%d)", st, i)
	}
	h.run(t)
	if h.count(EventStreamAnimationComplete) != 1 {
		t.Fatalf("events = %+v", h.events)
	}
	if h.events[0].Text != "New intro:" {
		t.Fatalf("first event from the discarded run: %+v", h.events[0])
	}
}

func TestRender_StreamingToggleRestarts(t *testing.T) {
	h := newHarness(t)
	h.msg.SetText(mixedText)
	h.msg.SetStreaming(true)
	h.msg.Render()
	h.run(t)

	h.msg.SetStreaming(false)
	if got := h.msg.Render(); got != h.msg.Processed() {
		t.Fatal("non-streaming render must show the processed message")
	}
	h.msg.SetStreaming(true)
	h.msg.Render()
	if st, i := h.msg.State(); st != StateAnimating || i != 0 {
		t.Fatalf("state = %v(%d)", st, i)
	}
}

func TestRender_AnimationDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableTextAnimation = false
	h := newHarness(t, WithConfig(cfg))
	h.msg.SetText(mixedText)
	h.msg.SetStreaming(true)
	if got := h.msg.Render(); got != h.msg.Processed() {
		t.Fatalf("Render() = %q", got)
	}
	if h.frames.Pending() != 0 {
		t.Fatal("no frames expected")
	}
}

func TestRender_FadeMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeFade
	h := newHarness(t, WithConfig(cfg))
	h.msg.SetText("fade these words")
	h.msg.SetStreaming(true)

	out := h.msg.Render()
	if !strings.Contains(out, `class="fade-segment"`) || !strings.Contains(out, "animation-name: fadeIn") {
		t.Fatalf("Render() = %q", out)
	}
	if !h.msg.Complete() {
		t.Fatal("fade completes as soon as segments are assigned")
	}
	if h.count(EventAnimationComplete) != 1 || h.count(EventStreamAnimationComplete) != 1 {
		t.Fatalf("events = %+v", h.events)
	}
	h.msg.Render()
	if h.count(EventStreamAnimationComplete) != 1 {
		t.Fatal("completion fired twice")
	}
}

func TestPauseResume(t *testing.T) {
	h := newHarness(t)
	h.msg.SetText("a long enough sentence to pause in the middle")
	h.msg.SetStreaming(true)
	h.msg.Render()

	now := time.Unix(0, 0)
	h.frames.Step(now)
	h.frames.Step(now.Add(typewriter.FrameInterval))
	h.msg.Pause()
	frozen := h.msg.Render()
	h.frames.Step(now.Add(2 * typewriter.FrameInterval))
	if got := h.msg.Render(); got != frozen {
		t.Fatalf("display moved while paused: %q -> %q", frozen, got)
	}

	h.msg.Resume()
	h.run(t)
	if got := h.msg.Render(); got != h.msg.Processed() {
		t.Fatalf("final = %q", got)
	}
}

func TestSkip(t *testing.T) {
	h := newHarness(t)
	h.msg.SetText(mixedText)
	h.msg.SetStreaming(true)
	h.msg.Render()
	h.msg.Skip()

	if st, _ := h.msg.State(); st != StateComplete {
		t.Fatalf("state = %v", st)
	}
	if h.count(EventPartComplete) != 2 || h.count(EventStreamAnimationComplete) != 1 {
		t.Fatalf("events = %+v", h.events)
	}
	h.run(t)
	if h.count(EventStreamAnimationComplete) != 1 {
		t.Fatal("leftover frames fired completion again")
	}
}

func TestCopyCode(t *testing.T) {
	h := newHarness(t)
	h.msg.SetText(mixedText)

	ids := content.CodeIDs(h.msg.Processed())
	if len(ids) != 1 {
		t.Fatalf("ids = %v", ids)
	}
	if err := h.msg.CopyCode(ids[0]); err != nil {
		t.Fatal(err)
	}
	if got, _ := h.bridge.Copied(); got != "def f(): pass" {
		t.Fatalf("copied %q", got)
	}
	if h.count(EventCodeCopied) != 1 || h.events[0].Code != "def f(): pass" {
		t.Fatalf("events = %+v", h.events)
	}

	if err := h.msg.CopyCode("code-missing"); !errors.Is(err, ErrCodeNotFound) {
		t.Fatalf("err = %v", err)
	}

	h.bridge.Err = errors.New("clipboard locked")
	if err := h.msg.CopyCode(ids[0]); err == nil {
		t.Fatal("bridge failure must be returned")
	}
	if h.count(EventCodeCopied) != 1 {
		t.Fatal("failed copy must not emit an event")
	}
}

func TestOpenLink(t *testing.T) {
	h := newHarness(t)
	if err := h.msg.OpenLink("https://example.com"); err != nil {
		t.Fatal(err)
	}
	if err := h.msg.OpenLink("javascript:alert(1)"); !errors.Is(err, bridge.ErrUnsafeURL) {
		t.Fatalf("err = %v", err)
	}
	if len(h.bridge.Opened) != 1 {
		t.Fatalf("opened = %v", h.bridge.Opened)
	}
}

func TestRenderFinal(t *testing.T) {
	h := newHarness(t)
	h.msg.SetText("```go\nfunc main() {}\n```")

	before := h.msg.Render()
	if strings.Contains(before, "hljs-") {
		t.Fatal("highlighter should not be loaded yet")
	}
	out, err := h.msg.RenderFinal(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `class="hljs-`) {
		t.Fatalf("RenderFinal() = %q", out)
	}
	if got := h.msg.Render(); got != out {
		t.Fatal("final rendering should replace the cached one")
	}
}
