// Package message is the chat message component: it owns the processed
// content cache, the animators and, for messages that mix prose and code,
// the coordinator that reveals parts one at a time.
package message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samsaffron/buddy-render/internal/bridge"
	"github.com/samsaffron/buddy-render/internal/content"
	"github.com/samsaffron/buddy-render/internal/guard"
	"github.com/samsaffron/buddy-render/internal/logging"
	"github.com/samsaffron/buddy-render/internal/render/fade"
	"github.com/samsaffron/buddy-render/internal/render/typewriter"
	"github.com/sirupsen/logrus"
)

// Animation modes.
const (
	ModeTypewriter = "typewriter"
	ModeFade       = "fade"
)

// ErrCodeNotFound is returned by CopyCode for an unknown code block id.
var ErrCodeNotFound = errors.New("code block not found")

// Config is the animation configuration of a message.
type Config struct {
	Mode                string
	Speed               float64
	FadeDuration        *float64
	SegmentDelay        *float64
	ChunkSize           *float64
	Delay               *float64
	EnableTextAnimation bool
}

// DefaultConfig returns typewriter mode at the default speed.
func DefaultConfig() Config {
	return Config{
		Mode:                ModeTypewriter,
		Speed:               typewriter.DefaultSpeed,
		EnableTextAnimation: true,
	}
}

func (c Config) typewriterOptions() typewriter.Options {
	return typewriter.Options{Speed: c.Speed, ChunkSize: c.ChunkSize, Delay: c.Delay}
}

func (c Config) fadeOptions() fade.Options {
	return fade.Options{Speed: c.Speed, FadeDuration: c.FadeDuration, SegmentDelay: c.SegmentDelay}
}

// Option configures a Message.
type Option func(*Message)

// WithProcessor sets the content pipeline.
func WithProcessor(p *content.Processor) Option {
	return func(m *Message) { m.proc = p }
}

// WithFrames sets the frame source driving animations.
func WithFrames(f typewriter.Frames) Option {
	return func(m *Message) { m.frames = f }
}

// WithBridge sets the host bridge used for copy and link actions.
func WithBridge(b bridge.Bridge) Option {
	return func(m *Message) { m.bridge = b }
}

// WithConfig sets the initial animation configuration.
func WithConfig(cfg Config) Option {
	return func(m *Message) { m.cfg = cfg }
}

// WithCacheSize bounds the processed-content cache. Zero is unbounded.
func WithCacheSize(n int) Option {
	return func(m *Message) { m.cache = NewCache(n) }
}

// animation is one run. gen ties callbacks to the run that created them.
type animation struct {
	gen    uint64
	single *typewriter.Animator
	fader  *fade.Fader
	coord  *Coordinator
	parts  []*typewriter.Animator
	done   bool
}

func (a *animation) animators() []*typewriter.Animator {
	out := make([]*typewriter.Animator, 0, len(a.parts)+1)
	if a.single != nil {
		out = append(out, a.single)
	}
	for _, p := range a.parts {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Message renders one chat message.
type Message struct {
	mu        sync.Mutex
	text      string
	streaming bool
	cfg       Config

	proc   *content.Processor
	frames typewriter.Frames
	bridge bridge.Bridge
	cache  *Cache
	log    *logrus.Entry

	anim *animation
	gen  uint64

	listeners []func(Event)
}

// New creates an empty message.
func New(opts ...Option) *Message {
	m := &Message{
		cfg: DefaultConfig(),
		log: logging.For("message"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.proc == nil {
		m.proc = content.New()
	}
	if m.frames == nil {
		m.frames = typewriter.TickerFrames{}
	}
	if m.bridge == nil {
		m.bridge = bridge.System{}
	}
	if m.cache == nil {
		m.cache = NewCache(0)
	}
	return m
}

// OnEvent registers a listener. Listeners run on the goroutine that caused
// the event and must not block.
func (m *Message) OnEvent(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Message) emit(ev Event) {
	m.mu.Lock()
	ls := append([]func(Event){}, m.listeners...)
	m.mu.Unlock()
	for _, fn := range ls {
		fn(ev)
	}
}

// SetText replaces the message text. A change clears the cache and discards
// the running animation.
func (m *Message) SetText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if text == m.text {
		return
	}
	m.text = text
	m.cache.Clear()
	m.discard()
}

// SetStreaming toggles animation. Any change discards the running animation,
// so turning streaming on restarts from the first part.
func (m *Message) SetStreaming(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on == m.streaming {
		return
	}
	m.streaming = on
	m.discard()
}

// SetConfig replaces the animation configuration and discards the running
// animation.
func (m *Message) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	m.discard()
}

// Text returns the raw message text.
func (m *Message) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Streaming reports whether the message animates.
func (m *Message) Streaming() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streaming
}

// Close cancels any pending animation frame.
func (m *Message) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discard()
}

// discard drops the current run. Must be called with lock held.
func (m *Message) discard() {
	if m.anim == nil {
		return
	}
	for _, a := range m.anim.animators() {
		a.Reset()
	}
	if m.anim.fader != nil {
		m.anim.fader.Reset()
	}
	m.anim = nil
}

// Processed returns the fully processed HTML of the message.
func (m *Message) Processed() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.process(m.text)
}

// process runs text through the guard, the cache and the synchronous
// pipeline. Must be called with lock held.
func (m *Message) process(text string) string {
	if text == "" {
		return ""
	}
	if out, ok := m.cache.Get(text); ok {
		return out
	}
	out := text
	if guard.IsContentAlreadyRendered(text) {
		m.log.Debug("content already rendered, passing through")
	} else {
		out = m.proc.ProcessSync(text)
	}
	m.cache.Put(text, out)
	return out
}

// RenderFinal processes the message with the highlighter loaded. The result
// replaces the cached synchronous rendering.
func (m *Message) RenderFinal(ctx context.Context) (string, error) {
	text := m.Text()
	if text == "" || guard.IsContentAlreadyRendered(text) {
		return text, nil
	}
	out, err := m.proc.Process(ctx, text)
	if err != nil {
		return "", fmt.Errorf("render message: %w", err)
	}
	m.mu.Lock()
	if m.text == text {
		m.cache.Put(text, out)
	}
	m.mu.Unlock()
	return out, nil
}

// animating reports whether Render should animate. Must be called with lock
// held.
func (m *Message) animating() bool {
	return m.streaming && m.cfg.EnableTextAnimation && m.text != ""
}

// Render returns the markup to display now. Without streaming it is the
// processed message. While streaming it is the current animation frame; the
// first call starts the animation.
func (m *Message) Render() string {
	if start := m.prepare(); start != nil {
		start()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view()
}

// prepare creates the animation run if needed and returns the function that
// starts it. Starting happens outside the lock because animators may report
// completion synchronously.
func (m *Message) prepare() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.anim != nil || !m.animating() {
		return nil
	}
	m.gen++
	gen := m.gen
	a := &animation{gen: gen}
	m.anim = a

	if m.cfg.Mode == ModeFade {
		html := m.process(m.text)
		a.fader = fade.NewFader(m.cfg.fadeOptions(), func(string) { m.finish(gen, html) })
		return func() { a.fader.Start(html) }
	}

	if parts := SplitParts(m.text); IsMixed(parts) {
		a.coord = NewCoordinator(parts)
		a.parts = make([]*typewriter.Animator, len(parts))
		a.coord.Start()
		m.log.WithField("parts", len(parts)).Debug("sequencing mixed message")
		return func() { m.startPart(gen, 0) }
	}

	html := m.process(m.text)
	a.single = typewriter.New(m.frames, m.cfg.typewriterOptions(),
		typewriter.WithOnComplete(func(string) { m.finish(gen, html) }))
	return func() { a.single.Start(html) }
}

// current returns the run created for gen. Must be called with lock held.
func (m *Message) current(gen uint64) *animation {
	if m.anim == nil || m.anim.gen != gen {
		return nil
	}
	return m.anim
}

func (m *Message) startPart(gen uint64, i int) {
	m.mu.Lock()
	a := m.current(gen)
	if a == nil || a.coord == nil || i >= len(a.parts) {
		m.mu.Unlock()
		return
	}
	part := a.coord.Parts()[i]
	anim := typewriter.New(m.frames, m.cfg.typewriterOptions(),
		typewriter.WithOnComplete(func(string) { m.partComplete(gen, i) }))
	a.parts[i] = anim
	// A code part is one atomic block, revealed whole on its first tick.
	src := m.partHTML(part, part.Text)
	m.mu.Unlock()

	anim.Start(src)
}

func (m *Message) partComplete(gen uint64, i int) {
	m.mu.Lock()
	a := m.current(gen)
	if a == nil || a.coord == nil {
		m.mu.Unlock()
		return
	}
	tr := a.coord.PartComplete(i)
	if tr == TransitionCompleted {
		a.done = true
	}
	part := a.coord.Parts()[i]
	text := m.text
	m.mu.Unlock()

	switch tr {
	case TransitionIgnored:
		m.log.WithField("part", i).Debug("ignoring stale part completion")
	case TransitionAdvanced:
		m.emit(NewPartCompleteEvent(i, part))
		m.startPart(gen, i+1)
	case TransitionCompleted:
		m.emit(NewPartCompleteEvent(i, part))
		m.emit(NewStreamAnimationCompleteEvent(text))
	}
}

// finish completes a single-block or fade run.
func (m *Message) finish(gen uint64, html string) {
	m.mu.Lock()
	a := m.current(gen)
	if a == nil || a.done {
		m.mu.Unlock()
		return
	}
	a.done = true
	text := m.text
	m.mu.Unlock()

	m.emit(NewAnimationCompleteEvent(html))
	m.emit(NewStreamAnimationCompleteEvent(text))
}

// view builds the current output. Must be called with lock held.
func (m *Message) view() string {
	a := m.anim
	if !m.animating() || a == nil {
		return m.process(m.text)
	}
	switch {
	case a.fader != nil:
		return a.fader.HTML()
	case a.single != nil:
		return a.single.Displayed()
	}

	var sb strings.Builder
	for i, part := range a.coord.Parts() {
		if !a.coord.Visible(i) {
			break
		}
		anim := a.parts[i]
		if !a.coord.Animating(i) || anim == nil {
			sb.WriteString(m.partHTML(part, part.Text))
			continue
		}
		sb.WriteString(anim.Displayed())
	}
	return sb.String()
}

// partHTML renders a part with the given body. Must be called with lock held.
func (m *Message) partHTML(p Part, body string) string {
	if p.Kind == PartCode {
		return m.proc.RenderCode(p.Lang, body, p.Ordinal)
	}
	return m.process(body)
}

// Complete reports whether the current run has finished.
func (m *Message) Complete() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.anim != nil && m.anim.done
}

// State returns the coordinator state for mixed messages. Other messages
// report StateIdle.
func (m *Message) State() (State, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.anim == nil || m.anim.coord == nil {
		return StateIdle, 0
	}
	return m.anim.coord.State()
}

// Pause freezes the running animation.
func (m *Message) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.anim == nil {
		return
	}
	for _, a := range m.anim.animators() {
		a.Pause()
	}
}

// Resume continues a paused animation.
func (m *Message) Resume() {
	m.mu.Lock()
	var as []*typewriter.Animator
	if m.anim != nil {
		as = m.anim.animators()
	}
	m.mu.Unlock()
	for _, a := range as {
		a.Resume()
	}
}

// Skip reveals the rest of the message at once. Remaining completion events
// fire in order.
func (m *Message) Skip() {
	var prev *typewriter.Animator
	for {
		m.mu.Lock()
		var cur *typewriter.Animator
		if a := m.anim; a != nil {
			switch {
			case a.single != nil:
				cur = a.single
			case a.coord != nil:
				if st, i := a.coord.State(); st == StateAnimating {
					cur = a.parts[i]
				}
			}
		}
		m.mu.Unlock()
		if cur == nil || cur == prev || cur.Complete() {
			return
		}
		cur.Skip()
		prev = cur
	}
}

// CopyCode writes the source of the code block with the given id to the
// clipboard. Failures are logged and returned; they never disturb rendering.
func (m *Message) CopyCode(id string) error {
	m.mu.Lock()
	html := m.process(m.text)
	m.mu.Unlock()

	code, ok := content.ExtractCode(html, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCodeNotFound, id)
	}
	if err := m.bridge.WriteClipboard(code); err != nil {
		m.log.WithError(err).WithField("id", id).Warn("failed to copy code")
		return err
	}
	m.emit(NewCodeCopiedEvent(code))
	return nil
}

// OpenLink asks the host to open url externally.
func (m *Message) OpenLink(url string) error {
	if err := m.bridge.OpenExternal(url); err != nil {
		m.log.WithError(err).WithField("url", url).Warn("failed to open link")
		return err
	}
	return nil
}
