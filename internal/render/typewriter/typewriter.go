// Package typewriter reveals text progressively, one chunk per animation
// frame. Plain text is revealed character by character; HTML is split into
// blocks first so that code, tables, headings and math appear atomically
// while surrounding prose animates.
package typewriter

import (
	"strings"
	"sync"
	"time"

	"github.com/samsaffron/buddy-render/internal/render/blocks"
	"golang.org/x/time/rate"
)

// Option configures an Animator.
type Option func(*Animator)

// WithOnUpdate registers a callback invoked with the displayed markup after
// every productive tick.
func WithOnUpdate(fn func(displayed string)) Option {
	return func(a *Animator) {
		a.onUpdate = fn
	}
}

// WithOnComplete registers the stream-complete callback. It fires exactly
// once per run with the full original text.
func WithOnComplete(fn func(text string)) Option {
	return func(a *Animator) {
		a.onComplete = fn
	}
}

// Animator is the typewriter scheduler. Each tick runs as a frame callback
// and schedules the next one until the text is fully revealed.
type Animator struct {
	mu     sync.Mutex
	frames Frames
	opts   Options

	onUpdate   func(string)
	onComplete func(string)

	text    string
	html    bool
	runes   []rune
	blocks  []blocks.Block
	pos     int // plain path: runes revealed
	block   int // html path: current block
	inBlock int // html path: characters revealed in current block

	displayed string
	started   bool
	paused    bool
	completed bool

	limiter *rate.Limiter
	cancel  func()
	gen     uint64
}

// New creates an animator driven by frames.
func New(frames Frames, opts Options, fns ...Option) *Animator {
	a := &Animator{
		frames: frames,
		opts:   opts,
	}
	for _, fn := range fns {
		fn(a)
	}
	return a
}

// SetOptions replaces pacing options. Takes effect on the next tick.
func (a *Animator) SetOptions(opts Options) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.opts = opts
	a.limiter = newLimiter(opts)
}

// Start resets the animator and begins revealing text. Text containing
// markup takes the block path.
func (a *Animator) Start(text string) {
	html := blocks.HasMarkup(text)
	a.Reset()

	a.mu.Lock()
	a.text = text
	a.html = html
	a.started = true
	if html {
		a.blocks = blocks.Parse(text)
	} else {
		a.runes = []rune(text)
	}
	if text == "" {
		a.completed = true
		a.mu.Unlock()
		a.notify("", true)
		return
	}
	a.schedule()
	a.mu.Unlock()
}

// Reset cancels any pending tick and discards all progress.
func (a *Animator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gen++
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.text = ""
	a.html = false
	a.runes = nil
	a.blocks = nil
	a.pos = 0
	a.block = 0
	a.inBlock = 0
	a.displayed = ""
	a.started = false
	a.paused = false
	a.completed = false
	a.limiter = newLimiter(a.opts)
}

// Pause stops the animation at the current position. A tick already queued
// sees the flag and does nothing.
func (a *Animator) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started || a.completed {
		return
	}
	a.paused = true
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// Resume continues a paused animation from exactly where it stopped.
func (a *Animator) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.paused || a.completed {
		return
	}
	a.paused = false
	a.schedule()
}

// Skip reveals everything immediately, firing completion if it has not
// fired yet.
func (a *Animator) Skip() {
	a.mu.Lock()
	if !a.started || a.completed {
		a.mu.Unlock()
		return
	}
	a.gen++
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.paused = false
	a.completed = true
	a.displayed = a.text
	text := a.text
	a.mu.Unlock()
	a.notify(text, true)
}

// Displayed returns the markup revealed so far.
func (a *Animator) Displayed() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.displayed
}

// Text returns the text of the current run.
func (a *Animator) Text() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.text
}

// Complete reports whether the current run has finished.
func (a *Animator) Complete() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.completed
}

// Paused reports whether the animation is paused.
func (a *Animator) Paused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

// Progress returns the number of characters revealed. Complex blocks count
// their full length once revealed.
func (a *Animator) Progress() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.completed && a.started {
		if a.html {
			return totalLen(a.blocks)
		}
		return len(a.runes)
	}
	if !a.html {
		return a.pos
	}
	n := a.inBlock
	for i := 0; i < a.block && i < len(a.blocks); i++ {
		n += a.blocks[i].Len()
	}
	return n
}

// ChunkSize returns the characters revealed per tick.
func (a *Animator) ChunkSize() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opts.ChunkSizeFor()
}

// schedule requests the next frame. Must be called with lock held.
func (a *Animator) schedule() {
	gen := a.gen
	a.cancel = a.frames.RequestFrame(func(now time.Time) {
		a.tick(gen, now)
	})
}

func (a *Animator) tick(gen uint64, now time.Time) {
	a.mu.Lock()
	if gen != a.gen || a.paused || a.completed {
		a.mu.Unlock()
		return
	}
	a.cancel = nil

	if a.limiter != nil && !a.limiter.AllowN(now, 1) {
		a.schedule()
		a.mu.Unlock()
		return
	}

	chunk := a.opts.ChunkSizeFor()
	var done bool
	if a.html {
		done = a.stepBlocks(chunk)
	} else {
		done = a.stepPlain(chunk)
	}
	if done {
		a.completed = true
		a.displayed = a.text
	} else {
		a.schedule()
	}
	displayed := a.displayed
	text := a.text
	a.mu.Unlock()

	if done {
		a.notify(text, true)
		return
	}
	a.notify(displayed, false)
}

func (a *Animator) stepPlain(chunk int) bool {
	a.pos = min(a.pos+chunk, len(a.runes))
	a.displayed = string(a.runes[:a.pos])
	return a.pos >= len(a.runes)
}

func (a *Animator) stepBlocks(chunk int) bool {
	if a.block >= len(a.blocks) {
		return true
	}
	b := a.blocks[a.block]
	if b.Complex {
		a.block++
		a.inBlock = 0
	} else {
		n := min(a.inBlock+chunk, b.Len())
		if n >= b.Len() {
			a.block++
			a.inBlock = 0
		} else {
			a.inBlock = n
		}
	}
	a.displayed = buildDisplayed(a.blocks, a.block, a.inBlock)
	return a.block >= len(a.blocks)
}

// buildDisplayed renders completed blocks in full, the current block with
// inBlock characters revealed, and closes any elements left open.
func buildDisplayed(bs []blocks.Block, current, inBlock int) string {
	var sb strings.Builder
	for i := 0; i < current && i < len(bs); i++ {
		sb.WriteString(bs[i].HTML())
	}
	if current >= len(bs) {
		return sb.String()
	}
	if inBlock > 0 {
		b := bs[current]
		sb.WriteString(b.Partial(inBlock))
		sb.WriteString(blocks.CloseTags(b.Open))
	} else if current > 0 {
		sb.WriteString(blocks.CloseTags(bs[current-1].Open))
	}
	return sb.String()
}

func (a *Animator) notify(s string, complete bool) {
	if a.onUpdate != nil {
		a.onUpdate(a.Displayed())
	}
	if complete && a.onComplete != nil {
		a.onComplete(s)
	}
}

func newLimiter(opts Options) *rate.Limiter {
	d := opts.DelayFor()
	if d <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

func totalLen(bs []blocks.Block) int {
	n := 0
	for _, b := range bs {
		n += b.Len()
	}
	return n
}
