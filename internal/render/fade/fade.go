// Package fade implements the fade reveal mode: text is split into word and
// whitespace segments and each segment gets a staggered CSS fade-in. Nothing
// is revealed incrementally here; the host's styling engine performs the
// animation, so completion is reported as soon as timings are assigned.
package fade

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
	"github.com/samsaffron/buddy-render/internal/render/blocks"
	"github.com/samsaffron/buddy-render/internal/render/typewriter"
	"golang.org/x/net/html"
)

// MinFadeDuration is the floor applied to an explicit fade duration override.
const MinFadeDuration = 10 * time.Millisecond

// Segment is one word or whitespace run.
type Segment struct {
	Text  string
	Index int
	Space bool
}

// Options controls fade timing. Overrides follow the same rules as the
// typewriter: nil, NaN or infinite values fall back to speed-derived timing.
type Options struct {
	Speed        float64
	FadeDuration *float64 // ms
	SegmentDelay *float64 // ms between consecutive segments
}

// Timing is the resolved per-segment animation timing.
type Timing struct {
	Duration time.Duration
	Delay    time.Duration
}

// TimingFor derives duration = round(1000/√s) and delay = max(1, round(100/√s))
// with s clamped to [1, 100], unless overridden.
func TimingFor(o Options) Timing {
	s := typewriter.NormalizedSpeed(o.Speed, 1, 100)
	root := math.Sqrt(s)

	var t Timing
	if typewriter.Valid(o.FadeDuration) {
		t.Duration = max(MinFadeDuration, ms(*o.FadeDuration))
	} else {
		t.Duration = ms(math.Round(1000 / root))
	}
	if typewriter.Valid(o.SegmentDelay) {
		t.Delay = max(time.Millisecond, ms(*o.SegmentDelay))
	} else {
		t.Delay = ms(math.Max(1, math.Round(100/root)))
	}
	return t
}

func ms(v float64) time.Duration {
	return time.Duration(v * float64(time.Millisecond))
}

var spaceSplit = regexp.MustCompile(`\s+`)

// Split segments text at word boundaries (Unicode word segmentation). Input
// that is not valid UTF-8 falls back to splitting on whitespace runs.
func Split(text string) []Segment {
	return splitFrom(text, 0)
}

func splitFrom(text string, start int) []Segment {
	if text == "" {
		return nil
	}
	var parts []string
	if utf8.ValidString(text) {
		state := -1
		rest := text
		var word string
		for len(rest) > 0 {
			word, rest, state = uniseg.FirstWordInString(rest, state)
			parts = append(parts, word)
		}
	} else {
		parts = splitSpaces(text)
	}

	segs := make([]Segment, 0, len(parts))
	for i, p := range parts {
		segs = append(segs, Segment{Text: p, Index: start + i, Space: isSpace(p)})
	}
	return segs
}

// splitSpaces keeps the whitespace runs as their own segments and drops
// empty pieces.
func splitSpaces(text string) []string {
	var parts []string
	last := 0
	for _, loc := range spaceSplit.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			parts = append(parts, text[last:loc[0]])
		}
		parts = append(parts, text[loc[0]:loc[1]])
		last = loc[1]
	}
	if last < len(text) {
		parts = append(parts, text[last:])
	}
	return parts
}

func isSpace(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// SegmentHTML renders one segment span. text must already be escaped markup.
func SegmentHTML(text string, index int, space bool, t Timing) string {
	class := "fade-segment"
	if space {
		class += " fade-segment-space"
	}
	return fmt.Sprintf(
		`<span class="%s" style="animation-duration: %dms; animation-delay: %dms; animation-name: fadeIn; animation-fill-mode: forwards; animation-timing-function: ease-out;">%s</span>`,
		class, t.Duration.Milliseconds(), (time.Duration(index) * t.Delay).Milliseconds(), text)
}

// RenderHTML lays out processed markup for fade mode. Text blocks are split
// into segments; complex blocks fade in as a single unit so their markup is
// never split. Segment indices run across the whole document.
func RenderHTML(content string, t Timing) (string, []Segment) {
	bs := blocks.Parse(content)
	var sb strings.Builder
	var all []Segment
	for _, b := range bs {
		sb.WriteString(b.Prefix)
		switch {
		case b.Complex:
			idx := len(all)
			all = append(all, Segment{Text: b.Content, Index: idx})
			sb.WriteString(SegmentHTML(b.Markup, idx, false, t))
		case b.Raw() && blocks.HasMarkup(b.Content):
			// Unparsed markup cannot be split without cutting tags.
			idx := len(all)
			all = append(all, Segment{Text: b.Content, Index: idx})
			sb.WriteString(SegmentHTML(b.Markup, idx, false, t))
		default:
			segs := splitFrom(b.Content, len(all))
			for _, s := range segs {
				sb.WriteString(SegmentHTML(html.EscapeString(s.Text), s.Index, s.Space, t))
			}
			all = append(all, segs...)
		}
		sb.WriteString(b.Suffix)
	}
	return sb.String(), all
}

// Fader holds the segments of the current run and reports completion once
// per run.
type Fader struct {
	mu         sync.Mutex
	opts       Options
	onComplete func(string)

	text      string
	html      string
	segments  []Segment
	completed bool
}

// NewFader creates a fader. onComplete may be nil.
func NewFader(opts Options, onComplete func(text string)) *Fader {
	return &Fader{opts: opts, onComplete: onComplete}
}

// Start replaces the previous segments and signals completion immediately.
func (f *Fader) Start(text string) {
	f.mu.Lock()
	f.text = text
	f.html, f.segments = RenderHTML(text, TimingFor(f.opts))
	if text == "" {
		f.html, f.segments = "", nil
	}
	f.completed = false
	f.mu.Unlock()
	f.markComplete()
}

// Reset discards the current run.
func (f *Fader) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text, f.html, f.segments, f.completed = "", "", nil, false
}

func (f *Fader) markComplete() {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	text := f.text
	f.mu.Unlock()
	if f.onComplete != nil {
		f.onComplete(text)
	}
}

// HTML returns the segmented markup of the current run.
func (f *Fader) HTML() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.html
}

// Segments returns the segments of the current run.
func (f *Fader) Segments() []Segment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.segments
}

// Complete reports whether completion has been signalled.
func (f *Fader) Complete() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}
