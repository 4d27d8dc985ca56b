// Package content turns raw assistant message text into styled HTML.
//
// Stages run in a fixed order: math, code fences, Markdown, paragraphs, then
// sanitizing. Rendered math and code are stashed behind placeholders after
// their stage so no later stage can re-match them. The pipeline is a pure
// function of its input and the shared highlighter state.
//
// The pipeline does not detect its own output. Running it twice over the same
// text double-wraps everything; callers check guard.IsContentAlreadyRendered
// first.
package content

import (
	"context"
	"errors"

	"github.com/samsaffron/buddy-render/internal/highlight"
	"github.com/samsaffron/buddy-render/internal/logging"
	"github.com/samsaffron/buddy-render/internal/mathrender"
	"github.com/sirupsen/logrus"
)

// Markdown engines.
const (
	EngineRegex    = "regex"
	EngineGoldmark = "goldmark"
)

// Stage is one pipeline step.
type Stage interface {
	Name() string
	Apply(doc *Document)
}

// Highlighter is the code highlighter the code stage calls.
type Highlighter interface {
	Loaded() bool
	Load(ctx context.Context) error
	Highlight(code, lang string) (string, error)
}

// Processor runs the stage sequence. Its output is not valid input:
// callers check guard.IsContentAlreadyRendered before processing text that
// may already be rendered.
type Processor struct {
	engine      string
	highlighter Highlighter
	math        mathrender.Renderer
	sanitize    bool
	stages      []Stage
	log         *logrus.Entry
}

// Option configures a Processor.
type Option func(*Processor)

// WithHighlighter replaces the shared highlighter.
func WithHighlighter(h Highlighter) Option {
	return func(p *Processor) { p.highlighter = h }
}

// WithMath replaces the shared math engine.
func WithMath(r mathrender.Renderer) Option {
	return func(p *Processor) { p.math = r }
}

// WithEngine selects the Markdown engine. Unknown names use the regex engine.
func WithEngine(name string) Option {
	return func(p *Processor) { p.engine = name }
}

// WithSanitize toggles the final sanitize stage (on by default).
func WithSanitize(on bool) Option {
	return func(p *Processor) { p.sanitize = on }
}

// New builds a processor. Without options it uses the shared highlighter,
// the shared math engine and the regex Markdown engine.
func New(opts ...Option) *Processor {
	p := &Processor{
		engine:   EngineRegex,
		sanitize: true,
		log:      logging.For("content"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.highlighter == nil {
		p.highlighter = highlight.Default()
	}
	if p.math == nil {
		p.math = mathrender.Default()
	}

	p.stages = []Stage{
		MathStage{Renderer: p.math, log: p.log},
		CodeStage{Highlighter: p.highlighter, log: p.log},
	}
	if p.engine == EngineGoldmark {
		p.stages = append(p.stages, NewGoldmarkStage(p.log))
	} else {
		p.engine = EngineRegex
		p.stages = append(p.stages, MarkdownStage{}, ParagraphStage{})
	}
	return p
}

// Engine returns the selected Markdown engine.
func (p *Processor) Engine() string {
	return p.engine
}

// Stages returns the stage names in execution order.
func (p *Processor) Stages() []string {
	names := make([]string, 0, len(p.stages)+1)
	for _, s := range p.stages {
		names = append(names, s.Name())
	}
	if p.sanitize {
		names = append(names, "sanitize")
	}
	return names
}

// ProcessSync renders text without waiting for the highlighter: code is
// highlighted only if the highlighter has already loaded.
func (p *Processor) ProcessSync(text string) string {
	if text == "" {
		return ""
	}
	doc := &Document{Text: text}
	for _, s := range p.stages {
		s.Apply(doc)
	}
	doc.Text = doc.Restore(doc.Text)
	if p.sanitize {
		sanitizer.Apply(doc)
	}
	return doc.Text
}

var sanitizer = NewSanitizeStage()

// Process waits for the highlighter before rendering. A failed load falls
// back to unhighlighted code; only ctx cancellation is returned.
func (p *Processor) Process(ctx context.Context, text string) (string, error) {
	if err := p.highlighter.Load(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		p.log.WithError(err).Warn("highlighter unavailable, rendering without it")
	}
	return p.ProcessSync(text), nil
}

// RenderCode renders a single code block exactly as the code stage renders
// the ordinal-th fence of a message. Ordinals start at 1.
func (p *Processor) RenderCode(lang, code string, ordinal int) string {
	return CodeStage{Highlighter: p.highlighter, log: p.log}.Render(lang, code, ordinal)
}
