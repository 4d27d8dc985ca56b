// Package highlight is the process-wide syntax highlighter. It is loaded once
// and shared read-only by every message; concurrent Load calls share one
// in-flight load.
package highlight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/samsaffron/buddy-render/internal/logging"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github-dark"

// ClassPrefix prefixes every token class in highlighted output.
const ClassPrefix = "hljs-"

var (
	// ErrNotLoaded is returned by Highlight before Load has completed.
	ErrNotLoaded = errors.New("highlight: highlighter not loaded")
	// ErrAlreadyLoaded is returned when configuring a loaded highlighter.
	ErrAlreadyLoaded = errors.New("highlight: highlighter already loaded")
)

// LoadFunc performs the one-time load work. It runs once per successful
// load; a failed load may be retried by the next Load call.
type LoadFunc func(ctx context.Context) error

// Highlighter renders code to class-annotated HTML.
type Highlighter struct {
	mu        sync.Mutex
	styleName string
	hook      LoadFunc

	loaded    bool
	inflight  chan struct{}
	loadErr   error
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// Option configures a Highlighter.
type Option func(*Highlighter)

// WithLoadHook runs fn as part of the load, before the highlighter becomes
// ready.
func WithLoadHook(fn LoadFunc) Option {
	return func(h *Highlighter) {
		h.hook = fn
	}
}

// New creates an unloaded highlighter using the named chroma style.
func New(style string, opts ...Option) *Highlighter {
	if style == "" {
		style = DefaultStyle
	}
	h := &Highlighter{styleName: style}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var (
	defaultOnce sync.Once
	defaultHL   *Highlighter
)

// Default returns the shared highlighter.
func Default() *Highlighter {
	defaultOnce.Do(func() {
		defaultHL = New(DefaultStyle)
	})
	return defaultHL
}

// SetStyle changes the style of a highlighter that has not loaded yet.
func (h *Highlighter) SetStyle(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loaded || h.inflight != nil {
		return ErrAlreadyLoaded
	}
	if name != "" {
		h.styleName = name
	}
	return nil
}

// Loaded reports whether Highlight can be used.
func (h *Highlighter) Loaded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loaded
}

// Load makes the highlighter ready. Concurrent callers wait on the same load.
// A cancelled ctx stops this caller waiting; the load itself continues.
func (h *Highlighter) Load(ctx context.Context) error {
	h.mu.Lock()
	if h.loaded {
		h.mu.Unlock()
		return nil
	}
	done := h.inflight
	if done == nil {
		done = make(chan struct{})
		h.inflight = done
		go h.load(done)
	}
	h.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loaded {
		return nil
	}
	return h.loadErr
}

func (h *Highlighter) load(done chan struct{}) {
	defer close(done)
	log := logging.For("highlight")

	h.mu.Lock()
	name := h.styleName
	hook := h.hook
	h.mu.Unlock()

	var err error
	if hook != nil {
		err = hook(context.Background())
	}
	style := styles.Get(name)
	if style == nil {
		style = styles.Fallback
	}
	// Warm the lexer registry so the first Highlight does not pay for it.
	_ = lexers.Names(false)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.inflight = nil
	if err != nil {
		h.loadErr = fmt.Errorf("load highlighter: %w", err)
		log.WithError(err).Warn("highlighter load failed")
		return
	}
	h.style = style
	h.formatter = chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.ClassPrefix(ClassPrefix),
		chromahtml.PreventSurroundingPre(true),
	)
	h.loaded = true
	h.loadErr = nil
	log.WithField("style", style.Name).Debug("highlighter loaded")
}

// Supports reports whether lang names a known lexer.
func (h *Highlighter) Supports(lang string) bool {
	return lang != "" && lexers.Get(lang) != nil
}

// Highlight renders code as HTML token spans. Unknown languages fall back to
// content analysis.
func (h *Highlighter) Highlight(code, lang string) (string, error) {
	h.mu.Lock()
	loaded, formatter, style := h.loaded, h.formatter, h.style
	h.mu.Unlock()
	if !loaded {
		return "", ErrNotLoaded
	}

	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", lang, err)
	}
	var sb strings.Builder
	if err := formatter.Format(&sb, style, iterator); err != nil {
		return "", fmt.Errorf("format %s: %w", lang, err)
	}
	return sb.String(), nil
}

// CSS returns the stylesheet for the loaded style's token classes.
func (h *Highlighter) CSS() (string, error) {
	h.mu.Lock()
	loaded, formatter, style := h.loaded, h.formatter, h.style
	h.mu.Unlock()
	if !loaded {
		return "", ErrNotLoaded
	}
	var sb strings.Builder
	if err := formatter.WriteCSS(&sb, style); err != nil {
		return "", err
	}
	return sb.String(), nil
}
