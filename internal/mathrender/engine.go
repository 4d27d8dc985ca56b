// Package mathrender is the process-wide math engine: TeX source in, MathML
// markup out. Like the highlighter it loads once and is shared read-only.
package mathrender

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samsaffron/buddy-render/internal/logging"
)

// ErrNotReady is returned by RenderToString before the engine has loaded.
var ErrNotReady = errors.New("mathrender: engine not ready")

// Renderer turns a TeX expression into markup. Implementations return an
// error for expressions they cannot render.
type Renderer interface {
	RenderToString(expr string, display bool) (string, error)
}

// Engine is the built-in TeX to MathML renderer.
type Engine struct {
	mu       sync.Mutex
	ready    bool
	inflight chan struct{}
	loadErr  error
	hook     func(context.Context) error
}

// New returns an engine that must be loaded before use.
func New() *Engine {
	return &Engine{}
}

// NewReady returns an engine that can render immediately.
func NewReady() *Engine {
	return &Engine{ready: true}
}

// WithLoadHook sets work that runs during Load. Used by hosts that stage
// the engine behind other startup work.
func (e *Engine) WithLoadHook(fn func(context.Context) error) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hook = fn
	return e
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the shared engine.
func Default() *Engine {
	defaultOnce.Do(func() {
		defaultEngine = New()
	})
	return defaultEngine
}

// Ready reports whether RenderToString can be used.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Load readies the engine. Concurrent callers share one in-flight load.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	if e.ready {
		e.mu.Unlock()
		return nil
	}
	done := e.inflight
	if done == nil {
		done = make(chan struct{})
		e.inflight = done
		go e.load(done)
	}
	e.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ready {
		return nil
	}
	return e.loadErr
}

func (e *Engine) load(done chan struct{}) {
	defer close(done)
	e.mu.Lock()
	hook := e.hook
	e.mu.Unlock()

	var err error
	if hook != nil {
		err = hook(context.Background())
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.inflight = nil
	if err != nil {
		e.loadErr = fmt.Errorf("load math engine: %w", err)
		logging.For("mathrender").WithError(err).Warn("math engine load failed")
		return
	}
	e.ready = true
	e.loadErr = nil
}

// RenderToString renders expr. Display mode wraps the result the way block
// equations are presented.
func (e *Engine) RenderToString(expr string, display bool) (string, error) {
	if !e.Ready() {
		return "", ErrNotReady
	}
	mathml, err := toMathML(expr, display)
	if err != nil {
		return "", err
	}
	if display {
		return `<span class="katex-display"><span class="katex">` + mathml + `</span></span>`, nil
	}
	return `<span class="katex">` + mathml + `</span>`, nil
}
