package ui

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	// DefaultWidth is used when the terminal size is unknown.
	DefaultWidth = 80
	// MinWidth is the narrowest wrap width used for a real terminal.
	MinWidth = 40
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Width returns the width of the terminal on f, or DefaultWidth.
func Width(f *os.File) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	if width < MinWidth {
		return MinWidth
	}
	return width
}

// StylesFor returns styles for f, dropping colors when f is not a terminal.
func StylesFor(f *os.File) *Styles {
	if !IsTerminal(f) {
		return PlainStyles(f)
	}
	return NewStyles(f, termenv.WithProfile(termenv.NewOutput(f).EnvColorProfile()))
}

// Repainter redraws a block of output in place. Each Paint erases what the
// previous Paint wrote.
type Repainter struct {
	output io.Writer
	width  int
	lines  int
}

// NewRepainter creates a repainter for output wrapping at width columns.
// A width of 0 assumes no wrapping.
func NewRepainter(output io.Writer, width int) *Repainter {
	return &Repainter{output: output, width: width}
}

// Paint replaces the previous frame with s.
func (r *Repainter) Paint(s string) error {
	if err := r.clear(r.lines); err != nil {
		return err
	}
	if s != "" && !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	if _, err := io.WriteString(r.output, s); err != nil {
		return err
	}
	r.lines = CountLines(s, r.width)
	return nil
}

// Forget keeps the last frame on screen; the next Paint starts below it.
func (r *Repainter) Forget() {
	r.lines = 0
}

func (r *Repainter) clear(n int) error {
	if n <= 0 {
		return nil
	}
	seq := ansi.CursorUp(n) + ansi.CursorHorizontalAbsolute(1) + ansi.EraseDisplay(0)
	_, err := io.WriteString(r.output, seq)
	return err
}

// CountLines returns how many terminal rows s occupies at width, ignoring
// escape sequences. A trailing newline does not start a new row.
func CountLines(s string, width int) int {
	if s == "" {
		return 0
	}

	lines := strings.Split(s, "\n")
	total := 0
	for i, line := range lines {
		if i == len(lines)-1 && line == "" {
			continue
		}
		w := ansi.StringWidth(line)
		if w == 0 || width <= 0 {
			total++
			continue
		}
		total += (w + width - 1) / width
	}
	return total
}
