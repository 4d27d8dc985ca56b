package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme defines the color palette of the terminal preview.
type Theme struct {
	Primary   lipgloss.Color // headings, code language labels
	Secondary lipgloss.Color // links, borders
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color // emphasis, math source
	Muted     lipgloss.Color // footers, help, placeholders
	Text      lipgloss.Color
	Spinner   lipgloss.Color

	DiffAddBg    lipgloss.Color
	DiffRemoveBg lipgloss.Color
}

// DefaultTheme returns the gruvbox palette.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:      lipgloss.Color("#b8bb26"),
		Secondary:    lipgloss.Color("#83a598"),
		Success:      lipgloss.Color("#b8bb26"),
		Error:        lipgloss.Color("#fb4934"),
		Warning:      lipgloss.Color("#fabd2f"),
		Muted:        lipgloss.Color("#928374"),
		Text:         lipgloss.Color("#ebdbb2"),
		Spinner:      lipgloss.Color("#d3869b"),
		DiffAddBg:    lipgloss.Color("#1d2021"),
		DiffRemoveBg: lipgloss.Color("#1d2021"),
	}
}

var currentTheme = DefaultTheme()

// GetTheme returns the active theme.
func GetTheme() *Theme {
	return currentTheme
}

// SetTheme replaces the active theme. Not safe to call while rendering.
func SetTheme(t *Theme) {
	if t == nil {
		t = DefaultTheme()
	}
	currentTheme = t
	rendererCache.Clear()
}

// Status indicators
const (
	SuccessIcon = "✓"
	FailIcon    = "✗"
)

// Styles are lipgloss styles bound to one output's renderer.
type Styles struct {
	renderer *lipgloss.Renderer
	theme    *Theme

	Title     lipgloss.Style
	Heading   lipgloss.Style
	Muted     lipgloss.Style
	Bold      lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Emphasis  lipgloss.Style
	Link      lipgloss.Style
	CodeLabel lipgloss.Style
	Code      lipgloss.Style
	Math      lipgloss.Style
	Spinner   lipgloss.Style
	Footer    lipgloss.Style

	DiffAdd    lipgloss.Style
	DiffRemove lipgloss.Style
	DiffHeader lipgloss.Style
}

// NewStyles creates styles for output using the active theme.
func NewStyles(output io.Writer, opts ...termenv.OutputOption) *Styles {
	return NewStylesWithTheme(output, currentTheme, opts...)
}

// NewStylesWithTheme creates styles for output with a specific theme.
// Output options such as termenv.WithProfile pin the color profile.
func NewStylesWithTheme(output io.Writer, theme *Theme, opts ...termenv.OutputOption) *Styles {
	r := lipgloss.NewRenderer(output, opts...)

	return &Styles{
		renderer: r,
		theme:    theme,

		Title:     r.NewStyle().Bold(true).Foreground(theme.Text),
		Heading:   r.NewStyle().Bold(true).Foreground(theme.Primary),
		Muted:     r.NewStyle().Foreground(theme.Muted),
		Bold:      r.NewStyle().Bold(true),
		Success:   r.NewStyle().Foreground(theme.Success),
		Error:     r.NewStyle().Foreground(theme.Error),
		Emphasis:  r.NewStyle().Italic(true).Foreground(theme.Warning),
		Link:      r.NewStyle().Underline(true).Foreground(theme.Secondary),
		CodeLabel: r.NewStyle().Bold(true).Foreground(theme.Secondary),
		Code:      r.NewStyle().Foreground(theme.Primary),
		Math:      r.NewStyle().Foreground(theme.Warning),
		Spinner:   r.NewStyle().Foreground(theme.Spinner),
		Footer:    r.NewStyle().Foreground(theme.Muted),

		DiffAdd:    r.NewStyle().Foreground(theme.Success).Background(theme.DiffAddBg),
		DiffRemove: r.NewStyle().Foreground(theme.Error).Background(theme.DiffRemoveBg),
		DiffHeader: r.NewStyle().Bold(true).Foreground(theme.Secondary),
	}
}

// DefaultStyles returns styles for stderr.
func DefaultStyles() *Styles {
	return NewStyles(os.Stderr)
}

// PlainStyles returns styles that never emit escape sequences.
func PlainStyles(output io.Writer) *Styles {
	return NewStyles(output, termenv.WithProfile(termenv.Ascii))
}

// Theme returns the theme used by these styles
func (s *Styles) Theme() *Theme {
	return s.theme
}

// FormatResult returns a styled success/fail result
func (s *Styles) FormatResult(success bool, msg string) string {
	if success {
		return s.Success.Render(SuccessIcon+" ") + msg
	}
	return s.Error.Render(FailIcon+" ") + msg
}

// GlamourStyle returns the glamour style for the active theme.
func GlamourStyle() ansi.StyleConfig {
	return GlamourStyleFromTheme(currentTheme)
}

// GlamourStyleFromTheme recolors glamour's dark style with theme.
func GlamourStyleFromTheme(theme *Theme) ansi.StyleConfig {
	primary := string(theme.Primary)
	secondary := string(theme.Secondary)
	warning := string(theme.Warning)
	muted := string(theme.Muted)
	text := string(theme.Text)

	style := glamourstyles.DarkStyleConfig
	style.Document.Color = &text
	style.Heading.Color = &secondary
	style.Strong.Color = &primary
	style.Emph.Color = &warning
	style.Link.Color = &secondary
	style.LinkText.Color = &primary
	style.Code.Color = &primary
	style.HorizontalRule.Color = &muted
	style.BlockQuote.Color = &warning
	return style
}
