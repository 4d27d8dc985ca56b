package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samsaffron/buddy-render/internal/message"
	"github.com/samsaffron/buddy-render/internal/render/typewriter"
)

type playKeyMap struct {
	Pause   key.Binding
	Skip    key.Binding
	Restart key.Binding
	Quit    key.Binding
}

func (k playKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Skip, k.Restart, k.Quit}
}

func (k playKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var playKeys = playKeyMap{
	Pause:   key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause")),
	Skip:    key.NewBinding(key.WithKeys("s", "enter"), key.WithHelp("s", "skip")),
	Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// frameMsg drives the message's animation frames.
type frameMsg time.Time

func frameTick() tea.Cmd {
	return tea.Tick(typewriter.FrameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// PlayModel animates one message in the terminal. The message must be
// built with Frames so the model can step its animation from the event
// loop.
type PlayModel struct {
	msg    *message.Message
	frames *typewriter.ManualFrames
	st     *Styles

	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model

	width  int
	ready  bool
	paused bool
	events []message.Event
}

// NewPlayModel creates a model for msg. The message is switched to
// streaming so the first render starts the animation.
func NewPlayModel(msg *message.Message, frames *typewriter.ManualFrames, st *Styles) *PlayModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = st.Spinner

	m := &PlayModel{
		msg:      msg,
		frames:   frames,
		st:       st,
		viewport: viewport.New(DefaultWidth, 20),
		spinner:  s,
		help:     help.New(),
		width:    DefaultWidth,
	}
	msg.OnEvent(func(ev message.Event) {
		m.events = append(m.events, ev)
	})
	msg.SetStreaming(true)
	return m
}

// Frames returns the frame source the model steps.
func (m *PlayModel) Frames() *typewriter.ManualFrames {
	return m.frames
}

// Events returns the events the message emitted so far.
func (m *PlayModel) Events() []message.Event {
	return m.events
}

// Init starts the animation.
func (m *PlayModel) Init() tea.Cmd {
	m.refresh()
	return tea.Batch(frameTick(), m.spinner.Tick)
}

// Update handles frames, keys and resizes.
func (m *PlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frames.Step(time.Time(msg))
		m.refresh()
		return m, frameTick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, playKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, playKeys.Pause):
			m.togglePause()
		case key.Matches(msg, playKeys.Skip):
			m.msg.Skip()
		case key.Matches(msg, playKeys.Restart):
			m.restart()
		}
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		m.ready = true
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *PlayModel) togglePause() {
	if m.msg.Complete() {
		return
	}
	if m.paused {
		m.msg.Resume()
	} else {
		m.msg.Pause()
	}
	m.paused = !m.paused
}

func (m *PlayModel) restart() {
	m.paused = false
	m.events = nil
	m.msg.SetStreaming(false)
	m.msg.SetStreaming(true)
}

// refresh re-renders the message into the viewport, following the tail
// while the animation runs.
func (m *PlayModel) refresh() {
	m.viewport.SetContent(HTMLToText(m.msg.Render(), m.st, m.width))
	if !m.msg.Complete() {
		m.viewport.GotoBottom()
	}
}

// Status describes the animation state for the footer.
func (m *PlayModel) Status() string {
	switch {
	case m.msg.Complete():
		return "done"
	case m.paused:
		return "paused"
	}
	if st, i := m.msg.State(); st == message.StateAnimating {
		return fmt.Sprintf("typing part %d", i+1)
	}
	return "typing"
}

// View renders the viewport and footer.
func (m *PlayModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	status := m.Status()
	if status != "done" && status != "paused" {
		sb.WriteString(m.spinner.View() + " ")
	}
	sb.WriteString(m.st.Footer.Render(status + "  "))
	sb.WriteString(m.help.View(playKeys))
	return sb.String()
}
