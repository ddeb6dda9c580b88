package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ap-task/debug"
	"ap-task/experiment"
	"ap-task/theme"
	"ap-task/widgets"
)

const maxWidth = 72

// SessionFunc runs the whole session against the bridge
type SessionFunc func(ctx context.Context) error

type Model struct {
	Bridge *Bridge
	Theme  *theme.Theme

	run    SessionFunc
	ctx    context.Context
	cancel context.CancelFunc

	keys  keyMap
	help  help.Model
	width int

	done    bool
	aborted bool
	err     error
}

type UpdateMsg struct{}

// SessionDoneMsg arrives when SessionFunc returns
type SessionDoneMsg struct {
	Err error
}

func NewModel(ctx context.Context, bridge *Bridge, th *theme.Theme, run SessionFunc) Model {
	ctx, cancel := context.WithCancel(ctx)
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(th.Accent())
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(th.Muted())
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(th.Surface())
	return Model{
		Bridge: bridge,
		Theme:  th,
		run:    run,
		ctx:    ctx,
		cancel: cancel,
		keys:   newKeyMap(),
		help:   h,
		width:  maxWidth,
	}
}

func ListenForUpdates(bridge *Bridge) tea.Cmd {
	return func() tea.Msg {
		<-bridge.UpdateChan
		return UpdateMsg{}
	}
}

func RunSession(ctx context.Context, run SessionFunc) tea.Cmd {
	return func() tea.Msg {
		return SessionDoneMsg{Err: run(ctx)}
	}
}

// Err is what the session returned, once it has
func (m Model) Err() error {
	return m.err
}

func (m Model) Aborted() bool {
	return m.aborted
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Bridge),
		RunSession(m.ctx, m.run),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = min(msg.Width-4, maxWidth)
		m.help.Width = m.width

	case tea.KeyMsg:
		keys := m.keys.forView(m.Bridge.Snapshot(), m.done)
		switch {
		case key.Matches(msg, keys.Abort):
			debug.Log("tui", "abort requested")
			m.aborted = true
			m.cancel()
			if m.done {
				return m, tea.Quit
			}
		case key.Matches(msg, keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, keys.Continue):
			m.Bridge.Confirm()
		case key.Matches(msg, keys.Play):
			m.Bridge.TogglePlayback()
		case key.Matches(msg, keys.Left):
			m.Bridge.Nudge(-1)
		case key.Matches(msg, keys.Right):
			m.Bridge.Nudge(1)
		case key.Matches(msg, keys.BigLeft):
			m.Bridge.Nudge(-10)
		case key.Matches(msg, keys.BigRight):
			m.Bridge.Nudge(10)
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Bridge)

	case SessionDoneMsg:
		m.done = true
		m.err = msg.Err
		debug.Log("tui", "session done: %v", msg.Err)
		if m.aborted {
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m Model) View() string {
	v := m.Bridge.Snapshot()
	th := m.Theme

	titleStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())

	var out strings.Builder
	out.WriteString("\n")

	if v.ScreenVisible {
		s := v.Screen
		// the pitch screen shows its note in a box instead
		if s.Title != "" && s.ID != experiment.ScreenPitch {
			style := titleStyle
			if s.ID == experiment.ScreenFatal {
				style = style.Foreground(th.Error())
			}
			out.WriteString(style.Render(s.Title))
			out.WriteString("\n\n")
		}
		if len(s.Body) > 0 {
			out.WriteString(widgets.RenderParagraphs(s.Body, m.width, th))
			out.WriteString("\n\n")
		}

		switch s.ID {
		case experiment.ScreenVolume:
			out.WriteString(m.volumeView(v))
		case experiment.ScreenPitch:
			out.WriteString(m.pitchView(v))
		}

		if s.Button != "" && (s.ID != experiment.ScreenPitch || v.ResponseVisible) {
			out.WriteString(widgets.RenderButton(s.Button, v.ControlEnabled, th))
			out.WriteString("\n")
		}
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render(m.help.View(m.keys.forView(v, m.done))))
	return out.String()
}

func (m Model) volumeView(v View) string {
	th := m.Theme
	state := fmt.Sprintf("%c paused", th.Symbols.Paused)
	if v.Playing {
		state = fmt.Sprintf("%c playing", th.Symbols.Playing)
	}
	meterWidth := max(m.width-6, 10)
	return lipgloss.NewStyle().Foreground(th.FG()).Render(state) + "\n" +
		widgets.RenderMeter(v.Gain, meterWidth, th) + "\n\n"
}

func (m Model) pitchView(v View) string {
	th := m.Theme
	note := lipgloss.NewStyle().
		Foreground(th.FG()).
		Bold(true).
		Padding(1, 4).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.Accent()).
		Render(v.Note)

	var out strings.Builder
	out.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, note))
	out.WriteString("\n\n")
	if v.ResponseVisible {
		pos := widgets.Position(v.Value, v.Min, v.Max)
		out.WriteString(widgets.RenderSlider(pos, m.width, th))
		out.WriteString("\n\n")
		countdown := lipgloss.NewStyle().Foreground(th.Muted())
		if v.Countdown <= 5 {
			countdown = countdown.Foreground(th.Warning())
		}
		out.WriteString(countdown.Render(fmt.Sprintf("Time remaining: %d", v.Countdown)))
		out.WriteString("\n\n")
	}
	return out.String()
}
