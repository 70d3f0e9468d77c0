// Package tui provides the BubbleTea-based live view of the danmaku daemon.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/danmaq/internal/dbus"
)

// DefaultInterval is the status polling period.
const DefaultInterval = 500 * time.Millisecond

// StatusSource queries the daemon. *dbus.Client satisfies it.
type StatusSource interface {
	GetStatus(ctx context.Context) (dbus.Status, error)
}

// Model is the watch view model.
type Model struct {
	source   StatusSource
	closedCh <-chan dbus.ClosedEvent
	interval time.Duration

	keys KeyMap
	help help.Model

	status    dbus.Status
	err       error
	closed    int
	lastClose *dbus.ClosedEvent
	polls     int
}

type tickMsg struct{}

type statusResultMsg struct {
	status dbus.Status
	err    error
}

type closedMsg struct {
	event dbus.ClosedEvent
	ok    bool
}

// New creates a watch model polling source. closedCh may be nil.
func New(source StatusSource, closedCh <-chan dbus.ClosedEvent) Model {
	return Model{
		source:   source,
		closedCh: closedCh,
		interval: DefaultInterval,
		keys:     DefaultKeyMap(),
		help:     help.New(),
	}
}

// Init starts polling and the closed-signal subscription.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.waitClosed)
}

func (m Model) fetch() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := m.source.GetStatus(ctx)
	return statusResultMsg{status: st, err: err}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m Model) waitClosed() tea.Msg {
	if m.closedCh == nil {
		return nil
	}
	ev, ok := <-m.closedCh
	return closedMsg{event: ev, ok: ok}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			return m, m.fetch
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, m.fetch

	case statusResultMsg:
		m.polls++
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
		}
		return m, m.tick()

	case closedMsg:
		if !msg.ok {
			m.closedCh = nil
			return m, nil
		}
		m.closed++
		ev := msg.event
		m.lastClose = &ev
		return m, m.waitClosed
	}

	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(8)
	usedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	freeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// View renders the TUI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("danmaq"))
	if m.status.StartedAt != 0 {
		b.WriteString(freeStyle.Render("  started " + humanize.Time(m.status.Started())))
	}
	b.WriteString("\n\n")

	if m.polls == 0 {
		b.WriteString("Connecting...\n")
	} else {
		b.WriteString(labelStyle.Render("flying") + renderCells(m.status.Flying) + "\n")
		b.WriteString(labelStyle.Render("static") + renderCells(m.status.Static) + "\n\n")

		fmt.Fprintf(&b, "rows %d  flying %d/%d  static %d/%d  stacked %d  active %d\n",
			len(m.status.Flying),
			m.status.FlyingUsed(), len(m.status.Flying),
			m.status.StaticUsed(), len(m.status.Static),
			m.status.Stacked, m.status.Active,
		)
		if m.closed > 0 && m.lastClose != nil {
			fmt.Fprintf(&b, "closed %s  last %s (%s)\n",
				humanize.Comma(int64(m.closed)), m.lastClose.ID, m.lastClose.Position.String())
		}
	}

	if m.err != nil {
		b.WriteString(errStyle.Render("error: "+m.err.Error()) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

// renderCells draws one glyph per slot, filled when occupied.
func renderCells(cells []bool) string {
	if len(cells) == 0 {
		return freeStyle.Render("(no rows)")
	}
	var b strings.Builder
	for _, used := range cells {
		if used {
			b.WriteString(usedStyle.Render("█"))
		} else {
			b.WriteString(freeStyle.Render("·"))
		}
	}
	return b.String()
}

// Run starts the watch view until the user quits.
func Run(source StatusSource, closedCh <-chan dbus.ClosedEvent) error {
	p := tea.NewProgram(New(source, closedCh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
