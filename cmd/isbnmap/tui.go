package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// EventKind classifies a server event for the status screen.
type EventKind string

const (
	EventRequest EventKind = "request"
	EventReload  EventKind = "reload"
	EventError   EventKind = "error"
)

// Event is one line of server activity.
type Event struct {
	Kind   EventKind
	Detail string
}

const maxLogLines = 12

var (
	accentColor = lipgloss.Color("#3b82f6")
	errColor    = lipgloss.Color("#ef4444")
	dimColor    = lipgloss.Color("#94a3b8")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	addrStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff"))

	logStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	reloadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10b981"))

	errLineStyle = lipgloss.NewStyle().
			Foreground(errColor)

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(1, 2)

	hintStyle = lipgloss.NewStyle().
			Foreground(dimColor).
			MarginTop(1)
)

type eventMsg Event

type serverErrMsg struct{ err error }

type statusModel struct {
	addr     string
	upstream string
	spinner  spinner.Model
	started  time.Time

	requests int
	reloads  int
	log      []string

	err error
}

func newStatusModel(addr, upstream string) statusModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)
	return statusModel{
		addr:     addr,
		upstream: upstream,
		spinner:  sp,
		started:  time.Now(),
	}
}

func (m statusModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case eventMsg:
		switch msg.Kind {
		case EventRequest:
			m.requests++
			m.push(logStyle.Render("GET " + msg.Detail))
		case EventReload:
			m.reloads++
			m.push(reloadStyle.Render("reload: " + msg.Detail))
		case EventError:
			m.push(errLineStyle.Render(msg.Detail))
		}
		return m, nil

	case serverErrMsg:
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *statusModel) push(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

func (m statusModel) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("isbnmap serve"))
	b.WriteString("\n\n")
	b.WriteString(m.spinner.View())
	b.WriteString("serving on ")
	b.WriteString(addrStyle.Render("http://" + m.addr))
	b.WriteString("\n")
	if m.upstream != "" {
		b.WriteString(logStyle.Render("proxying /data/ to " + m.upstream))
		b.WriteString("\n")
	}
	b.WriteString(logStyle.Render(fmt.Sprintf(
		"%d requests, %d reloads, up %s",
		m.requests, m.reloads, time.Since(m.started).Round(time.Second),
	)))
	b.WriteString("\n")

	if len(m.log) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(m.log, "\n"))
		b.WriteString("\n")
	}

	out := frameStyle.Render(b.String()) + "\n" + hintStyle.Render("press q to quit")
	if m.err != nil {
		out += "\n" + errLineStyle.Render(m.err.Error())
	}
	return out
}

// runTUI drives the status screen until the user quits, the context is
// cancelled, or the server fails. Server events stream in through p.Send.
func runTUI(ctx context.Context, cancel context.CancelFunc, s *mapServer, addr string, errCh <-chan error) error {
	p := tea.NewProgram(newStatusModel(addr, s.cfg.Upstream))

	s.events = func(ev Event) { p.Send(eventMsg(ev)) }

	go func() {
		select {
		case <-ctx.Done():
			p.Quit()
		case err := <-errCh:
			p.Send(serverErrMsg{err: err})
		}
	}()

	final, err := p.Run()
	cancel()
	if err != nil {
		return err
	}
	if m, ok := final.(statusModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
