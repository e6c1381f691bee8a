package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"covmark/internal/driver"
	"covmark/internal/report"
)

type watchModel struct {
	title   string
	phases  <-chan driver.PhaseEvent
	updates <-chan driver.Update
	spinner spinner.Model
	prog    progress.Model

	phase   string
	index   *report.Index
	lastErr error
	lastAt  time.Time
	swaps   int
	width   int
	done    bool
}

type phaseMsg driver.PhaseEvent
type updateMsg driver.Update
type doneMsg struct{}

// NewWatchModel returns a Bubble Tea model that shows refresh phases and
// the overview of the current index. It quits when updates is closed or
// on q / ctrl+c.
func NewWatchModel(title string, phases <-chan driver.PhaseEvent, updates <-chan driver.Update) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	return &watchModel{
		title:   title,
		phases:  phases,
		updates: updates,
		spinner: sp,
		prog:    prog,
		width:   80,
	}
}

func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForPhase(), m.listenForUpdate())
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case phaseMsg:
		cmd := m.applyPhase(driver.PhaseEvent(msg))
		return m, tea.Batch(cmd, m.listenForPhase())
	case updateMsg:
		m.applyUpdate(driver.Update(msg))
		return m, m.listenForUpdate()
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progressModel, cmd := m.prog.Update(msg)
		m.prog = progressModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *watchModel) applyPhase(ev driver.PhaseEvent) tea.Cmd {
	switch ev.Status {
	case driver.PhaseStart:
		m.phase = ev.Name
		if ev.Name == driver.PhasePragma {
			return m.prog.SetPercent(0)
		}
	case driver.PhaseProgress:
		if ev.Total > 0 {
			return m.prog.SetPercent(float64(ev.Done) / float64(ev.Total))
		}
	case driver.PhaseEnd:
		if ev.Name == driver.PhaseSwap {
			m.phase = ""
		}
	}
	return nil
}

func (m *watchModel) applyUpdate(u driver.Update) {
	m.lastAt = u.At
	m.lastErr = u.Err
	if u.Changed {
		m.swaps++
	}
	m.index = u.Index
	if u.Err != nil {
		m.phase = ""
	}
}

func (m *watchModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.phase != "" {
		header = fmt.Sprintf("%s (%s)", header, m.phase)
	}
	if m.done {
		header = "done: " + header
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")
	if !m.lastAt.IsZero() {
		fmt.Fprintf(&b, "last check %s, %d reloads\n", m.lastAt.Local().Format(time.TimeOnly), m.swaps)
	}
	if m.lastErr != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(truncate(m.lastErr.Error(), m.width)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.index == nil {
		b.WriteString("waiting for report...\n")
	} else {
		b.WriteString(RenderOverview(m.index.Overview(), TableOpts{Width: m.width, Color: true, Path: m.index.Path}))
	}
	if m.phase == driver.PhasePragma {
		b.WriteString("\n")
		b.WriteString(m.prog.View())
		b.WriteString("\n")
	}
	return b.String()
}

func (m *watchModel) listenForPhase() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.phases
		if !ok {
			return nil
		}
		return phaseMsg(ev)
	}
}

func (m *watchModel) listenForUpdate() tea.Cmd {
	return func() tea.Msg {
		u, ok := <-m.updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(u)
	}
}
