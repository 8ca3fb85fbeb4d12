// Package tui is the live session view: transport, position readout, and the
// transient script-error line. The editor itself stays external; this view
// watches the script file and feeds changes into the candidate buffer.
package tui

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/endrorytm/Topos/internal/clock"
	"github.com/endrorytm/Topos/internal/script"
)

// errDisplayFor is how long a script error stays on screen.
const errDisplayFor = 2 * time.Second

// refreshEvery paces view refreshes and script file polls.
const refreshEvery = 60 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	dirtyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea model for a live session. It also serves as the
// evaluator's error sink: faults land in lastErr and fade out after
// errDisplayFor.
type Model struct {
	sched      *clock.Scheduler
	buf        *script.Buffer
	scriptPath string
	sinkName   string

	mtime   time.Time
	message string
	width   int

	errMu   sync.Mutex
	lastErr string
	errAt   time.Time
}

func NewModel(sched *clock.Scheduler, buf *script.Buffer, scriptPath, sinkName string) *Model {
	return &Model{
		sched:      sched,
		buf:        buf,
		scriptPath: scriptPath,
		sinkName:   sinkName,
	}
}

// Report implements script.ErrorSink. Called from the scheduler goroutine.
func (m *Model) Report(err error) {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	m.lastErr = err.Error()
	m.errAt = time.Now()
}

func (m *Model) currentError() string {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	if m.lastErr == "" || time.Since(m.errAt) > errDisplayFor {
		return ""
	}
	return m.lastErr
}

func (m *Model) Init() tea.Cmd {
	m.reloadScript(true)
	return tick()
}

// reloadScript feeds the script file into the candidate buffer when its
// modification time moved. The next pulse picks the new draft up.
func (m *Model) reloadScript(force bool) {
	info, err := os.Stat(m.scriptPath)
	if err != nil {
		m.message = fmt.Sprintf("cannot stat %s: %v", m.scriptPath, err)
		return
	}
	if !force && info.ModTime().Equal(m.mtime) {
		return
	}
	data, err := os.ReadFile(m.scriptPath)
	if err != nil {
		m.message = fmt.Sprintf("cannot read %s: %v", m.scriptPath, err)
		return
	}
	m.mtime = info.ModTime()
	m.buf.SetCandidate(string(data))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m.reloadScript(false)
		return m, tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.sched.Stop()
			return m, tea.Quit
		case " ":
			if m.sched.Clock().Transport() == clock.TransportRunning {
				m.sched.Stop()
			} else {
				m.sched.Start()
			}
		case "p":
			switch m.sched.Clock().Transport() {
			case clock.TransportRunning:
				m.sched.Pause()
			case clock.TransportPaused:
				m.sched.Start()
			}
		case "+", "=":
			m.sched.Clock().SetBPM(m.sched.Clock().BPM() + 5)
		case "-", "_":
			if bpm := m.sched.Clock().BPM() - 5; bpm >= 1 {
				m.sched.Clock().SetBPM(bpm)
			}
		case "r":
			m.reloadScript(true)
			m.message = "script reloaded"
		}
	}
	return m, nil
}

func (m *Model) View() string {
	c := m.sched.Clock()
	var b strings.Builder

	b.WriteString(titleStyle.Render("TOPOS · live session") + "\n\n")

	b.WriteString(renderTransport(c) + "\n")
	b.WriteString(renderPosition(c) + "\n\n")

	state := "committed"
	style := dimStyle
	if m.buf.Dirty() {
		state = "draft pending"
		style = dirtyStyle
	}
	b.WriteString(fmt.Sprintf("Script: %s  %s  (%d evaluations)\n",
		m.scriptPath, style.Render(state), m.buf.Evaluations()))
	b.WriteString(fmt.Sprintf("Output: %s\n\n", m.sinkName))

	if err := m.currentError(); err != "" {
		b.WriteString(errorStyle.Render(err) + "\n\n")
	} else if m.message != "" {
		b.WriteString(dimStyle.Render(m.message) + "\n\n")
	}

	b.WriteString(helpStyle.Render("space: start/stop • p: pause/resume • +/-: tempo • r: reload • q: quit"))
	return b.String()
}

func renderTransport(c *clock.Clock) string {
	num, den := c.TimeSignature()
	line := fmt.Sprintf("BPM %3.0f • PPQN %d • %d/%d • ", c.BPM(), c.PPQN(), num, den)
	switch c.Transport() {
	case clock.TransportRunning:
		return line + runningStyle.Render("Playing")
	case clock.TransportPaused:
		return line + pausedStyle.Render("Paused")
	default:
		return line + dimStyle.Render("Stopped")
	}
}

// renderPosition draws one cell per beat of the current bar with the playhead
// highlighted.
func renderPosition(c *clock.Clock) string {
	beats, _ := c.TimeSignature()
	current := c.Beat()
	playing := c.Transport() == clock.TransportRunning

	var bar strings.Builder
	bar.WriteString(fmt.Sprintf("Bar %3d  ", c.Bar()))
	for i := 1; i <= beats; i++ {
		cell := " · "
		style := dimStyle
		switch {
		case playing && i == current:
			cell = " ▶ "
			style = runningStyle
		case playing && i < current:
			cell = " █ "
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("#0099FF"))
		}
		bar.WriteString(style.Render(cell))
	}
	bar.WriteString(fmt.Sprintf("  pulse %2d", c.Pulse()))
	return bar.String()
}
