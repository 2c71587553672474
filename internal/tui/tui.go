package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/agentia/internal/sim"
	"github.com/tatianab/agentia/internal/world"
)

// Stepper advances the simulation by one tick.
type Stepper interface {
	Step(ctx context.Context) (sim.TickRecord, error)
}

// SnapshotFunc copies the world. It is only called between steps.
type SnapshotFunc func() world.Snapshot

type sessionState int

const (
	stateReady sessionState = iota
	stateStepping
	stateDone
	stateError
)

type model struct {
	state     sessionState
	ctx       context.Context
	cancel    context.CancelFunc
	inflight  *sync.WaitGroup // steps whose Cmd has not returned yet
	stepper   Stepper
	snapshot  SnapshotFunc
	world     world.Snapshot
	textInput textinput.Model
	viewport  viewport.Model
	err       error
	tickLog   string
	width     int
	height    int
	stepped   int
	limit     int // 0 means unlimited
	pending   int // ticks still queued by /run
}

var (
	tickStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAF00"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	worldStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

func newModel(ctx context.Context, stepper Stepper, snapshot SnapshotFunc, limit int) model {
	ctx, cancel := context.WithCancel(ctx)
	ti := textinput.New()
	ti.Placeholder = "Enter to step, /run N, /quit"
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 40

	return model{
		state:     stateReady,
		ctx:       ctx,
		cancel:    cancel,
		inflight:  &sync.WaitGroup{},
		stepper:   stepper,
		snapshot:  snapshot,
		world:     snapshot(),
		textInput: ti,
		limit:     limit,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

type tickMsg struct {
	record sim.TickRecord
	world  world.Snapshot
}

type errMsg struct {
	err error
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m.quit()

		case tea.KeyEnter:
			input := strings.TrimSpace(m.textInput.Value())
			m.textInput.Reset()
			if input == "/quit" {
				return m.quit()
			}
			if m.state != stateReady {
				return m, nil
			}
			n, err := parseCommand(input)
			if err != nil {
				m.appendLog(warnStyle.Render(err.Error()))
				return m, nil
			}
			return m.queue(n)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.6)
		m.viewport.Height = msg.Height - 6
		m.viewport.SetContent(m.tickLog)

	case tickMsg:
		m.world = msg.world
		m.stepped++
		m.appendLog(renderTick(msg.record))
		if m.limit > 0 && m.stepped >= m.limit {
			m.state = stateDone
			m.pending = 0
			return m, nil
		}
		if m.pending > 0 {
			m.pending--
			return m, m.step()
		}
		m.state = stateReady
		return m, nil

	case errMsg:
		m.err = msg.err
		m.state = stateError
		return m, nil
	}

	if m.state != stateError {
		m.textInput, cmd = m.textInput.Update(msg)
	}
	return m, cmd
}

// quit cancels any step in flight. Run waits for it before returning.
func (m model) quit() (tea.Model, tea.Cmd) {
	m.cancel()
	m.pending = 0
	return m, tea.Quit
}

// queue starts n ticks, one at a time.
func (m model) queue(n int) (tea.Model, tea.Cmd) {
	if m.limit > 0 && m.stepped+n > m.limit {
		n = m.limit - m.stepped
	}
	if n <= 0 {
		m.state = stateDone
		return m, nil
	}
	m.state = stateStepping
	m.pending = n - 1
	return m, m.step()
}

func (m *model) appendLog(s string) {
	if m.tickLog != "" {
		m.tickLog += "\n\n"
	}
	m.tickLog += s
	m.viewport.SetContent(m.tickLog)
	m.viewport.GotoBottom()
}

// parseCommand returns the number of ticks the input asks for.
func parseCommand(input string) (int, error) {
	if input == "" {
		return 1, nil
	}
	fields := strings.Fields(input)
	if fields[0] != "/run" {
		return 0, fmt.Errorf("unknown command %q", input)
	}
	if len(fields) != 2 {
		return 0, fmt.Errorf("usage: /run N")
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("/run needs a positive tick count, got %q", fields[1])
	}
	return n, nil
}

// step must be called from Update so the in-flight count is raised before
// the Cmd goroutine starts.
func (m model) step() tea.Cmd {
	m.inflight.Add(1)
	return func() tea.Msg {
		defer m.inflight.Done()
		rec, err := m.stepper.Step(m.ctx)
		if err != nil {
			return errMsg{err}
		}
		return tickMsg{record: rec, world: m.snapshot()}
	}
}

func (m model) View() string {
	var status string
	switch m.state {
	case stateReady:
		status = m.textInput.View()
	case stateStepping:
		status = fmt.Sprintf("Resolving tick %d...", m.world.Tick)
	case stateDone:
		status = fmt.Sprintf("Finished %d ticks. /quit to exit.", m.stepped)
	case stateError:
		return fmt.Sprintf("\n  Error: %v\n\nPress Esc to quit.\n", m.err)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), m.renderWorld())
	help := helpStyle.Render("Enter: step one tick   /run N: step N ticks   /quit: exit")
	return "\n" + lipgloss.JoinVertical(lipgloss.Left, body, "\n"+status, "\n"+help) + "\n"
}

func (m model) renderWorld() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("TICK %d", m.world.Tick)) + "\n" + m.world.Time + "\n\n")
	for _, loc := range m.world.Locations {
		b.WriteString(titleStyle.Render(strings.ToUpper(loc.Name)) + "\n")
		for _, a := range loc.Agents {
			line := "  " + a.Name
			if a.Locked {
				line += fmt.Sprintf(" (busy until %d: %s)", a.LockedUntil, a.LockReason)
			}
			b.WriteString(line + "\n")
			for _, o := range a.Inventory {
				b.WriteString("    holds " + o.Name + "\n")
			}
		}
		for _, o := range loc.Objects {
			b.WriteString("  - " + o.Name + "\n")
		}
		b.WriteString("\n")
	}
	width := int(float64(m.width) * 0.38)
	return worldStyle.Width(width).Height(m.viewport.Height).Render(b.String())
}

func renderTick(rec sim.TickRecord) string {
	lines := []string{tickStyle.Render(fmt.Sprintf("Tick %d  %s", rec.Tick, rec.Time))}
	for _, ar := range rec.Agents {
		line := ar.Summary()
		if ar.Outcome == sim.OutcomeRejected || ar.Outcome == sim.OutcomeFailed {
			line = warnStyle.Render(line)
		} else {
			line = logStyle.Render(line)
		}
		lines = append(lines, line)
		if ar.Resolution != nil && ar.Resolution.Message != "" {
			lines = append(lines, "  "+ar.Resolution.Message)
		}
	}
	for _, e := range rec.Events {
		lines = append(lines, helpStyle.Render(fmt.Sprintf("%s: %s", e.Agent, e.Message)))
	}
	return strings.Join(lines, "\n")
}

// Run steps the simulation interactively. limit caps the number of ticks;
// zero means no cap. It returns only once no step is running, so the caller
// may read the scheduler's state afterwards.
func Run(ctx context.Context, stepper Stepper, snapshot SnapshotFunc, limit int) error {
	return run(ctx, stepper, snapshot, limit, nil, tea.WithAltScreen())
}

func run(ctx context.Context, stepper Stepper, snapshot SnapshotFunc, limit int, started func(*tea.Program), opts ...tea.ProgramOption) error {
	m := newModel(ctx, stepper, snapshot, limit)
	defer m.inflight.Wait()
	defer m.cancel()

	p := tea.NewProgram(m, append(opts, tea.WithContext(ctx))...)
	if started != nil {
		started(p)
	}
	_, err := p.Run()
	return err
}
