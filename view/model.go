package view

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ezrec/urv/emulator"
)

const (
	RUN_INTERVAL   = 50 * time.Millisecond // Delay between ticks while running.
	DEFAULT_WIDTH  = 80                    // Width until the terminal reports its size.
	DEFAULT_HEIGHT = 24                    // Height until the terminal reports its size.
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(RUN_INTERVAL, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is a bubbletea model stepping an emulator.
//
// Keys: 's' steps, 'r' toggles running, 'j' and 'k' scroll memory, 'q' quits.
type Model struct {
	Emulator *emulator.Emulator

	Width    int  // Terminal width.
	Height   int  // Terminal height.
	FirstRow int  // First visible memory row.
	Follow   bool // If set, memory scrolls to keep the pc visible.
	Running  bool // If set, the emulator is ticked on a timer.

	Halted bool            // Set once the program has halted.
	Result emulator.Result // Result of the halted program.
	Err    error           // Fault that stopped the program, if any.
}

// NewModel creates a model for an emulator that has already been loaded.
func NewModel(emu *emulator.Emulator) (m Model) {
	m = Model{
		Emulator: emu,
		Width:    DEFAULT_WIDTH,
		Height:   DEFAULT_HEIGHT,
		Follow:   true,
	}
	m.follow()

	return
}

// Stopped returns true once the program has halted or faulted.
func (m Model) Stopped() bool {
	return m.Halted || m.Err != nil
}

// follow centres the memory window on the program counter.
func (m *Model) follow() {
	if !m.Follow {
		return
	}

	row := int(m.Emulator.Cpu.Pc) / ROW_BYTES
	m.FirstRow = max(row-MemoryRows(m.Height-1)/2, 0)
}

// step ticks the emulator once.
func (m *Model) step() {
	if m.Stopped() {
		m.Running = false
		return
	}

	done, err := m.Emulator.Tick()
	switch {
	case err != nil:
		m.Err = err
		m.Running = false
	case done:
		m.Halted = true
		m.Running = false
		m.Result = emulator.Result{
			Value: m.Emulator.Cpu.Result(),
			Ticks: m.Emulator.Ticks(),
		}
	}

	m.follow()
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.follow()
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "s":
			m.Running = false
			m.Follow = true
			m.step()
		case "r":
			if m.Stopped() {
				break
			}
			m.Running = !m.Running
			if m.Running {
				m.Follow = true
				return m, tick()
			}
		case "j", "down":
			m.Follow = false
			m.FirstRow = min(m.FirstRow+1, MEMORY_ROWS-MemoryRows(m.Height-1))
		case "k", "up":
			m.Follow = false
			m.FirstRow = max(m.FirstRow-1, 0)
		}
	case tickMsg:
		if !m.Running {
			break
		}
		m.step()
		if m.Running {
			return m, tick()
		}
	}

	return m, nil
}

// status describes the emulator state in a single line.
func (m Model) status() string {
	emu := m.Emulator

	switch {
	case m.Err != nil:
		return faultStyle.Render(f("fault: %v", m.Err))
	case m.Halted:
		return statusStyle.Render(f("halted: x10=%d after %d ticks  (q)uit", m.Result.Value, m.Result.Ticks))
	}

	state := f("stopped")
	if m.Running {
		state = f("running")
	}

	line := f("pc 0x%08x  %v  ticks %d", emu.Cpu.Pc, emu.Code(), emu.Ticks())
	if lineno := emu.LineNo(); lineno != 0 {
		line += f("  line %d", lineno)
	}

	return statusStyle.Render(f("%v: %v  (s)tep (r)un (j/k) scroll (q)uit", state, line))
}

func (m Model) View() string {
	cpu := m.Emulator.Cpu

	return lipgloss.JoinVertical(lipgloss.Left,
		RenderAt(&cpu.Memory.Data, &cpu.Register, m.Width, m.Height-1, m.FirstRow),
		lipgloss.NewStyle().MaxWidth(m.Width).Render(m.status()),
	)
}

// Run the emulator interactively until the user quits.
// Returns the final state of the model.
func Run(emu *emulator.Emulator) (m Model, err error) {
	p := tea.NewProgram(NewModel(emu), tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return
	}

	m = final.(Model)
	return
}
