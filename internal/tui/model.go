// Package tui provides the Bubble Tea proximity grid explorer.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/proxgrid/internal/keyboard"
	"github.com/verte-zerg/proxgrid/internal/proximity"
)

// Options wires the explorer to its keyboard source.
type Options struct {
	// Reload rebuilds the keyboard on demand. Nil disables the r key.
	Reload func() (*keyboard.Keyboard, error)

	// Updates delivers keyboards rebuilt after the layout file changed.
	Updates <-chan *keyboard.Keyboard

	// Engine receives the payload of every loaded keyboard. Optional.
	Engine proximity.Engine
}

type viewMode int

const (
	modeCounts viewMode = iota
	modeKeys
)

type keyboardMsg struct {
	kb      *keyboard.Keyboard
	err     error
	watched bool
}

// Model implements the Bubble Tea explorer UI.
type Model struct {
	opts   Options
	kb     *keyboard.Keyboard
	handle *proximity.Handle

	width  int
	height int

	col  int
	row  int
	mode viewMode

	grid       viewport.Model
	candidates table.Model
	jump       textinput.Model
	jumping    bool

	status string
}

var (
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	fewStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	someStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	manyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cursorStyle = lipgloss.NewStyle().Reverse(true).Bold(true)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// NewModel constructs an explorer for kb.
func NewModel(kb *keyboard.Keyboard, opts Options) *Model {
	m := &Model{
		opts:       opts,
		grid:       viewport.New(0, 0),
		candidates: newCandidateTable(),
		jump:       newJumpInput(),
	}
	m.setKeyboard(kb)
	return m
}

func newCandidateTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 3},
			{Title: "Code", Width: 6},
			{Title: "Label", Width: 8},
			{Title: "Distance²", Width: 10},
		}),
		table.WithHeight(proximity.MaxProximityCharsSize),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	t.SetStyles(styles)
	return t
}

func newJumpInput() textinput.Model {
	input := textinput.New()
	input.Prompt = "jump to key: "
	input.CharLimit = 16
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

// Keyboard returns the keyboard being explored.
func (m *Model) Keyboard() *keyboard.Keyboard {
	return m.kb
}

// Cursor returns the selected cell as column and row.
func (m *Model) Cursor() (col, row int) {
	return m.col, m.row
}

// Close releases the engine handle of the current keyboard.
func (m *Model) Close() error {
	if m.handle == nil {
		return nil
	}
	err := m.handle.Close()
	m.handle = nil
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return waitForUpdate(m.opts.Updates)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	case keyboardMsg:
		var next tea.Cmd
		if msg.watched {
			next = waitForUpdate(m.opts.Updates)
		}
		if msg.err != nil {
			m.status = fmt.Sprintf("reload failed: %v", msg.err)
			return m, next
		}
		m.setKeyboard(msg.kb)
		m.status = "reloaded " + m.kb.Name()
		return m, next
	case tea.KeyMsg:
		if m.jumping {
			return m.updateJump(msg)
		}
		return m.updateKeys(msg)
	default:
		return m, nil
	}
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		if err := m.Close(); err != nil {
			m.status = fmt.Sprintf("release failed: %v", err)
		}
		return m, tea.Quit
	case "left", "h":
		m.moveCursor(-1, 0)
	case "right", "l":
		m.moveCursor(1, 0)
	case "up", "k":
		m.moveCursor(0, -1)
	case "down", "j":
		m.moveCursor(0, 1)
	case "tab":
		if m.mode == modeCounts {
			m.mode = modeKeys
		} else {
			m.mode = modeCounts
		}
		m.refresh()
	case "/":
		m.jumping = true
		m.jump.SetValue("")
		return m, m.jump.Focus()
	case "r":
		if m.opts.Reload == nil {
			m.status = "reload unavailable"
			return m, nil
		}
		reload := m.opts.Reload
		m.status = "reloading..."
		return m, func() tea.Msg {
			kb, err := reload()
			return keyboardMsg{kb: kb, err: err}
		}
	}
	return m, nil
}

func (m *Model) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.jumping = false
		m.jump.Blur()
		return m, nil
	case tea.KeyEnter:
		m.jumping = false
		m.jump.Blur()
		m.jumpTo(strings.TrimSpace(m.jump.Value()))
		return m, nil
	}
	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

// jumpTo moves the cursor to the cell under the center of the key named by
// query: a single character or a special key name.
func (m *Model) jumpTo(query string) {
	if query == "" {
		return
	}
	code, ok := keyboard.SpecialCode(query)
	if !ok {
		runes := []rune(query)
		if len(runes) != 1 {
			m.status = fmt.Sprintf("unknown key %q", query)
			return
		}
		code = int(runes[0])
	}
	center := m.kb.Coordinates([]int{code})[0]
	info := m.kb.ProximityInfo()
	if center.X == keyboard.NotACoordinate || !info.HasProximity() {
		m.status = fmt.Sprintf("no key %q", query)
		return
	}
	m.col = min(center.X/info.CellWidth(), info.GridWidth()-1)
	m.row = min(center.Y/info.CellHeight(), info.GridHeight()-1)
	m.status = fmt.Sprintf("jumped to %s", keyboard.PrintableCode(code))
	m.refresh()
}

func (m *Model) moveCursor(dx, dy int) {
	info := m.kb.ProximityInfo()
	if !info.HasProximity() {
		return
	}
	m.col = max(0, min(m.col+dx, info.GridWidth()-1))
	m.row = max(0, min(m.row+dy, info.GridHeight()-1))
	m.refresh()
}

func (m *Model) setKeyboard(kb *keyboard.Keyboard) {
	m.kb = kb
	if m.opts.Engine != nil {
		if err := m.Close(); err != nil {
			m.status = fmt.Sprintf("release failed: %v", err)
		}
		handle, err := kb.ProximityInfo().Attach(m.opts.Engine)
		if err != nil {
			m.status = fmt.Sprintf("attach failed: %v", err)
		} else {
			m.handle = handle
		}
	}
	info := kb.ProximityInfo()
	m.col = max(0, min(m.col, info.GridWidth()-1))
	m.row = max(0, min(m.row, info.GridHeight()-1))
	m.refresh()
}

func (m *Model) cellIndex() int {
	return m.row*m.kb.ProximityInfo().GridWidth() + m.col
}

func (m *Model) refresh() {
	m.candidates.SetRows(candidateRows(m.kb, m.cellIndex()))
	m.candidates.GotoTop()
	m.grid.SetContent(renderGrid(m.kb, m.col, m.row, m.mode))
}

func (m *Model) layout() {
	gridWidth := m.kb.ProximityInfo().GridWidth()
	m.grid.Width = max(1, min(gridWidth, m.width-candidateTableWidth-2))
	m.grid.Height = max(1, m.height-3)
	m.candidates.SetHeight(max(1, min(proximity.MaxProximityCharsSize, m.height-4)))
}

func waitForUpdate(ch <-chan *keyboard.Keyboard) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		kb, ok := <-ch
		if !ok {
			return nil
		}
		return keyboardMsg{kb: kb, watched: true}
	}
}
