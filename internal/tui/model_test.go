package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/proxgrid/internal/engine"
	"github.com/verte-zerg/proxgrid/internal/keyboard"
)

func abcKeyboard(name string) *keyboard.Keyboard {
	b := keyboard.NewBuilder(name, keyboard.Params{OccupiedWidth: 300, OccupiedHeight: 100, GridWidth: 6, GridHeight: 2})
	for i, code := range []int{'a', 'b', 'c'} {
		b.AddKey(keyboard.NewKey(code, string(rune(code)), i*100, 0, 100, 100))
	}
	return b.Build(nil)
}

func press(m *Model, keys ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(k)
	}
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCursorMovesAndClamps(t *testing.T) {
	m := NewModel(abcKeyboard("abc"), Options{})
	press(m, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyRight})
	if col, row := m.Cursor(); col != 2 || row != 0 {
		t.Fatalf("expected cursor (2,0), got (%d,%d)", col, row)
	}
	press(m, tea.KeyMsg{Type: tea.KeyDown}, runes("j"))
	if col, row := m.Cursor(); col != 2 || row != 1 {
		t.Fatalf("expected cursor clamped at (2,1), got (%d,%d)", col, row)
	}
	for i := 0; i < 5; i++ {
		press(m, runes("h"))
	}
	if col, row := m.Cursor(); col != 0 || row != 1 {
		t.Fatalf("expected cursor (0,1), got (%d,%d)", col, row)
	}
}

func TestCandidateRows(t *testing.T) {
	rows := candidateRows(abcKeyboard("abc"), 2)
	if len(rows) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(rows))
	}
	want := []string{"2", "98", "b", "0"}
	for i, cell := range rows[1] {
		if cell != want[i] {
			t.Fatalf("expected row %v, got %v", want, rows[1])
		}
	}
	if got := rows[2][3]; got != "5625" {
		t.Fatalf("expected distance 5625 for c, got %s", got)
	}
	if rows := candidateRows(abcKeyboard("abc"), 99); rows != nil {
		t.Fatalf("expected no rows outside the grid, got %v", rows)
	}
}

func TestJumpToKey(t *testing.T) {
	m := NewModel(abcKeyboard("abc"), Options{})
	press(m, runes("/"))
	if !m.jumping {
		t.Fatalf("expected jump mode")
	}
	press(m, runes("c"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.jumping {
		t.Fatalf("expected jump mode to end")
	}
	if col, row := m.Cursor(); col != 5 || row != 1 {
		t.Fatalf("expected cursor on c at (5,1), got (%d,%d)", col, row)
	}

	press(m, runes("/"), runes("z"), tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.status, "no key") {
		t.Fatalf("expected missing key status, got %q", m.status)
	}

	press(m, runes("/"), runes("b"), tea.KeyMsg{Type: tea.KeyEsc})
	if col, _ := m.Cursor(); col != 5 {
		t.Fatalf("expected esc to keep the cursor, got column %d", col)
	}
}

func TestEngineHandleFollowsKeyboard(t *testing.T) {
	mem := engine.NewMemory()
	m := NewModel(abcKeyboard("first"), Options{Engine: mem})
	if mem.Live() != 1 {
		t.Fatalf("expected one live handle, got %d", mem.Live())
	}
	m.Update(keyboardMsg{kb: abcKeyboard("second")})
	if mem.Live() != 1 || mem.Released() != 1 {
		t.Fatalf("expected old handle released, live %d released %d", mem.Live(), mem.Released())
	}
	if m.Keyboard().Name() != "second" {
		t.Fatalf("expected second keyboard, got %s", m.Keyboard().Name())
	}
	cmd := press(m, runes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
	if mem.Live() != 0 {
		t.Fatalf("expected handle released on quit, live %d", mem.Live())
	}
}

func TestReload(t *testing.T) {
	calls := 0
	m := NewModel(abcKeyboard("abc"), Options{Reload: func() (*keyboard.Keyboard, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("broken layout")
		}
		return abcKeyboard("reloaded"), nil
	}})
	cmd := press(m, runes("r"))
	if cmd == nil {
		t.Fatalf("expected reload command")
	}
	m.Update(cmd())
	if m.Keyboard().Name() != "reloaded" {
		t.Fatalf("expected reloaded keyboard, got %s", m.Keyboard().Name())
	}

	cmd = press(m, runes("r"))
	m.Update(cmd())
	if m.Keyboard().Name() != "reloaded" || !strings.Contains(m.status, "broken layout") {
		t.Fatalf("expected failed reload to keep keyboard, status %q", m.status)
	}
	if !strings.Contains(m.View(), "broken layout") {
		t.Fatalf("expected error in view")
	}

	m = NewModel(abcKeyboard("abc"), Options{})
	if cmd := press(m, runes("r")); cmd != nil {
		t.Fatalf("expected no command without reload")
	}
}

func TestWatchedUpdates(t *testing.T) {
	updates := make(chan *keyboard.Keyboard, 1)
	m := NewModel(abcKeyboard("abc"), Options{Updates: updates})
	cmd := m.Init()
	if cmd == nil {
		t.Fatalf("expected watch command")
	}
	updates <- abcKeyboard("watched")
	_, next := m.Update(cmd())
	if m.Keyboard().Name() != "watched" {
		t.Fatalf("expected watched keyboard, got %s", m.Keyboard().Name())
	}
	if next == nil {
		t.Fatalf("expected to keep waiting for updates")
	}
	if NewModel(abcKeyboard("abc"), Options{}).Init() != nil {
		t.Fatalf("expected no watch command without updates")
	}
}

func TestViewAndGrid(t *testing.T) {
	m := NewModel(abcKeyboard("abc"), Options{})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	out := m.View()
	for _, want := range []string{"abc", "grid 6x2", "threshold 120", "2 keys"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}

	grid := renderGrid(m.Keyboard(), -1, -1, modeCounts)
	if lines := strings.Split(grid, "\n"); len(lines) != 2 {
		t.Fatalf("expected 2 grid rows, got %d", len(lines))
	}
	for _, tc := range []struct {
		index int
		want  rune
	}{
		{index: 0, want: 'a'},
		{index: 3, want: 'b'},
		{index: 11, want: 'c'},
	} {
		if got := cellKeyRune(m.Keyboard(), tc.index); got != tc.want {
			t.Fatalf("cell %d: expected %q, got %q", tc.index, tc.want, got)
		}
	}
	if heatRune(2) != '2' || heatRune(12) != '+' {
		t.Fatalf("unexpected heat runes")
	}
}
