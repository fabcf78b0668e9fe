package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/proxgrid/internal/keyboard"
	"github.com/verte-zerg/proxgrid/internal/proximity"
)

const (
	candidateTableWidth = 30
	heatChars           = ".123456789"
)

// View implements tea.Model.
func (m *Model) View() string {
	title := titleStyle.Render(m.title())
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.grid.View(), "  ", m.candidates.View())
	bottom := footerStyle.Render(m.footer())
	if m.jumping {
		bottom = m.jump.View()
	} else if strings.HasPrefix(m.status, "reload failed") || strings.HasPrefix(m.status, "attach failed") {
		bottom = errorStyle.Render(m.status)
	}
	return title + "\n" + body + "\n" + bottom
}

func (m *Model) title() string {
	info := m.kb.ProximityInfo()
	return fmt.Sprintf("%s  %dx%d px  grid %dx%d  cell %dx%d  threshold %d",
		m.kb.Name(), m.kb.OccupiedWidth(), m.kb.OccupiedHeight(),
		info.GridWidth(), info.GridHeight(), info.CellWidth(), info.CellHeight(), info.Threshold())
}

func (m *Model) footer() string {
	info := m.kb.ProximityInfo()
	segments := []string{}
	if info.HasProximity() {
		x, y := info.CellCenter(m.cellIndex())
		segments = append(segments, fmt.Sprintf("cell %d (%d,%d) center %d,%d", m.cellIndex(), m.col, m.row, x, y),
			fmt.Sprintf("%d keys", len(info.Cell(m.cellIndex()))))
	} else {
		segments = append(segments, "no grid")
	}
	if m.handle != nil {
		segments = append(segments, fmt.Sprintf("handle %d", m.handle.ID()))
	}
	if m.status != "" {
		segments = append(segments, m.status)
	}
	segments = append(segments, "arrows move · tab view · / jump · r reload · q quit")
	return strings.Join(segments, "  ")
}

// candidateRows lists the keys of cell index in scan order with their squared
// distance to the cell center.
func candidateRows(kb *keyboard.Keyboard, index int) []table.Row {
	info := kb.ProximityInfo()
	keys := info.Cell(index)
	if len(keys) == 0 {
		return nil
	}
	x, y := info.CellCenter(index)
	rows := make([]table.Row, 0, len(keys))
	for i, k := range keys {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", k.Code()),
			keyLabel(k),
			fmt.Sprintf("%d", k.SquaredDistanceToEdge(x, y)),
		})
	}
	return rows
}

func keyLabel(k proximity.Key) string {
	if key, ok := k.(*keyboard.Key); ok && key.Label() != "" {
		return key.Label()
	}
	return keyboard.PrintableCode(k.Code())
}

// renderGrid draws one character per cell, either the candidate count or the
// label of the key whose hit box holds the cell center.
func renderGrid(kb *keyboard.Keyboard, col, row int, mode viewMode) string {
	info := kb.ProximityInfo()
	if !info.HasProximity() {
		return emptyStyle.Render("(no grid)")
	}
	var b strings.Builder
	for r := 0; r < info.GridHeight(); r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c := 0; c < info.GridWidth(); c++ {
			index := r*info.GridWidth() + c
			count := len(info.Cell(index))
			ch := heatRune(count)
			if mode == modeKeys {
				ch = cellKeyRune(kb, index)
			}
			style := countStyle(count)
			if c == col && r == row {
				style = cursorStyle
			}
			b.WriteString(style.Render(string(ch)))
		}
	}
	return b.String()
}

func cellKeyRune(kb *keyboard.Keyboard, index int) rune {
	x, y := kb.ProximityInfo().CellCenter(index)
	for _, k := range kb.Keys() {
		if k.IsSpacer() || !k.IsOnKey(x, y) {
			continue
		}
		if !proximity.IsPrintable(k.Code()) {
			return '#'
		}
		r := []rune(keyLabel(k))[0]
		if runewidth.RuneWidth(r) != 1 {
			return '?'
		}
		return r
	}
	return ' '
}

func heatRune(n int) rune {
	if n < len(heatChars) {
		return rune(heatChars[n])
	}
	return '+'
}

func countStyle(n int) lipgloss.Style {
	switch {
	case n == 0:
		return emptyStyle
	case n <= 3:
		return fewStyle
	case n <= 8:
		return someStyle
	default:
		return manyStyle
	}
}
