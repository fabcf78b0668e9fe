package stats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	heatChars           = ".123456789"
	heatOverflow        = '+'
	terminalWidthBackup = 80
)

// HeatmapWidthFor returns the terminal width of w, or a fallback when w is not
// a terminal.
func HeatmapWidthFor(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return terminalWidthBackup
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// Heatmap draws one character per cell: '.' for an empty cell, a digit for up
// to nine keys and '+' above that. Grids wider than width are folded so each
// character shows the busiest of the cells it covers.
func Heatmap(w io.Writer, r GridReport, width int) error {
	if len(r.Counts) == 0 {
		return nil
	}
	if width <= 0 {
		width = terminalWidthBackup
	}
	step := (r.GridWidth + width - 1) / width
	if _, err := fmt.Fprintf(w, "Keys per cell (%d cell(s) per column)\n", step); err != nil {
		return err
	}
	for row := 0; row < r.GridHeight; row++ {
		var b strings.Builder
		for col := 0; col < r.GridWidth; col += step {
			busiest := 0
			for c := col; c < col+step && c < r.GridWidth; c++ {
				busiest = max(busiest, r.Counts[row*r.GridWidth+c])
			}
			b.WriteRune(heatRune(busiest))
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func heatRune(n int) rune {
	if n < len(heatChars) {
		return rune(heatChars[n])
	}
	return heatOverflow
}
