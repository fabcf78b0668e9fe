package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/proxgrid/internal/correction"
	"github.com/verte-zerg/proxgrid/internal/keyboard"
	"github.com/verte-zerg/proxgrid/internal/proximity"
)

// GridReport summarizes the candidate lists of a proximity grid.
type GridReport struct {
	GridWidth  int
	GridHeight int
	CellWidth  int
	CellHeight int
	Threshold  int
	Counts     []int
	Min        int
	Max        int
	Mean       float64
	Empty      int
	Truncated  int
}

// BuildGridReport counts the keys of every cell. Cells holding more printable
// keys than fit in the engine table are reported as truncated.
func BuildGridReport(info *proximity.Info) GridReport {
	r := GridReport{
		GridWidth:  info.GridWidth(),
		GridHeight: info.GridHeight(),
		CellWidth:  info.CellWidth(),
		CellHeight: info.CellHeight(),
		Threshold:  info.Threshold(),
	}
	if !info.HasProximity() {
		return r
	}
	r.Counts = make([]int, info.GridSize())
	total := 0
	for i := range r.Counts {
		cell := info.Cell(i)
		n := len(cell)
		r.Counts[i] = n
		total += n
		if i == 0 || n < r.Min {
			r.Min = n
		}
		if n > r.Max {
			r.Max = n
		}
		if n == 0 {
			r.Empty++
		}
		exported := 0
		for _, k := range cell {
			if proximity.NeedsProximityInfo(k) {
				exported++
			}
		}
		if exported > proximity.MaxProximityCharsSize {
			r.Truncated++
		}
	}
	r.Mean = float64(total) / float64(len(r.Counts))
	return r
}

// RenderGridReport prints the grid geometry and candidate count summary.
func RenderGridReport(w io.Writer, name string, r GridReport) error {
	lines := [][]string{
		{"Layout", name},
		{"Grid", fmt.Sprintf("%dx%d", r.GridWidth, r.GridHeight)},
		{"Cell", fmt.Sprintf("%dx%d px", r.CellWidth, r.CellHeight)},
		{"Threshold", fmt.Sprintf("%d px", r.Threshold)},
	}
	if len(r.Counts) == 0 {
		lines = append(lines, []string{"Cells", "none (keyboard has no area)"})
	} else {
		lines = append(lines,
			[]string{"Keys per cell", fmt.Sprintf("min %d, max %d, mean %.2f", r.Min, r.Max, r.Mean)},
			[]string{"Empty cells", fmt.Sprintf("%d", r.Empty)},
			[]string{"Truncated cells", fmt.Sprintf("%d", r.Truncated)},
		)
	}
	for _, line := range formatTable(nil, lines, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCorrection prints the touch correction table, one line per row.
func RenderCorrection(w io.Writer, corr *correction.Model) error {
	if !corr.Valid() {
		_, err := fmt.Fprintln(w, "Touch correction: off")
		return err
	}
	rows := make([][]string, 0, corr.Rows())
	for i := 0; i < corr.Rows(); i++ {
		r := corr.Row(i)
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			strconv.FormatFloat(float64(r.X), 'g', -1, 32),
			strconv.FormatFloat(float64(r.Y), 'g', -1, 32),
			strconv.FormatFloat(float64(r.Radius), 'g', -1, 32),
		})
	}
	if _, err := fmt.Fprintln(w, "Touch correction"); err != nil {
		return err
	}
	lines := formatTable([]string{"Row", "X", "Y", "Radius"}, rows, map[int]bool{0: true, 1: true, 2: true, 3: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCandidates prints the keys near (x, y) in scan order with their
// squared distance to the point.
func RenderCandidates(w io.Writer, kb *keyboard.Keyboard, x, y int) error {
	keys := kb.NearestKeys(x, y)
	if len(keys) == 0 {
		_, err := fmt.Fprintf(w, "No keys near (%d, %d).\n", x, y)
		return err
	}
	rows := make([][]string, 0, len(keys))
	for i, k := range keys {
		label := keyboard.PrintableCode(k.Code())
		if key, ok := k.(*keyboard.Key); ok && key.Label() != "" {
			label = key.Label()
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", k.Code()),
			label,
			fmt.Sprintf("%d", k.SquaredDistanceToEdge(x, y)),
		})
	}
	lines := formatTable([]string{"#", "Code", "Label", "Distance²"}, rows, map[int]bool{0: true, 1: true, 3: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
