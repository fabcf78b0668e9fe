// Package stats contains proximity grid statistics and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/proxgrid/internal/keyboard"
	"github.com/verte-zerg/proxgrid/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SimulationMetrics returns the detector hit rate and the rate at which the
// intended key was among the proximity candidates.
func SimulationMetrics(res model.SimulationResult) (hitRate, candidateRate float64) {
	if res.Samples <= 0 {
		return 0, 0
	}
	den := float64(res.Samples)
	return float64(res.Hits) / den, float64(res.CandidateHits) / den
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSimulation prints the totals of one simulation run.
func RenderSimulation(w io.Writer, res model.SimulationResult) error {
	hitRate, candidateRate := SimulationMetrics(res)
	rows := [][]string{
		{"Samples", fmt.Sprintf("%d", res.Samples)},
		{"Hits", fmt.Sprintf("%d", res.Hits), fmt.Sprintf("%.2f%%", hitRate*100)},
		{"Misses", fmt.Sprintf("%d", res.Misses)},
		{"No key", fmt.Sprintf("%d", res.NoKey)},
		{"In candidates", fmt.Sprintf("%d", res.CandidateHits), fmt.Sprintf("%.2f%%", candidateRate*100)},
	}
	if _, err := fmt.Fprintln(w, "Simulation"); err != nil {
		return err
	}
	for _, line := range formatTable(nil, rows, map[int]bool{1: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderKeyTable prints per-key simulation tallies, weakest keys first.
func RenderKeyTable(w io.Writer, keys map[int]model.KeyTally) error {
	if len(keys) == 0 {
		_, err := fmt.Fprintln(w, "No per-key stats.")
		return err
	}
	codes := WeakestKeys(keys, 0)

	if _, err := fmt.Fprintln(w, "Per-Key"); err != nil {
		return err
	}
	rows := make([][]string, 0, len(codes))
	for _, code := range codes {
		tally := keys[code]
		rows = append(rows, []string{
			keyboard.PrintableCode(code),
			fmt.Sprintf("%.2f%%", keyAccuracy(tally)*100),
			fmt.Sprintf("%d", tally.Hits),
			fmt.Sprintf("%d", tally.CandidateHits),
			fmt.Sprintf("%d", tally.Samples),
		})
	}
	lines := formatTable([]string{"Key", "Accuracy", "Hits", "Candidates", "Samples"}, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderHistory prints stored exports and simulation runs with a hit rate trend.
func RenderHistory(w io.Writer, h History, window int) error {
	if len(h.Exports) == 0 && len(h.Simulations) == 0 {
		_, err := fmt.Fprintln(w, "No history found.")
		return err
	}
	if len(h.Exports) > 0 {
		rows := make([][]string, 0, len(h.Exports))
		for _, e := range h.Exports {
			rows = append(rows, []string{
				fmt.Sprintf("%d", e.ID),
				e.CreatedAt.Local().Format("2006-01-02 15:04"),
				e.Layout,
				fmt.Sprintf("%dx%d", e.GridWidth, e.GridHeight),
				fmt.Sprintf("%d", e.KeyCount),
				yesNo(e.Correction),
			})
		}
		if err := writeSection(w, "Exports", []string{"ID", "Created", "Layout", "Grid", "Keys", "Correction"}, rows, map[int]bool{0: true, 4: true}); err != nil {
			return err
		}
	}
	if len(h.Simulations) > 0 {
		rows := make([][]string, 0, len(h.Simulations))
		hitRates := make([]float64, 0, len(h.Simulations))
		for _, s := range h.Simulations {
			hitRate, candidateRate := SimulationMetrics(s.Result)
			hitRates = append(hitRates, hitRate)
			rows = append(rows, []string{
				fmt.Sprintf("%d", s.ID),
				s.CreatedAt.Local().Format("2006-01-02 15:04"),
				s.Layout,
				fmt.Sprintf("%.2f", s.Sigma),
				fmt.Sprintf("%d", s.Result.Samples),
				fmt.Sprintf("%.2f%%", hitRate*100),
				fmt.Sprintf("%.2f%%", candidateRate*100),
			})
		}
		if err := writeSection(w, "Simulations", []string{"ID", "Created", "Layout", "Sigma", "Samples", "Hit rate", "Candidate rate"}, rows, map[int]bool{0: true, 3: true, 4: true, 5: true, 6: true}); err != nil {
			return err
		}
		if len(hitRates) > 1 {
			if _, err := fmt.Fprintf(w, "Hit rate trend: [%s]\n\n", Sparkline(MovingAverage(hitRates, window))); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSection(w io.Writer, title string, headers []string, rows [][]string, rightAlign map[int]bool) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
