package stats

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/verte-zerg/proxgrid/internal/model"
)

func TestSimulationMetrics(t *testing.T) {
	hit, cand := SimulationMetrics(model.SimulationResult{Samples: 200, Hits: 150, CandidateHits: 190})
	if math.Abs(hit-0.75) > 1e-9 || math.Abs(cand-0.95) > 1e-9 {
		t.Fatalf("unexpected rates: %f %f", hit, cand)
	}
	hit, cand = SimulationMetrics(model.SimulationResult{})
	if hit != 0 || cand != 0 {
		t.Fatalf("expected zero rates, got %f %f", hit, cand)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4}, 2)
	if !reflect.DeepEqual(got, []float64{1, 1.5, 2.5, 3.5}) {
		t.Fatalf("unexpected moving average: %v", got)
	}
	if got := MovingAverage([]float64{5, 6}, 1); !reflect.DeepEqual(got, []float64{5, 6}) {
		t.Fatalf("expected copy for window 1, got %v", got)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 1}); got != " @" {
		t.Fatalf("unexpected sparkline: %q", got)
	}
	if got := Sparkline([]float64{3, 3}); got != "++" {
		t.Fatalf("unexpected flat sparkline: %q", got)
	}
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
}

func sampleTallies() map[int]model.KeyTally {
	return map[int]model.KeyTally{
		'a': {Samples: 10, Hits: 9, CandidateHits: 10},
		'b': {Samples: 10, Hits: 5, CandidateHits: 8},
		'c': {},
	}
}

func TestWeakestKeys(t *testing.T) {
	if got := WeakestKeys(sampleTallies(), 0); !reflect.DeepEqual(got, []int{'b', 'a', 'c'}) {
		t.Fatalf("unexpected order: %v", got)
	}
	if got := WeakestKeys(sampleTallies(), 2); !reflect.DeepEqual(got, []int{'b', 'a'}) {
		t.Fatalf("unexpected top 2: %v", got)
	}
}

func TestRenderSimulation(t *testing.T) {
	var buf bytes.Buffer
	res := model.SimulationResult{Samples: 200, Hits: 150, Misses: 50, NoKey: 2, CandidateHits: 190}
	if err := RenderSimulation(&buf, res); err != nil {
		t.Fatalf("RenderSimulation failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Simulation", "75.00%", "95.00%", "No key"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderKeyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderKeyTable(&buf, sampleTallies()); err != nil {
		t.Fatalf("RenderKeyTable failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected title, header and 3 rows, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[2], "b ") || !strings.Contains(lines[2], "50.00%") {
		t.Fatalf("expected weakest key first, got %q", lines[2])
	}

	buf.Reset()
	if err := RenderKeyTable(&buf, nil); err != nil {
		t.Fatalf("RenderKeyTable failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No per-key stats.") {
		t.Fatalf("expected empty note, got %q", buf.String())
	}
}
