// Package simulate replays noisy touches on a keyboard and measures how often
// the proximity grid recovers the intended key.
package simulate

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"unicode"

	"github.com/verte-zerg/proxgrid/internal/keyboard"
	"github.com/verte-zerg/proxgrid/internal/model"
	"github.com/verte-zerg/proxgrid/internal/proximity"
)

// Default run parameters.
const (
	DefaultSamples = 1000
	DefaultSigma   = 0.25
)

// Options controls a simulation run. Sigma is the touch noise standard
// deviation in most-common-key widths.
type Options struct {
	Samples int
	Sigma   float64
	Seed    int64
}

// Touch is one simulated touch and what the keyboard made of it.
type Touch struct {
	Code       int
	X          int
	Y          int
	Hit        *keyboard.Key
	Candidates []int
}

// Matched reports whether the detector picked the intended key.
func (t Touch) Matched() bool {
	return t.Hit != nil && t.Hit.Code() == t.Code
}

// InCandidates reports whether the intended code is among the nearby codes.
func (t Touch) InCandidates() bool {
	for _, c := range t.Candidates {
		if c == t.Code {
			return true
		}
	}
	return false
}

// Simulator produces noisy touches around key centers.
type Simulator struct {
	kb    *keyboard.Keyboard
	det   *keyboard.Detector
	rnd   *rand.Rand
	opts  Options
	noise float64
}

// New returns a simulator for kb. Non-positive options fall back to defaults.
func New(kb *keyboard.Keyboard, opts Options) *Simulator {
	if opts.Samples <= 0 {
		opts.Samples = DefaultSamples
	}
	if opts.Sigma <= 0 {
		opts.Sigma = DefaultSigma
	}
	det := keyboard.NewDetector(0, 0)
	det.SetKeyboard(kb, 0, 0)
	return &Simulator{
		kb:    kb,
		det:   det,
		rnd:   rand.New(rand.NewSource(opts.Seed)),
		opts:  opts,
		noise: opts.Sigma * float64(kb.MostCommonKeyWidth()),
	}
}

// Options returns the effective options.
func (s *Simulator) Options() Options {
	return s.opts
}

// Touch simulates one touch aimed at the key with code. It returns false when
// the keyboard has no such key.
func (s *Simulator) Touch(code int) (Touch, bool) {
	center := s.kb.Coordinates([]int{code})[0]
	if center.X == keyboard.NotACoordinate {
		return Touch{}, false
	}
	x := clamp(center.X+int(math.Round(s.rnd.NormFloat64()*s.noise)), s.kb.OccupiedWidth())
	y := clamp(center.Y+int(math.Round(s.rnd.NormFloat64()*s.noise)), s.kb.OccupiedHeight())

	t := Touch{Code: code, X: x, Y: y, Hit: s.det.DetectHitKey(x, y)}
	dest := make([]int, proximity.MaxProximityCharsSize)
	s.kb.ProximityInfo().FillNearestKeyCodes(x, y, proximity.NotACode, dest)
	for _, c := range dest {
		if c == proximity.NotACode {
			break
		}
		t.Candidates = append(t.Candidates, c)
	}
	return t, true
}

// Run types randomly chosen words until the sample budget is spent. Characters
// without a key are skipped.
func (s *Simulator) Run(ctx context.Context, words []string) (model.SimulationResult, error) {
	res := model.SimulationResult{Keys: map[int]model.KeyTally{}}
	if len(words) == 0 {
		return res, fmt.Errorf("no words to simulate")
	}
	if len(s.kb.Keys()) == 0 {
		return res, fmt.Errorf("keyboard %q has no keys", s.kb.Name())
	}
	for res.Samples < s.opts.Samples {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		typed := 0
		word := words[s.rnd.Intn(len(words))]
		for _, r := range word {
			if res.Samples >= s.opts.Samples {
				break
			}
			t, ok := s.Touch(int(unicode.ToLower(r)))
			if !ok {
				continue
			}
			typed++
			tally := res.Keys[t.Code]
			tally.Samples++
			res.Samples++
			switch {
			case t.Matched():
				tally.Hits++
				res.Hits++
			case t.Hit == nil:
				res.NoKey++
				res.Misses++
			default:
				res.Misses++
			}
			if t.InCandidates() {
				tally.CandidateHits++
				res.CandidateHits++
			}
			res.Keys[t.Code] = tally
		}
		if typed == 0 && !anyTypeable(s.kb, words) {
			return res, fmt.Errorf("no word can be typed on keyboard %q", s.kb.Name())
		}
	}
	return res, nil
}

func anyTypeable(kb *keyboard.Keyboard, words []string) bool {
	for _, w := range words {
		for _, r := range w {
			if kb.KeyByCode(int(unicode.ToLower(r))) != nil {
				return true
			}
		}
	}
	return false
}

func clamp(v, size int) int {
	return max(0, min(v, size-1))
}
