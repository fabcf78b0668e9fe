package keyboard

import (
	"github.com/verte-zerg/proxgrid/internal/proximity"
)

// Keyboard is a built layout together with its proximity grid.
type Keyboard struct {
	name                string
	params              Params
	keys                []*Key
	mostCommonKeyWidth  int
	mostCommonKeyHeight int
	proximity           *proximity.Info
}

// Point is a pixel coordinate.
type Point struct {
	X int
	Y int
}

// Name returns the layout name.
func (kb *Keyboard) Name() string { return kb.name }

// Params returns the outer geometry.
func (kb *Keyboard) Params() Params { return kb.params }

// OccupiedWidth returns the keyboard width in pixels.
func (kb *Keyboard) OccupiedWidth() int { return kb.params.OccupiedWidth }

// OccupiedHeight returns the keyboard height in pixels.
func (kb *Keyboard) OccupiedHeight() int { return kb.params.OccupiedHeight }

// MostCommonKeyWidth returns the most frequent key width.
func (kb *Keyboard) MostCommonKeyWidth() int { return kb.mostCommonKeyWidth }

// MostCommonKeyHeight returns the most frequent key height.
func (kb *Keyboard) MostCommonKeyHeight() int { return kb.mostCommonKeyHeight }

// Keys returns the keys sorted by row then column, spacers included.
func (kb *Keyboard) Keys() []*Key { return kb.keys }

// ProximityInfo returns the grid built for the keyboard.
func (kb *Keyboard) ProximityInfo() *proximity.Info { return kb.proximity }

// NearestKeys returns the keys near (x, y). Coordinates are clamped into the
// keyboard so touches on the outer edge pixels still resolve.
func (kb *Keyboard) NearestKeys(x, y int) []proximity.Key {
	adjustedX := max(0, min(x, kb.params.OccupiedWidth-1))
	adjustedY := max(0, min(y, kb.params.OccupiedHeight-1))
	return kb.proximity.NearestKeys(adjustedX, adjustedY)
}

// KeyByCode returns the first key with code, or nil.
func (kb *Keyboard) KeyByCode(code int) *Key {
	if code == CodeUnspecified {
		return nil
	}
	for _, k := range kb.keys {
		if k.Code() == code {
			return k
		}
	}
	return nil
}

// Coordinates returns the key center of every code point. Code points without
// a key get NotACoordinate on both axes.
func (kb *Keyboard) Coordinates(codePoints []int) []Point {
	out := make([]Point, len(codePoints))
	for i, cp := range codePoints {
		k := kb.KeyByCode(cp)
		if k == nil {
			out[i] = Point{X: NotACoordinate, Y: NotACoordinate}
			continue
		}
		out[i] = Point{X: k.X() + k.Width()/2, Y: k.Y() + k.Height()/2}
	}
	return out
}
