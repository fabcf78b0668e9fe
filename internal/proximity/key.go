// Package proximity builds the touch-proximity grid of a keyboard and exports the
// geometric payload consumed by the word-decoding engine.
package proximity

const (
	// NotACode marks an unused slot in code arrays.
	NotACode = -1
	// CodeSpace is the boundary at or under which codes are not printable.
	CodeSpace = ' '
	// MaxProximityCharsSize is the per-cell width of the exported proximity table.
	// Must match the decoding engine.
	MaxProximityCharsSize = 16
)

const (
	// searchDistance is the number of key widths from a cell center to search for keys.
	searchDistance = 1.2
	// defaultCorrectionRadius scales the most common key diagonal for uncorrected keys.
	defaultCorrectionRadius = 0.15
)

// Key is the geometry of a single keyboard key as seen by the grid.
// Implementations must be immutable for the lifetime of an Info.
type Key interface {
	Code() int
	X() int
	Y() int
	Width() int
	Height() int
	HitBox() Rect
	IsSpacer() bool
	// SquaredDistanceToEdge returns the squared distance from (x, y) to the
	// nearest point of the key's bounding box, 0 when the point is inside.
	SquaredDistanceToEdge(x, y int) int
}

// Rect is an integer rectangle. Right and Bottom are exclusive.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Width returns the horizontal extent.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() int { return r.Bottom - r.Top }

// ExactCenterX returns the horizontal center without rounding.
func (r Rect) ExactCenterX() float32 { return float32(r.Left+r.Right) * 0.5 }

// ExactCenterY returns the vertical center without rounding.
func (r Rect) ExactCenterY() float32 { return float32(r.Top+r.Bottom) * 0.5 }

// Contains reports whether (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return r.Left < r.Right && r.Top < r.Bottom &&
		x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// IsPrintable reports whether code is above the space boundary.
func IsPrintable(code int) bool {
	return code > CodeSpace
}

// NeedsProximityInfo reports whether a key takes part in the exported payload.
// Space is exported; special keys with negative codes and control codes are not.
func NeedsProximityInfo(key Key) bool {
	return key.Code() >= CodeSpace
}
