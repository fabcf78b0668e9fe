// Package keyboard models keyboard layouts: key geometry, the most common key
// size, the proximity grid of a layout and touch-to-key detection.
package keyboard

import (
	"fmt"

	"github.com/verte-zerg/proxgrid/internal/proximity"
)

// Key is one key of a keyboard. Keys are immutable once the keyboard is built.
type Key struct {
	code   int
	label  string
	x      int
	y      int
	width  int
	height int
	hitBox proximity.Rect
	spacer bool
}

// NewKey returns a key at (x, y). The hit box covers one extra pixel on the right.
func NewKey(code int, label string, x, y, width, height int) *Key {
	return &Key{
		code:   code,
		label:  label,
		x:      x,
		y:      y,
		width:  width,
		height: height,
		hitBox: proximity.Rect{Left: x, Top: y, Right: x + width + 1, Bottom: y + height},
	}
}

// NewSpacer returns an empty key that only takes room in its row.
func NewSpacer(x, y, width, height int) *Key {
	k := NewKey(CodeUnspecified, "", x, y, width, height)
	k.spacer = true
	return k
}

func (k *Key) Code() int              { return k.code }
func (k *Key) Label() string          { return k.label }
func (k *Key) X() int                 { return k.x }
func (k *Key) Y() int                 { return k.y }
func (k *Key) Width() int             { return k.width }
func (k *Key) Height() int            { return k.height }
func (k *Key) HitBox() proximity.Rect { return k.hitBox }
func (k *Key) IsSpacer() bool         { return k.spacer }

// IsModifier reports whether the key changes the meaning of other keys.
func (k *Key) IsModifier() bool {
	return k.code == CodeShift || k.code == CodeSwitchAlphaSymbol
}

// IsOnKey reports whether (x, y) is inside the hit box. Edge keys have their
// hit box stretched to the keyboard padding.
func (k *Key) IsOnKey(x, y int) bool {
	return k.hitBox.Contains(x, y)
}

// SquaredDistanceToEdge returns the squared distance from (x, y) to the key's
// bounding box.
func (k *Key) SquaredDistanceToEdge(x, y int) int {
	left := k.x
	right := left + k.width
	top := k.y
	bottom := top + k.height
	edgeX := x
	if x < left {
		edgeX = left
	} else if x > right {
		edgeX = right
	}
	edgeY := y
	if y < top {
		edgeY = top
	} else if y > bottom {
		edgeY = bottom
	}
	dx := x - edgeX
	dy := y - edgeY
	return dx*dx + dy*dy
}

func (k *Key) markAsLeftEdge(p Params) {
	k.hitBox.Left = p.LeftPadding
}

func (k *Key) markAsRightEdge(p Params) {
	k.hitBox.Right = p.OccupiedWidth - p.RightPadding
}

func (k *Key) markAsTopEdge(p Params) {
	k.hitBox.Top = p.TopPadding
}

func (k *Key) markAsBottomEdge(p Params) {
	k.hitBox.Bottom = p.OccupiedHeight + p.BottomPadding
}

func (k *Key) String() string {
	if k.spacer {
		return fmt.Sprintf("spacer %d/%d %dx%d", k.x, k.y, k.width, k.height)
	}
	return fmt.Sprintf("%s %d/%d %dx%d", PrintableCode(k.code), k.x, k.y, k.width, k.height)
}
