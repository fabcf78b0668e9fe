package keyboard

import "math"

// Detector resolves a touch point to the key under it.
type Detector struct {
	hysteresisSquared        int
	hysteresisSlidingSquared int
	keyboard                 *Keyboard
	correctionX              int
	correctionY              int
}

// NewDetector returns a detector with the given hysteresis distances in pixels.
// Pointer moves shorter than the distance are not meaningful; the second value
// applies to sliding input that starts on a modifier key.
func NewDetector(hysteresis, hysteresisForSlidingModifier float64) *Detector {
	return &Detector{
		hysteresisSquared:        int(hysteresis * hysteresis),
		hysteresisSlidingSquared: int(hysteresisForSlidingModifier * hysteresisForSlidingModifier),
	}
}

// SetKeyboard attaches kb with a constant offset applied to every touch point.
func (d *Detector) SetKeyboard(kb *Keyboard, correctionX, correctionY float64) {
	d.keyboard = kb
	d.correctionX = int(correctionX)
	d.correctionY = int(correctionY)
}

// HysteresisDistanceSquared returns the squared hysteresis distance.
func (d *Detector) HysteresisDistanceSquared(slidingFromModifier bool) int {
	if slidingFromModifier {
		return d.hysteresisSlidingSquared
	}
	return d.hysteresisSquared
}

// TouchX applies the horizontal offset.
func (d *Detector) TouchX(x int) int { return x + d.correctionX }

// TouchY applies the vertical offset.
func (d *Detector) TouchY(y int) int { return y + d.correctionY }

// DetectHitKey returns the key whose hit box contains the touch point and whose
// edge is closest to it. Overlapping hit boxes at equal distance resolve to the
// larger code. Returns nil when nothing is hit or no keyboard is attached.
func (d *Detector) DetectHitKey(x, y int) *Key {
	if d.keyboard == nil {
		return nil
	}
	touchX := d.TouchX(x)
	touchY := d.TouchY(y)

	minDistance := math.MaxInt
	var primary *Key
	for _, candidate := range d.keyboard.NearestKeys(touchX, touchY) {
		key, ok := candidate.(*Key)
		if !ok || !key.IsOnKey(touchX, touchY) {
			continue
		}
		distance := key.SquaredDistanceToEdge(touchX, touchY)
		if distance > minDistance {
			continue
		}
		if primary == nil || distance < minDistance || key.Code() > primary.Code() {
			minDistance = distance
			primary = key
		}
	}
	return primary
}

// DetectMove resolves a pointer that slides from the key from to (x, y). The
// pointer stays on from until it is at least the hysteresis distance away from
// its edge. A nil from behaves like DetectHitKey.
func (d *Detector) DetectMove(from *Key, x, y int) *Key {
	hit := d.DetectHitKey(x, y)
	if from == nil || hit == from {
		return hit
	}
	distance := from.SquaredDistanceToEdge(d.TouchX(x), d.TouchY(y))
	if distance >= d.HysteresisDistanceSquared(from.IsModifier()) {
		return hit
	}
	return from
}
