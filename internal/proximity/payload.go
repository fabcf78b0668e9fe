package proximity

import (
	"context"
	"log/slog"
	"math"
	"strings"
)

// Payload is the initialization bundle handed to the decoding engine. Its layout is
// a binary contract: ProximityChars holds GridSize()*MaxProximityCharsSize codes,
// the five key arrays share one indexing, and the three sweet spot arrays are
// either all nil or all of the key array length. Space is exported: the key
// arrays and the table keep codes >= CodeSpace, while FillNearestKeyCodes only
// reports codes above it.
type Payload struct {
	KeyboardWidth       int
	KeyboardHeight      int
	GridWidth           int
	GridHeight          int
	MostCommonKeyWidth  int
	MostCommonKeyHeight int
	ProximityChars      []int
	KeyX                []int
	KeyY                []int
	KeyWidths           []int
	KeyHeights          []int
	KeyCodes            []int
	SweetSpotCenterX    []float32
	SweetSpotCenterY    []float32
	SweetSpotRadii      []float32
}

// KeyCount returns the number of exported keys.
func (p *Payload) KeyCount() int {
	return len(p.KeyCodes)
}

// GridSize returns the number of cells described by the payload.
func (p *Payload) GridSize() int {
	return p.GridWidth * p.GridHeight
}

// HasSweetSpots reports whether touch correction data is present.
func (p *Payload) HasSweetSpots() bool {
	return p.SweetSpotCenterX != nil
}

// CellCodes returns the codes stored for cell index, without trailing sentinels.
func (p *Payload) CellCodes(index int) []int {
	start := index * MaxProximityCharsSize
	if index < 0 || start+MaxProximityCharsSize > len(p.ProximityChars) {
		return nil
	}
	row := p.ProximityChars[start : start+MaxProximityCharsSize]
	for n, code := range row {
		if code == NotACode {
			return row[:n]
		}
	}
	return row
}

// Payload returns the engine payload, or nil when the keyboard has no grid.
// The returned value is shared and must not be modified.
func (i *Info) Payload() *Payload {
	return i.payload
}

func (i *Info) buildPayload(corr Corrector) *Payload {
	log := logger()
	p := &Payload{
		KeyboardWidth:       i.keyboardMinWidth,
		KeyboardHeight:      i.keyboardHeight,
		GridWidth:           i.gridWidth,
		GridHeight:          i.gridHeight,
		MostCommonKeyWidth:  i.mostCommonKeyWidth,
		MostCommonKeyHeight: i.mostCommonKeyHeight,
	}

	p.ProximityChars = make([]int, i.gridSize*MaxProximityCharsSize)
	for n := range p.ProximityChars {
		p.ProximityChars[n] = NotACode
	}
	for cell, neighbors := range i.gridNeighbors {
		infoIndex := cell * MaxProximityCharsSize
		end := infoIndex + MaxProximityCharsSize
		for _, key := range neighbors {
			if infoIndex >= end {
				break
			}
			if !NeedsProximityInfo(key) {
				continue
			}
			p.ProximityChars[infoIndex] = key.Code()
			infoIndex++
		}
	}
	if log.Enabled(context.Background(), slog.LevelDebug) {
		for cell := 0; cell < i.gridSize; cell++ {
			var sb strings.Builder
			for _, code := range p.CellCodes(cell) {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteRune(rune(code))
			}
			log.Debug("proximity chars", "cell", cell, "codes", sb.String())
		}
	}

	keyCount := 0
	for _, key := range i.sortedKeys {
		if NeedsProximityInfo(key) {
			keyCount++
		}
	}
	p.KeyX = make([]int, 0, keyCount)
	p.KeyY = make([]int, 0, keyCount)
	p.KeyWidths = make([]int, 0, keyCount)
	p.KeyHeights = make([]int, 0, keyCount)
	p.KeyCodes = make([]int, 0, keyCount)
	for _, key := range i.sortedKeys {
		if !NeedsProximityInfo(key) {
			continue
		}
		p.KeyX = append(p.KeyX, key.X())
		p.KeyY = append(p.KeyY, key.Y())
		p.KeyWidths = append(p.KeyWidths, key.Width())
		p.KeyHeights = append(p.KeyHeights, key.Height())
		p.KeyCodes = append(p.KeyCodes, key.Code())
	}

	if corr == nil || !corr.Valid() {
		log.Debug("touch position correction off")
		return p
	}
	log.Debug("touch position correction on", "rows", corr.Rows())
	p.SweetSpotCenterX = make([]float32, 0, keyCount)
	p.SweetSpotCenterY = make([]float32, 0, keyCount)
	p.SweetSpotRadii = make([]float32, 0, keyCount)
	rows := corr.Rows()
	defaultRadius := defaultCorrectionRadius *
		float32(math.Hypot(float64(i.mostCommonKeyWidth), float64(i.mostCommonKeyHeight)))
	for _, key := range i.sortedKeys {
		if !NeedsProximityInfo(key) {
			continue
		}
		hitBox := key.HitBox()
		centerX := hitBox.ExactCenterX()
		centerY := hitBox.ExactCenterY()
		radius := defaultRadius
		// Division truncates toward zero: a top within one key height above
		// the keyboard still maps to row 0.
		row := -1
		if i.mostCommonKeyHeight > 0 {
			row = hitBox.Top / i.mostCommonKeyHeight
		}
		corrected := row >= 0 && row < rows
		if corrected {
			dx, dy, factor := corr.Bias(row)
			hitBoxWidth := hitBox.Width()
			hitBoxHeight := hitBox.Height()
			diagonal := float32(math.Hypot(float64(hitBoxWidth), float64(hitBoxHeight)))
			centerX += dx * float32(hitBoxWidth)
			centerY += dy * float32(hitBoxHeight)
			radius = factor * diagonal
		}
		p.SweetSpotCenterX = append(p.SweetSpotCenterX, centerX)
		p.SweetSpotCenterY = append(p.SweetSpotCenterY, centerY)
		p.SweetSpotRadii = append(p.SweetSpotRadii, radius)
		log.Debug("sweet spot", "index", len(p.SweetSpotRadii)-1, "row", row,
			"x", centerX, "y", centerY, "r", radius, "corrected", corrected, "code", key.Code())
	}
	return p
}
