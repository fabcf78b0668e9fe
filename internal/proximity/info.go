package proximity

// Params fixes the grid resolution and the keyboard extent in pixels.
type Params struct {
	GridWidth           int
	GridHeight          int
	MinWidth            int
	Height              int
	MostCommonKeyWidth  int
	MostCommonKeyHeight int
}

// Corrector supplies per-row touch position correction.
type Corrector interface {
	Valid() bool
	Rows() int
	// Bias returns the center shift, as a fraction of the hit box size, and
	// the sweet spot radius, as a fraction of the hit box diagonal.
	Bias(row int) (dx, dy, radius float32)
}

// Info is the built proximity grid of one keyboard. It is immutable after New
// and safe for concurrent use.
type Info struct {
	gridWidth           int
	gridHeight          int
	gridSize            int
	cellWidth           int
	cellHeight          int
	keyboardMinWidth    int
	keyboardHeight      int
	mostCommonKeyWidth  int
	mostCommonKeyHeight int
	sortedKeys          []Key
	gridNeighbors       [][]Key
	payload             *Payload
}

// New builds the grid for keys and prepares the engine payload. A keyboard with
// zero width or height gets no grid: every lookup returns nothing and Payload
// returns nil.
func New(p Params, sortedKeys []Key, corr Corrector) *Info {
	info := &Info{
		gridWidth:           p.GridWidth,
		gridHeight:          p.GridHeight,
		gridSize:            p.GridWidth * p.GridHeight,
		keyboardMinWidth:    p.MinWidth,
		keyboardHeight:      p.Height,
		mostCommonKeyWidth:  p.MostCommonKeyWidth,
		mostCommonKeyHeight: p.MostCommonKeyHeight,
		sortedKeys:          sortedKeys,
	}
	if p.GridWidth > 0 && p.GridHeight > 0 {
		info.cellWidth = (p.MinWidth + p.GridWidth - 1) / p.GridWidth
		info.cellHeight = (p.Height + p.GridHeight - 1) / p.GridHeight
	}
	if p.MinWidth == 0 || p.Height == 0 || info.gridSize <= 0 {
		// No proximity required. Keyboard might be a more keys keyboard.
		return info
	}
	info.gridNeighbors = computeNearestNeighbors(info)
	info.payload = info.buildPayload(corr)
	return info
}

// HasProximity reports whether a grid was built.
func (i *Info) HasProximity() bool {
	return i.gridNeighbors != nil
}

// GridWidth returns the number of grid columns.
func (i *Info) GridWidth() int { return i.gridWidth }

// GridHeight returns the number of grid rows.
func (i *Info) GridHeight() int { return i.gridHeight }

// GridSize returns the number of cells.
func (i *Info) GridSize() int { return i.gridSize }

// CellWidth returns the width of one cell in pixels.
func (i *Info) CellWidth() int { return i.cellWidth }

// CellHeight returns the height of one cell in pixels.
func (i *Info) CellHeight() int { return i.cellHeight }

// KeyboardMinWidth returns the covered keyboard width.
func (i *Info) KeyboardMinWidth() int { return i.keyboardMinWidth }

// KeyboardHeight returns the covered keyboard height.
func (i *Info) KeyboardHeight() int { return i.keyboardHeight }

// Threshold returns the proximity distance in pixels.
func (i *Info) Threshold() int {
	return int(float32(i.mostCommonKeyWidth) * searchDistance)
}

// CellCenter returns the pixel center of cell index.
func (i *Info) CellCenter(index int) (x, y int) {
	col := index % i.gridWidth
	row := index / i.gridWidth
	return col*i.cellWidth + i.cellWidth/2, row*i.cellHeight + i.cellHeight/2
}

// Cell returns the keys of cell index, or nil when there is no such cell.
// The returned slice must not be modified.
func (i *Info) Cell(index int) []Key {
	if i.gridNeighbors == nil || index < 0 || index >= len(i.gridNeighbors) {
		return nil
	}
	return i.gridNeighbors[index]
}

// NearestKeys returns the keys near (x, y) in key-scan order. Points outside
// the keyboard, or a keyboard without grid, yield an empty slice. The returned
// slice must not be modified.
func (i *Info) NearestKeys(x, y int) []Key {
	if i.gridNeighbors == nil {
		return []Key{}
	}
	if x >= 0 && x < i.keyboardMinWidth && y >= 0 && y < i.keyboardHeight {
		index := (y/i.cellHeight)*i.gridWidth + (x / i.cellWidth)
		if index < i.gridSize {
			return i.gridNeighbors[index]
		}
	}
	return []Key{}
}

// FillNearestKeyCodes writes primaryCode, when printable, followed by the codes
// of the keys near (x, y) into dest. It stops at the first non-printable key or
// when dest is full, then writes a single NotACode if room remains. Slots past
// the sentinel are left untouched.
func (i *Info) FillNearestKeyCodes(x, y, primaryCode int, dest []int) {
	destLength := len(dest)
	if destLength < 1 {
		return
	}
	index := 0
	if IsPrintable(primaryCode) {
		dest[index] = primaryCode
		index++
	}
	for _, key := range i.NearestKeys(x, y) {
		if index >= destLength {
			break
		}
		code := key.Code()
		if !IsPrintable(code) {
			break
		}
		dest[index] = code
		index++
	}
	if index < destLength {
		dest[index] = NotACode
	}
}
