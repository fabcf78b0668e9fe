package keyboard

import (
	"sort"

	"github.com/verte-zerg/proxgrid/internal/proximity"
)

// Default grid resolution of a keyboard.
const (
	DefaultGridWidth  = 32
	DefaultGridHeight = 16
)

// Params describes the outer geometry of a keyboard.
type Params struct {
	OccupiedWidth  int
	OccupiedHeight int
	TopPadding     int
	BottomPadding  int
	LeftPadding    int
	RightPadding   int
	HorizontalGap  int
	VerticalGap    int
	GridWidth      int
	GridHeight     int
}

// Builder collects keys and tracks the most common key size.
type Builder struct {
	name   string
	params Params
	keys   []*Key

	widthHistogram  map[int]int
	heightHistogram map[int]int
	maxWidthCount   int
	maxHeightCount  int
	mostCommonW     int
	mostCommonH     int

	edges []edgeMark
}

type edgeMark struct {
	key                      *Key
	left, right, top, bottom bool
}

// NewBuilder starts a keyboard. Zero grid dimensions fall back to the defaults.
func NewBuilder(name string, p Params) *Builder {
	if p.GridWidth <= 0 {
		p.GridWidth = DefaultGridWidth
	}
	if p.GridHeight <= 0 {
		p.GridHeight = DefaultGridHeight
	}
	return &Builder{
		name:            name,
		params:          p,
		widthHistogram:  map[int]int{},
		heightHistogram: map[int]int{},
	}
}

// AddKey appends key. Zero width spacers are dropped and spacers do not count
// toward the most common key size.
func (b *Builder) AddKey(key *Key) {
	if key.IsSpacer() && key.Width() == 0 {
		return
	}
	b.keys = append(b.keys, key)
	if key.IsSpacer() {
		return
	}
	b.updateHistogram(key)
}

// MarkEdges stretches the hit box of key toward the keyboard edges it touches.
// Marks are applied by Build once the occupied size is final.
func (b *Builder) MarkEdges(key *Key, left, right, top, bottom bool) {
	b.edges = append(b.edges, edgeMark{key: key, left: left, right: right, top: top, bottom: bottom})
}

// SetOccupiedSize overrides the keyboard extent.
func (b *Builder) SetOccupiedSize(width, height int) {
	b.params.OccupiedWidth = width
	b.params.OccupiedHeight = height
}

// MostCommonKeyWidth returns the most frequent key width including the gap.
func (b *Builder) MostCommonKeyWidth() int { return b.mostCommonW }

// MostCommonKeyHeight returns the most frequent key height including the gap.
func (b *Builder) MostCommonKeyHeight() int { return b.mostCommonH }

func (b *Builder) updateHistogram(key *Key) {
	height := key.Height() + b.params.VerticalGap
	b.heightHistogram[height]++
	if count := b.heightHistogram[height]; count > b.maxHeightCount {
		b.maxHeightCount = count
		b.mostCommonH = height
	}

	width := key.Width() + b.params.HorizontalGap
	b.widthHistogram[width]++
	if count := b.widthHistogram[width]; count > b.maxWidthCount {
		b.maxWidthCount = count
		b.mostCommonW = width
	}
}

// Build sorts the keys by row then column, builds the proximity grid and
// returns the keyboard. corr may be nil.
func (b *Builder) Build(corr proximity.Corrector) *Keyboard {
	for _, e := range b.edges {
		if e.left {
			e.key.markAsLeftEdge(b.params)
		}
		if e.right {
			e.key.markAsRightEdge(b.params)
		}
		if e.top {
			e.key.markAsTopEdge(b.params)
		}
		if e.bottom {
			e.key.markAsBottomEdge(b.params)
		}
	}

	keys := append([]*Key(nil), b.keys...)
	sort.SliceStable(keys, func(i, j int) bool {
		if keys[i].Y() != keys[j].Y() {
			return keys[i].Y() < keys[j].Y()
		}
		return keys[i].X() < keys[j].X()
	})
	sorted := make([]proximity.Key, len(keys))
	for i, k := range keys {
		sorted[i] = k
	}

	kb := &Keyboard{
		name:                b.name,
		params:              b.params,
		keys:                keys,
		mostCommonKeyWidth:  b.mostCommonW,
		mostCommonKeyHeight: b.mostCommonH,
	}
	kb.proximity = proximity.New(proximity.Params{
		GridWidth:           b.params.GridWidth,
		GridHeight:          b.params.GridHeight,
		MinWidth:            b.params.OccupiedWidth,
		Height:              b.params.OccupiedHeight,
		MostCommonKeyWidth:  b.mostCommonW,
		MostCommonKeyHeight: b.mostCommonH,
	}, sorted, corr)
	return kb
}
