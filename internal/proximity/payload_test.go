package proximity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadTruncatesCellsAtSixteen(t *testing.T) {
	var keys []*testKey
	for i := 0; i < 20; i++ {
		keys = append(keys, newKey('a'+i, 0, 0, 100, 100))
	}
	info := New(squareParams(1, 100, 100), keysOf(keys...), nil)
	require.Len(t, info.NearestKeys(50, 50), 20)

	p := info.Payload()
	require.NotNil(t, p)
	require.Len(t, p.ProximityChars, MaxProximityCharsSize)
	for i := 0; i < MaxProximityCharsSize; i++ {
		assert.Equal(t, 'a'+i, p.ProximityChars[i])
	}
	for i := 16; i < 20; i++ {
		assert.NotContains(t, p.ProximityChars, 'a'+i)
	}
	assert.Len(t, p.KeyCodes, 20)
}

func TestPayloadSentinelPadding(t *testing.T) {
	keys := keysOf(newKey('a', 0, 0, 100, 100), newKey('b', 0, 0, 100, 100))
	info := New(squareParams(2, 400, 100), keys, nil)
	p := info.Payload()
	require.NotNil(t, p)

	require.Len(t, p.ProximityChars, 4*MaxProximityCharsSize)
	assert.Equal(t, []int{'a', 'b'}, p.CellCodes(0))
	for _, code := range p.ProximityChars[2:MaxProximityCharsSize] {
		assert.Equal(t, NotACode, code)
	}
	assert.Empty(t, p.CellCodes(3))
	assert.Nil(t, p.CellCodes(4))
}

func TestPayloadFiltersSpecialKeys(t *testing.T) {
	keys := keysOf(
		newKey(-1, 0, 0, 100, 100),
		newKey('a', 0, 0, 100, 100),
		newKey(' ', 0, 0, 100, 100),
		newKey('\n', 0, 0, 100, 100),
		newKey('b', 100, 0, 100, 100),
	)
	info := New(squareParams(1, 200, 100), keys, nil)
	require.Equal(t, []int{-1, 'a', ' ', '\n', 'b'}, codesOf(info.NearestKeys(10, 10)))

	p := info.Payload()
	require.NotNil(t, p)
	assert.Equal(t, []int{'a', ' ', 'b'}, p.CellCodes(0))
	assert.Equal(t, []int{'a', ' ', 'b'}, p.KeyCodes)
	assert.Equal(t, []int{0, 0, 100}, p.KeyX)
	assert.Equal(t, []int{0, 0, 0}, p.KeyY)
	assert.Equal(t, []int{100, 100, 100}, p.KeyWidths)
	assert.Equal(t, []int{100, 100, 100}, p.KeyHeights)
	assert.Equal(t, 3, p.KeyCount())
}

func TestPayloadHeader(t *testing.T) {
	info := New(Params{GridWidth: 4, GridHeight: 2, MinWidth: 400, Height: 200,
		MostCommonKeyWidth: 100, MostCommonKeyHeight: 90}, keysOf(newKey('a', 0, 0, 100, 90)), nil)
	p := info.Payload()
	require.NotNil(t, p)

	assert.Equal(t, 400, p.KeyboardWidth)
	assert.Equal(t, 200, p.KeyboardHeight)
	assert.Equal(t, 4, p.GridWidth)
	assert.Equal(t, 2, p.GridHeight)
	assert.Equal(t, 8, p.GridSize())
	assert.Equal(t, 100, p.MostCommonKeyWidth)
	assert.Equal(t, 90, p.MostCommonKeyHeight)
}

func TestPayloadWithoutCorrection(t *testing.T) {
	keys := keysOf(newKey('a', 0, 0, 100, 100))
	for _, corr := range []Corrector{nil, fakeCorrector{valid: false, rows: [][3]float32{{0, 0, 1}}}} {
		p := New(squareParams(2, 200, 100), keys, corr).Payload()
		require.NotNil(t, p)
		assert.False(t, p.HasSweetSpots())
		assert.Nil(t, p.SweetSpotCenterX)
		assert.Nil(t, p.SweetSpotCenterY)
		assert.Nil(t, p.SweetSpotRadii)
	}
}

func TestPayloadSweetSpots(t *testing.T) {
	keys := keysOf(
		newKey('a', 0, 0, 100, 100),
		newKey(-1, 100, 0, 100, 100),
		newKey('b', 100, 100, 100, 100),
	)
	corr := fakeCorrector{valid: true, rows: [][3]float32{{0.1, 0.2, 0.5}}}
	p := New(squareParams(2, 200, 100), keys, corr).Payload()
	require.NotNil(t, p)
	require.True(t, p.HasSweetSpots())
	require.Len(t, p.SweetSpotCenterX, 2)
	require.Len(t, p.SweetSpotCenterY, 2)
	require.Len(t, p.SweetSpotRadii, 2)

	// Row 0 is corrected: hit box is 101x100.
	assert.InDelta(t, 50.5+0.1*101, p.SweetSpotCenterX[0], 1e-3)
	assert.InDelta(t, 50+0.2*100, p.SweetSpotCenterY[0], 1e-3)
	assert.InDelta(t, 0.5*math.Hypot(101, 100), p.SweetSpotRadii[0], 1e-3)

	// Row 1 is past the model rows and keeps the default sweet spot.
	assert.InDelta(t, 150.5, p.SweetSpotCenterX[1], 1e-3)
	assert.InDelta(t, 150, p.SweetSpotCenterY[1], 1e-3)
	assert.InDelta(t, 0.15*math.Hypot(100, 100), p.SweetSpotRadii[1], 1e-3)
}

func TestPayloadSweetSpotRowTruncatesTowardZero(t *testing.T) {
	corr := fakeCorrector{valid: true, rows: [][3]float32{{0.1, 0.2, 0.5}}}

	// Top inside one key height above the keyboard is row 0 and corrected.
	p := New(squareParams(2, 200, 100), keysOf(newKey('a', 0, -10, 100, 100)), corr).Payload()
	require.NotNil(t, p)
	require.Len(t, p.SweetSpotRadii, 1)
	assert.InDelta(t, 50.5+0.1*101, p.SweetSpotCenterX[0], 1e-3)
	assert.InDelta(t, 40+0.2*100, p.SweetSpotCenterY[0], 1e-3)
	assert.InDelta(t, 0.5*math.Hypot(101, 100), p.SweetSpotRadii[0], 1e-3)

	// A full key height above is row -1 and keeps the default sweet spot.
	p = New(squareParams(2, 200, 100), keysOf(newKey('a', 0, -100, 100, 100)), corr).Payload()
	require.NotNil(t, p)
	require.Len(t, p.SweetSpotRadii, 1)
	assert.InDelta(t, 50.5, p.SweetSpotCenterX[0], 1e-3)
	assert.InDelta(t, -50, p.SweetSpotCenterY[0], 1e-3)
	assert.InDelta(t, 0.15*math.Hypot(100, 100), p.SweetSpotRadii[0], 1e-3)
}
