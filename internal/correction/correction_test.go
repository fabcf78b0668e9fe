package correction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/proxgrid/internal/proximity"
)

var _ proximity.Corrector = (*Model)(nil)

func TestParse(t *testing.T) {
	m, err := Parse([]string{"0.1", "0.05", "0.9", "0", " -0.02 ", "1.1"})
	require.NoError(t, err)
	assert.True(t, m.Valid())
	assert.Equal(t, 2, m.Rows())

	dx, dy, r := m.Bias(1)
	assert.Equal(t, float32(0), dx)
	assert.InDelta(t, -0.02, dy, 1e-6)
	assert.InDelta(t, 1.1, r, 1e-6)
	assert.Equal(t, Row{X: 0.1, Y: 0.05, Radius: 0.9}, m.Row(0))
}

func TestParseEmptyIsDisabled(t *testing.T) {
	m, err := Parse(nil)
	require.NoError(t, err)
	assert.False(t, m.Valid())
	assert.Equal(t, 0, m.Rows())
}

func TestParseErrors(t *testing.T) {
	for _, data := range [][]string{
		{"0.1", "0.2"},
		{"0.1", "zero", "0.3"},
	} {
		m, err := Parse(data)
		assert.Error(t, err)
		require.NotNil(t, m)
		assert.False(t, m.Valid())
	}
}

func TestSetEnabled(t *testing.T) {
	m := New([]Row{{Y: 0.1, Radius: 1}})
	require.True(t, m.Valid())
	m.SetEnabled(false)
	assert.False(t, m.Valid())
	assert.Equal(t, 1, m.Rows())
	m.SetEnabled(true)
	assert.True(t, m.Valid())
}

func TestNilModel(t *testing.T) {
	var m *Model
	assert.False(t, m.Valid())
	assert.Equal(t, 0, m.Rows())
}
