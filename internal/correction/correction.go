// Package correction holds per-row touch position correction data.
package correction

import (
	"fmt"
	"strconv"
	"strings"
)

// recordSize is the number of values per row: x bias, y bias, radius factor.
const recordSize = 3

// Row is the correction of one keyboard row.
type Row struct {
	X      float32
	Y      float32
	Radius float32
}

// Model is a touch position correction table. The zero value is disabled.
type Model struct {
	enabled bool
	rows    []Row
}

// New returns an enabled model for rows. An empty table is disabled.
func New(rows []Row) *Model {
	return &Model{enabled: len(rows) > 0, rows: append([]Row(nil), rows...)}
}

// Parse reads flat x, y, radius triples. Malformed data returns a disabled model
// together with the error, so callers may keep going without correction.
func Parse(data []string) (*Model, error) {
	if len(data)%recordSize != 0 {
		return &Model{}, fmt.Errorf("touch position correction data has %d values, not a multiple of %d", len(data), recordSize)
	}
	rows := make([]Row, len(data)/recordSize)
	for i, raw := range data {
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
		if err != nil {
			return &Model{}, fmt.Errorf("invalid touch position correction value %q at %d: %w", raw, i, err)
		}
		row := &rows[i/recordSize]
		switch i % recordSize {
		case 0:
			row.X = float32(value)
		case 1:
			row.Y = float32(value)
		default:
			row.Radius = float32(value)
		}
	}
	return &Model{enabled: len(rows) > 0, rows: rows}, nil
}

// SetEnabled switches the model on or off without touching its rows.
func (m *Model) SetEnabled(enabled bool) {
	m.enabled = enabled
}

// Valid reports whether the model should be applied.
func (m *Model) Valid() bool {
	return m != nil && m.enabled
}

// Rows returns the number of rows covered.
func (m *Model) Rows() int {
	if m == nil {
		return 0
	}
	return len(m.rows)
}

// Row returns the raw values of row.
func (m *Model) Row(row int) Row {
	return m.rows[row]
}

// Bias returns the center shift and radius factor of row.
func (m *Model) Bias(row int) (dx, dy, radius float32) {
	r := m.rows[row]
	return r.X, r.Y, r.Radius
}
