// Package engine provides an in-process stand-in for the word-decoding engine
// that receives proximity payloads.
package engine

import (
	"fmt"
	"sync"

	"github.com/verte-zerg/proxgrid/internal/proximity"
)

// Memory keeps attached payloads in memory, keyed by handle.
type Memory struct {
	mu       sync.Mutex
	next     int64
	payloads map[int64]*proximity.Payload
	released int
}

// NewMemory returns an empty engine.
func NewMemory() *Memory {
	return &Memory{payloads: map[int64]*proximity.Payload{}}
}

// SetProximityInfo validates p and stores it under a new handle.
func (m *Memory) SetProximityInfo(p *proximity.Payload) (int64, error) {
	if err := Validate(p); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.payloads[m.next] = p
	return m.next, nil
}

// ReleaseProximityInfo drops handle. Unknown handles are ignored.
func (m *Memory) ReleaseProximityInfo(handle int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payloads[handle]; !ok {
		return
	}
	delete(m.payloads, handle)
	m.released++
}

// Lookup returns the payload of handle.
func (m *Memory) Lookup(handle int64) (*proximity.Payload, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payloads[handle]
	return p, ok
}

// Live returns the number of handles not yet released.
func (m *Memory) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payloads)
}

// Released returns how many handles were released.
func (m *Memory) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// Validate checks the array shapes of the payload contract.
func Validate(p *proximity.Payload) error {
	if p == nil {
		return fmt.Errorf("payload is nil")
	}
	if p.GridWidth <= 0 || p.GridHeight <= 0 {
		return fmt.Errorf("invalid grid %dx%d", p.GridWidth, p.GridHeight)
	}
	if want := p.GridSize() * proximity.MaxProximityCharsSize; len(p.ProximityChars) != want {
		return fmt.Errorf("proximity table has %d entries, want %d", len(p.ProximityChars), want)
	}
	n := len(p.KeyCodes)
	for name, arr := range map[string][]int{
		"key x": p.KeyX, "key y": p.KeyY, "key widths": p.KeyWidths, "key heights": p.KeyHeights,
	} {
		if len(arr) != n {
			return fmt.Errorf("%s has %d entries, want %d", name, len(arr), n)
		}
	}
	spots := [][]float32{p.SweetSpotCenterX, p.SweetSpotCenterY, p.SweetSpotRadii}
	present := 0
	for _, arr := range spots {
		if arr != nil {
			present++
		}
	}
	switch present {
	case 0:
		return nil
	case len(spots):
		for _, arr := range spots {
			if len(arr) != n {
				return fmt.Errorf("sweet spot array has %d entries, want %d", len(arr), n)
			}
		}
		return nil
	default:
		return fmt.Errorf("sweet spot arrays must be all present or all absent")
	}
}
