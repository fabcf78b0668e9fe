package proximity

import (
	"errors"
	"fmt"
	"sync"
)

// Engine is the decoding engine side of the payload contract.
type Engine interface {
	// SetProximityInfo copies the payload into the engine and returns a handle.
	SetProximityInfo(p *Payload) (int64, error)
	// ReleaseProximityInfo frees the engine resources of handle.
	ReleaseProximityInfo(handle int64)
}

// ErrNoProximity is returned by Attach for a keyboard without grid.
var ErrNoProximity = errors.New("keyboard has no proximity grid")

// Handle owns one engine-side proximity resource. Close releases it exactly once.
type Handle struct {
	engine Engine
	id     int64
	once   sync.Once
}

// Attach hands the payload to e and returns the owning handle.
func (i *Info) Attach(e Engine) (*Handle, error) {
	if i.payload == nil {
		return nil, ErrNoProximity
	}
	id, err := e.SetProximityInfo(i.payload)
	if err != nil {
		return nil, fmt.Errorf("failed to set proximity info: %w", err)
	}
	logger().Debug("proximity info attached", "handle", id)
	return &Handle{engine: e, id: id}, nil
}

// ID returns the engine handle value.
func (h *Handle) ID() int64 {
	return h.id
}

// Close releases the engine resource. Later calls do nothing. The caller must
// make sure no decoding call still uses the handle.
func (h *Handle) Close() error {
	h.once.Do(func() {
		h.engine.ReleaseProximityInfo(h.id)
		logger().Debug("proximity info released", "handle", h.id)
	})
	return nil
}
