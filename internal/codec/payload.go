// Package codec serializes proximity payloads as MessagePack maps.
package codec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/verte-zerg/proxgrid/internal/proximity"
)

// Version is written into every encoded payload.
const Version = 1

const (
	fieldVersion             = "version"
	fieldKeyboardWidth       = "keyboard_width"
	fieldKeyboardHeight      = "keyboard_height"
	fieldGridWidth           = "grid_width"
	fieldGridHeight          = "grid_height"
	fieldMostCommonKeyWidth  = "most_common_key_width"
	fieldMostCommonKeyHeight = "most_common_key_height"
	fieldProximityChars      = "proximity_chars"
	fieldKeyX                = "key_x"
	fieldKeyY                = "key_y"
	fieldKeyWidths           = "key_widths"
	fieldKeyHeights          = "key_heights"
	fieldKeyCodes            = "key_codes"
	fieldSweetSpotCenterX    = "sweet_spot_center_x"
	fieldSweetSpotCenterY    = "sweet_spot_center_y"
	fieldSweetSpotRadii      = "sweet_spot_radii"
)

// EncodePayload writes p to w. Absent sweet spot arrays are written as nil.
func EncodePayload(w io.Writer, p *proximity.Payload) error {
	if p == nil {
		return fmt.Errorf("encode payload: nil payload")
	}
	enc := msgpackEncoder{w: bufio.NewWriter(w)}
	err := enc.writeValue(map[string]interface{}{
		fieldVersion:             Version,
		fieldKeyboardWidth:       p.KeyboardWidth,
		fieldKeyboardHeight:      p.KeyboardHeight,
		fieldGridWidth:           p.GridWidth,
		fieldGridHeight:          p.GridHeight,
		fieldMostCommonKeyWidth:  p.MostCommonKeyWidth,
		fieldMostCommonKeyHeight: p.MostCommonKeyHeight,
		fieldProximityChars:      p.ProximityChars,
		fieldKeyX:                p.KeyX,
		fieldKeyY:                p.KeyY,
		fieldKeyWidths:           p.KeyWidths,
		fieldKeyHeights:          p.KeyHeights,
		fieldKeyCodes:            p.KeyCodes,
		fieldSweetSpotCenterX:    p.SweetSpotCenterX,
		fieldSweetSpotCenterY:    p.SweetSpotCenterY,
		fieldSweetSpotRadii:      p.SweetSpotRadii,
	})
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := enc.w.Flush(); err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return nil
}

// MarshalPayload returns the encoded form of p.
func MarshalPayload(p *proximity.Payload) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePayload(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodePayload reads a payload written by EncodePayload.
func DecodePayload(r io.Reader) (*proximity.Payload, error) {
	dec := msgpackDecoder{r: bufio.NewReader(r)}
	raw, err := dec.decodeValue()
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("decode payload: top level is %T, want map", raw)
	}
	f := fields{m: m}
	if v := f.integer(fieldVersion); f.err == nil && v != Version {
		return nil, fmt.Errorf("decode payload: unsupported version %d", v)
	}
	p := &proximity.Payload{
		KeyboardWidth:       f.integer(fieldKeyboardWidth),
		KeyboardHeight:      f.integer(fieldKeyboardHeight),
		GridWidth:           f.integer(fieldGridWidth),
		GridHeight:          f.integer(fieldGridHeight),
		MostCommonKeyWidth:  f.integer(fieldMostCommonKeyWidth),
		MostCommonKeyHeight: f.integer(fieldMostCommonKeyHeight),
		ProximityChars:      f.integers(fieldProximityChars),
		KeyX:                f.integers(fieldKeyX),
		KeyY:                f.integers(fieldKeyY),
		KeyWidths:           f.integers(fieldKeyWidths),
		KeyHeights:          f.integers(fieldKeyHeights),
		KeyCodes:            f.integers(fieldKeyCodes),
		SweetSpotCenterX:    f.floats(fieldSweetSpotCenterX),
		SweetSpotCenterY:    f.floats(fieldSweetSpotCenterY),
		SweetSpotRadii:      f.floats(fieldSweetSpotRadii),
	}
	if f.err != nil {
		return nil, fmt.Errorf("decode payload: %w", f.err)
	}
	return p, nil
}

// UnmarshalPayload decodes data.
func UnmarshalPayload(data []byte) (*proximity.Payload, error) {
	return DecodePayload(bytes.NewReader(data))
}

// fields pulls typed values out of a decoded map, keeping the first error.
type fields struct {
	m   map[string]interface{}
	err error
}

func (f *fields) fail(format string, args ...interface{}) {
	if f.err == nil {
		f.err = fmt.Errorf(format, args...)
	}
}

func (f *fields) integer(name string) int {
	raw, ok := f.m[name]
	if !ok {
		f.fail("missing field %q", name)
		return 0
	}
	v, ok := raw.(int64)
	if !ok {
		f.fail("field %q has type %T, want integer", name, raw)
		return 0
	}
	return int(v)
}

func (f *fields) integers(name string) []int {
	raw, ok := f.m[name]
	if !ok {
		f.fail("missing field %q", name)
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		f.fail("field %q has type %T, want array", name, raw)
		return nil
	}
	out := make([]int, len(items))
	for i, item := range items {
		v, ok := item.(int64)
		if !ok {
			f.fail("field %q[%d] has type %T, want integer", name, i, item)
			return nil
		}
		out[i] = int(v)
	}
	return out
}

func (f *fields) floats(name string) []float32 {
	raw := f.m[name]
	if raw == nil {
		return nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		f.fail("field %q has type %T, want array", name, raw)
		return nil
	}
	out := make([]float32, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case float32:
			out[i] = v
		case float64:
			out[i] = float32(v)
		default:
			f.fail("field %q[%d] has type %T, want float", name, i, item)
			return nil
		}
	}
	return out
}
