package codec

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
)

type msgpackEncoder struct {
	w   *bufio.Writer
	tmp [8]byte
}

func (e *msgpackEncoder) writeValue(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return e.w.WriteByte(0xc0)
	case bool:
		if v {
			return e.w.WriteByte(0xc3)
		}
		return e.w.WriteByte(0xc2)
	case int:
		return e.writeInt(int64(v))
	case int64:
		return e.writeInt(v)
	case float32:
		binary.BigEndian.PutUint32(e.tmp[:4], math.Float32bits(v))
		return e.writePrefixed(0xca, e.tmp[:4])
	case float64:
		binary.BigEndian.PutUint64(e.tmp[:], math.Float64bits(v))
		return e.writePrefixed(0xcb, e.tmp[:])
	case string:
		if err := e.writeLength(len(v), 0xa0, 31, 0xd9, 0xda, 0xdb); err != nil {
			return err
		}
		_, err := e.w.WriteString(v)
		return err
	case []byte:
		if err := e.writeLength(len(v), 0, -1, 0xc4, 0xc5, 0xc6); err != nil {
			return err
		}
		_, err := e.w.Write(v)
		return err
	case []int:
		if err := e.writeLength(len(v), 0x90, 15, 0, 0xdc, 0xdd); err != nil {
			return err
		}
		for _, item := range v {
			if err := e.writeInt(int64(item)); err != nil {
				return err
			}
		}
		return nil
	case []float32:
		if v == nil {
			return e.w.WriteByte(0xc0)
		}
		if err := e.writeLength(len(v), 0x90, 15, 0, 0xdc, 0xdd); err != nil {
			return err
		}
		for _, item := range v {
			if err := e.writeValue(item); err != nil {
				return err
			}
		}
		return nil
	case []interface{}:
		if err := e.writeLength(len(v), 0x90, 15, 0, 0xdc, 0xdd); err != nil {
			return err
		}
		for _, item := range v {
			if err := e.writeValue(item); err != nil {
				return err
			}
		}
		return nil
	case map[string]interface{}:
		if err := e.writeLength(len(v), 0x80, 15, 0, 0xde, 0xdf); err != nil {
			return err
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := e.writeValue(k); err != nil {
				return err
			}
			if err := e.writeValue(v[k]); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported msgpack type %T", value)
	}
}

func (e *msgpackEncoder) writeInt(v int64) error {
	switch {
	case v >= 0 && v <= 0x7f:
		return e.w.WriteByte(byte(v))
	case v < 0 && v >= -32:
		return e.w.WriteByte(byte(int8(v)))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		binary.BigEndian.PutUint32(e.tmp[:4], uint32(int32(v)))
		return e.writePrefixed(0xd2, e.tmp[:4])
	default:
		binary.BigEndian.PutUint64(e.tmp[:], uint64(v))
		return e.writePrefixed(0xd3, e.tmp[:])
	}
}

// writeLength emits a length header. fix is the fixed-size prefix for lengths
// up to fixMax (fixMax < 0 disables it); p8 may be zero when the type has no
// one-byte length form.
func (e *msgpackEncoder) writeLength(n int, fix byte, fixMax int, p8, p16, p32 byte) error {
	switch {
	case n <= fixMax:
		return e.w.WriteByte(fix | byte(n))
	case p8 != 0 && n <= math.MaxUint8:
		return e.writePrefixed(p8, []byte{byte(n)})
	case n <= math.MaxUint16:
		binary.BigEndian.PutUint16(e.tmp[:2], uint16(n))
		return e.writePrefixed(p16, e.tmp[:2])
	default:
		binary.BigEndian.PutUint32(e.tmp[:4], uint32(n))
		return e.writePrefixed(p32, e.tmp[:4])
	}
}

func (e *msgpackEncoder) writePrefixed(prefix byte, data []byte) error {
	if err := e.w.WriteByte(prefix); err != nil {
		return err
	}
	_, err := e.w.Write(data)
	return err
}

type msgpackDecoder struct {
	r *bufio.Reader
}

func (d *msgpackDecoder) decodeValue() (interface{}, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return nil, err
	}

	switch {
	case b <= 0x7f:
		return int64(b), nil
	case b >= 0xe0:
		return int64(int8(b)), nil
	case b >= 0xa0 && b <= 0xbf:
		return d.readString(int(b & 0x1f))
	case b >= 0x90 && b <= 0x9f:
		return d.readArray(int(b & 0x0f))
	case b >= 0x80 && b <= 0x8f:
		return d.readMap(int(b & 0x0f))
	}

	switch b {
	case 0xc0:
		return nil, nil
	case 0xc2:
		return false, nil
	case 0xc3:
		return true, nil
	case 0xc4, 0xc5, 0xc6:
		n, err := d.readUint(1 << (b - 0xc4))
		if err != nil {
			return nil, err
		}
		return d.readBytes(int(n))
	case 0xca:
		bits, err := d.readUint(4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(uint32(bits)), nil
	case 0xcb:
		bits, err := d.readUint(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(bits), nil
	case 0xcc, 0xcd, 0xce, 0xcf:
		v, err := d.readUint(1 << (b - 0xcc))
		if err != nil {
			return nil, err
		}
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("msgpack integer %d overflows int64", v)
		}
		return int64(v), nil
	case 0xd0, 0xd1, 0xd2, 0xd3:
		size := 1 << (b - 0xd0)
		v, err := d.readUint(size)
		if err != nil {
			return nil, err
		}
		shift := 64 - 8*size
		return int64(v<<shift) >> shift, nil
	case 0xd9, 0xda, 0xdb:
		n, err := d.readUint(1 << (b - 0xd9))
		if err != nil {
			return nil, err
		}
		return d.readString(int(n))
	case 0xdc, 0xdd:
		n, err := d.readUint(2 << (b - 0xdc))
		if err != nil {
			return nil, err
		}
		return d.readArray(int(n))
	case 0xde, 0xdf:
		n, err := d.readUint(2 << (b - 0xde))
		if err != nil {
			return nil, err
		}
		return d.readMap(int(n))
	default:
		return nil, fmt.Errorf("unsupported msgpack prefix 0x%x", b)
	}
}

func (d *msgpackDecoder) readArray(length int) ([]interface{}, error) {
	out := make([]interface{}, 0, min(length, 1<<16))
	for i := 0; i < length; i++ {
		val, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}

func (d *msgpackDecoder) readMap(length int) (map[string]interface{}, error) {
	out := make(map[string]interface{}, min(length, 1<<10))
	for i := 0; i < length; i++ {
		key, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		name, ok := key.(string)
		if !ok {
			return nil, fmt.Errorf("msgpack map key has type %T, want string", key)
		}
		val, err := d.decodeValue()
		if err != nil {
			return nil, err
		}
		out[name] = val
	}
	return out, nil
}

func (d *msgpackDecoder) readString(length int) (string, error) {
	data, err := d.readBytes(length)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (d *msgpackDecoder) readBytes(length int) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("invalid length %d", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// readUint reads a big endian unsigned integer of size bytes.
func (d *msgpackDecoder) readUint(size int) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(d.r, buf[8-size:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
