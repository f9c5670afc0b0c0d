package recfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Elements are stored in the host's byte order; no conversion is performed.
var native = binary.NativeEndian

func getInt(b []byte, bits int) int64 {
	switch bits {
	case 8:
		return int64(int8(b[0]))
	case 16:
		return int64(int16(native.Uint16(b)))
	case 32:
		return int64(int32(native.Uint32(b)))
	default:
		return int64(native.Uint64(b))
	}
}

func putInt(b []byte, bits int, v int64) {
	putUint(b, bits, uint64(v))
}

func getUint(b []byte, bits int) uint64 {
	switch bits {
	case 8:
		return uint64(b[0])
	case 16:
		return uint64(native.Uint16(b))
	case 32:
		return uint64(native.Uint32(b))
	default:
		return native.Uint64(b)
	}
}

func putUint(b []byte, bits int, v uint64) {
	switch bits {
	case 8:
		b[0] = byte(v)
	case 16:
		native.PutUint16(b, uint16(v))
	case 32:
		native.PutUint32(b, uint32(v))
	default:
		native.PutUint64(b, v)
	}
}

func getFloat(b []byte, bits int) float64 {
	if bits == 32 {
		return float64(math.Float32frombits(native.Uint32(b)))
	}
	return math.Float64frombits(native.Uint64(b))
}

func putFloat(b []byte, bits int, v float64) {
	if bits == 32 {
		native.PutUint32(b, math.Float32bits(float32(v)))
		return
	}
	native.PutUint64(b, math.Float64bits(v))
}

// trimNul cuts b at the first NUL byte.
func trimNul(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}

// decodeElem returns the Go value of one element.
func decodeElem(t TypeID, b []byte) any {
	switch t {
	case Int8:
		return int8(b[0])
	case Int16:
		return int16(getInt(b, 16))
	case Int32:
		return int32(getInt(b, 32))
	case Int64:
		return getInt(b, 64)
	case Uint8:
		return b[0]
	case Uint16:
		return uint16(getUint(b, 16))
	case Uint32:
		return uint32(getUint(b, 32))
	case Uint64:
		return getUint(b, 64)
	case Float32:
		return float32(getFloat(b, 32))
	case Float64:
		return getFloat(b, 64)
	case String:
		return string(trimNul(b))
	default:
		return append([]byte(nil), b...)
	}
}

// encodeElem stores v into one element slot. Integer values are range
// checked against the element width.
func encodeElem(t TypeID, b []byte, v any) error {
	switch {
	case t.signed():
		i, ok := asInt64(v)
		if !ok || !fitsInt(i, t.bits()) {
			return fmt.Errorf("%w: %v (%T) does not fit %s", ErrInvalidInput, v, v, t)
		}
		putInt(b, t.bits(), i)
	case t.unsigned():
		u, ok := asUint64(v)
		if !ok || !fitsUint(u, t.bits()) {
			return fmt.Errorf("%w: %v (%T) does not fit %s", ErrInvalidInput, v, v, t)
		}
		putUint(b, t.bits(), u)
	case t.float():
		f, ok := asFloat64(v)
		if !ok {
			return fmt.Errorf("%w: %v (%T) is not a number", ErrInvalidInput, v, v)
		}
		putFloat(b, t.bits(), f)
	default:
		var src []byte
		switch s := v.(type) {
		case string:
			src = []byte(s)
		case []byte:
			src = s
		default:
			return fmt.Errorf("%w: %T is not a string or byte slice", ErrInvalidInput, v)
		}
		if len(src) > len(b) {
			return fmt.Errorf("%w: %d bytes do not fit a %d byte element", ErrInvalidInput, len(src), len(b))
		}
		n := copy(b, src)
		clear(b[n:])
	}
	return nil
}

func fitsInt(v int64, bits int) bool {
	if bits >= 64 {
		return true
	}
	limit := int64(1) << (bits - 1)
	return v >= -limit && v < limit
}

func fitsUint(v uint64, bits int) bool {
	return bits >= 64 || v < uint64(1)<<bits
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func asUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	}
	i, ok := asInt64(v)
	if !ok || i < 0 {
		return 0, false
	}
	return uint64(i), true
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := asInt64(v); ok {
		return float64(i), true
	}
	if u, ok := asUint64(v); ok {
		return float64(u), true
	}
	return 0, false
}
