package recfile

import (
	"fmt"
	"strings"
)

// TypeID enumerates the primitive element types a field may hold.
//
// The zero value is not a valid type. Layouts accept unknown type ids so that
// binary files can carry them opaquely; the text codec rejects them.
type TypeID int

// Primitive element types.
const (
	Int8 TypeID = iota + 1
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	String // fixed-width character data
	typeIDMax
)

var typeNames = [typeIDMax]string{
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Uint8:   "uint8",
	Uint16:  "uint16",
	Uint32:  "uint32",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	String:  "string",
}

// Valid reports whether t is one of the enumerated types.
func (t TypeID) Valid() bool {
	return t > 0 && t < typeIDMax
}

func (t TypeID) String() string {
	if t.Valid() {
		return typeNames[t]
	}
	return fmt.Sprintf("TypeID(%d)", int(t))
}

// Width returns the native element width in bytes of a numeric type.
// String and unknown types return 0; their width is the field stride.
func (t TypeID) Width() int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// bits returns the element width in bits.
func (t TypeID) bits() int { return t.Width() * 8 }

func (t TypeID) signed() bool {
	switch t {
	case Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

func (t TypeID) unsigned() bool {
	switch t {
	case Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

func (t TypeID) float() bool { return t == Float32 || t == Float64 }

// ParseTypeID returns the TypeID named by s (case-insensitive, e.g. "int32").
func ParseTypeID(s string) (TypeID, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t := Int8; t < typeIDMax; t++ {
		if typeNames[t] == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown type %q", ErrInvalidLayout, s)
}
