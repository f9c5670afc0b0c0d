package recfile

import (
	"fmt"
	"reflect"
	"strings"
	"unsafe"
)

// LayoutOf describes a Go struct type as a row layout.
//
// sample may be a struct value, a pointer to a struct, a slice of structs or
// a reflect.Type. Offsets and row size follow the compiler's memory layout,
// so padding is preserved and RecordsFromSlice can copy memory directly.
//
// Supported field types:
//
//	int8 … int64, uint8 … uint64, int, uint   numeric scalar
//	float32, float64                          numeric scalar
//	[N]T (T numeric, not byte)                numeric array of N elements
//	[N]byte                                   String of width N
//	[M][N]byte                                M Strings of width N
//
// The field name comes from a `rec:"name"` tag, else the Go field name.
// Fields tagged `rec:"-"` are left as padding; tag option ",array" maps
// [N]byte to N uint8 elements instead of a String.
func LayoutOf(sample any) (*RowLayout, error) {
	t, ok := sample.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(sample)
	}
	for t != nil && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v is not a struct type", ErrInvalidLayout, t)
	}
	return layoutOfType(t)
}

func layoutOfType(t reflect.Type) (*RowLayout, error) {
	var fields []FieldDescriptor
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name, opts := sf.Name, ""
		if tag, ok := sf.Tag.Lookup("rec"); ok {
			if tag == "-" {
				continue
			}
			name, opts, _ = strings.Cut(tag, ",")
			if name == "" {
				name = sf.Name
			}
		}

		typ, count, err := describeGoType(sf.Type, opts == "array")
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidLayout, sf.Name, err)
		}
		fields = append(fields, FieldDescriptor{
			Name:   name,
			Offset: int(sf.Offset),
			Size:   int(sf.Type.Size()),
			Count:  count,
			Type:   typ,
		})
	}
	return NewRowLayout(fields, int(t.Size()))
}

func describeGoType(t reflect.Type, byteArray bool) (TypeID, int, error) {
	if t.Kind() == reflect.Array {
		elem := t.Elem()
		switch {
		case elem.Kind() == reflect.Uint8 && !byteArray:
			return String, 1, nil
		case elem.Kind() == reflect.Array && elem.Elem().Kind() == reflect.Uint8:
			return String, t.Len(), nil
		}
		typ, err := scalarTypeOf(elem)
		if err != nil {
			return 0, 0, err
		}
		return typ, t.Len(), nil
	}
	typ, err := scalarTypeOf(t)
	return typ, 1, err
}

func scalarTypeOf(t reflect.Type) (TypeID, error) {
	switch t.Kind() {
	case reflect.Int8:
		return Int8, nil
	case reflect.Int16:
		return Int16, nil
	case reflect.Int32:
		return Int32, nil
	case reflect.Int64:
		return Int64, nil
	case reflect.Int:
		if t.Size() == 4 {
			return Int32, nil
		}
		return Int64, nil
	case reflect.Uint8:
		return Uint8, nil
	case reflect.Uint16:
		return Uint16, nil
	case reflect.Uint32:
		return Uint32, nil
	case reflect.Uint64:
		return Uint64, nil
	case reflect.Uint:
		if t.Size() == 4 {
			return Uint32, nil
		}
		return Uint64, nil
	case reflect.Float32:
		return Float32, nil
	case reflect.Float64:
		return Float64, nil
	}
	return 0, fmt.Errorf("unsupported kind %s", t.Kind())
}

// RecordsFromSlice copies a slice of structs into a new arena whose layout
// is LayoutOf the element type.
func RecordsFromSlice(slice any) (*Records, error) {
	v := reflect.ValueOf(slice)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%w: %T is not a slice", ErrInvalidInput, slice)
	}
	layout, err := LayoutOf(v.Type().Elem())
	if err != nil {
		return nil, err
	}
	recs := NewRecords(layout, v.Len())
	if v.Len() > 0 {
		copy(recs.data, unsafe.Slice((*byte)(v.UnsafePointer()), len(recs.data)))
	}
	return recs, nil
}

// ScanInto copies the rows into dst, which must point to a slice of a struct
// type whose LayoutOf equals the records' layout.
func (r *Records) ScanInto(dst any) error {
	p := reflect.ValueOf(dst)
	if p.Kind() != reflect.Pointer || p.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("%w: %T is not a pointer to a slice", ErrInvalidInput, dst)
	}
	sliceType := p.Elem().Type()
	layout, err := LayoutOf(sliceType.Elem())
	if err != nil {
		return err
	}
	if !layout.Equal(r.layout) {
		return fmt.Errorf("%w: %s does not match the records layout", ErrInvalidInput, sliceType.Elem())
	}
	out := reflect.MakeSlice(sliceType, r.n, r.n)
	if r.n > 0 {
		copy(unsafe.Slice((*byte)(out.UnsafePointer()), len(r.data)), r.data)
	}
	p.Elem().Set(out)
	return nil
}
