package recfile

import "fmt"

// Records is an owned byte arena holding n rows of one layout.
//
// Rows are stored back to back exactly as they appear in a binary record
// file. Typed access goes through the field descriptors; no per-field
// allocation takes place.
type Records struct {
	layout *RowLayout
	data   []byte
	n      int
}

// NewRecords allocates a zeroed arena for n rows.
func NewRecords(layout *RowLayout, n int) *Records {
	if n < 0 {
		n = 0
	}
	return &Records{
		layout: layout,
		data:   make([]byte, n*layout.rowSize),
		n:      n,
	}
}

// RecordsFromBytes wraps data as rows of layout without copying.
// The length of data must be a multiple of the row size.
func RecordsFromBytes(layout *RowLayout, data []byte) (*Records, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: nil layout", ErrInvalidInput)
	}
	if len(data)%layout.rowSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d byte rows", ErrInvalidInput, len(data), layout.rowSize)
	}
	return &Records{layout: layout, data: data, n: len(data) / layout.rowSize}, nil
}

// Len returns the number of rows.
func (r *Records) Len() int { return r.n }

// Layout returns the row layout.
func (r *Records) Layout() *RowLayout { return r.layout }

// Bytes returns the backing arena.
func (r *Records) Bytes() []byte { return r.data }

// Row returns the bytes of row i.
func (r *Records) Row(i int) []byte {
	size := r.layout.rowSize
	return r.data[i*size : (i+1)*size : (i+1)*size]
}

// elem locates one element of a named field.
func (r *Records) elem(row int, name string, elem int) (FieldDescriptor, []byte, error) {
	if row < 0 || row >= r.n {
		return FieldDescriptor{}, nil, fmt.Errorf("%w: row %d out of range [0,%d)", ErrInvalidInput, row, r.n)
	}
	i := r.layout.Index(name)
	if i < 0 {
		return FieldDescriptor{}, nil, fmt.Errorf("%w: no field %q", ErrInvalidInput, name)
	}
	f := r.layout.fields[i]
	if elem < 0 || elem >= f.Count {
		return FieldDescriptor{}, nil, fmt.Errorf("%w: element %d of field %q out of range [0,%d)", ErrInvalidInput, elem, name, f.Count)
	}
	stride := f.Stride()
	start := row*r.layout.rowSize + f.Offset + elem*stride
	return f, r.data[start : start+stride], nil
}

// Value returns one element as its Go type (int8 … float64, or string for
// String fields with trailing NULs removed).
func (r *Records) Value(row int, name string, elem int) (any, error) {
	f, b, err := r.elem(row, name, elem)
	if err != nil {
		return nil, err
	}
	return decodeElem(f.Type, b), nil
}

// Set stores v into one element. Integers are range checked; strings
// shorter than the element are NUL padded.
func (r *Records) Set(row int, name string, elem int, v any) error {
	f, b, err := r.elem(row, name, elem)
	if err != nil {
		return err
	}
	if err := encodeElem(f.Type, b, v); err != nil {
		return fmt.Errorf("field %q: %w", name, err)
	}
	return nil
}

// String returns a String element with trailing NULs removed.
func (r *Records) String(row int, name string, elem int) (string, error) {
	f, b, err := r.elem(row, name, elem)
	if err != nil {
		return "", err
	}
	if f.Type != String {
		return "", fmt.Errorf("%w: field %q is %s", ErrInvalidInput, name, f.Type)
	}
	return string(trimNul(b)), nil
}

// Map returns row i as field name to value. Array fields map to []any.
func (r *Records) Map(row int) (map[string]any, error) {
	if row < 0 || row >= r.n {
		return nil, fmt.Errorf("%w: row %d out of range [0,%d)", ErrInvalidInput, row, r.n)
	}
	data := r.Row(row)
	m := make(map[string]any, len(r.layout.fields))
	for _, f := range r.layout.fields {
		stride := f.Stride()
		if f.Count == 1 {
			m[f.Name] = decodeElem(f.Type, data[f.Offset:f.Offset+stride])
			continue
		}
		vals := make([]any, f.Count)
		for e := range vals {
			off := f.Offset + e*stride
			vals[e] = decodeElem(f.Type, data[off:off+stride])
		}
		m[f.Name] = vals
	}
	return m, nil
}
