package recfile

import (
	"fmt"
	"sort"
)

// -----------------------------------------------------------------------------
// Field descriptors
// -----------------------------------------------------------------------------

// FieldDescriptor describes one column of a row.
type FieldDescriptor struct {
	// Name identifies the field; unique within a layout.
	Name string

	// Offset is the byte offset of the field within a row.
	Offset int

	// Size is the total byte size of the field across all elements.
	Size int

	// Count is the number of elements (1 for scalars, N for fixed arrays).
	Count int

	// Type is the primitive element type.
	Type TypeID
}

// Stride returns the byte size of one element. Only meaningful for
// descriptors that belong to a validated layout.
func (f FieldDescriptor) Stride() int {
	if f.Count < 1 {
		return 0
	}
	return f.Size / f.Count
}

// FieldStride returns Size/Count, failing with ErrInvalidLayout when the
// division is not exact.
func FieldStride(f FieldDescriptor) (int, error) {
	if f.Count < 1 {
		return 0, fmt.Errorf("%w: field %q has element count %d", ErrInvalidLayout, f.Name, f.Count)
	}
	if f.Size < 1 || f.Size%f.Count != 0 {
		return 0, fmt.Errorf("%w: field %q size %d is not a multiple of count %d", ErrInvalidLayout, f.Name, f.Size, f.Count)
	}
	return f.Size / f.Count, nil
}

// -----------------------------------------------------------------------------
// Row layout
// -----------------------------------------------------------------------------

// RowLayout describes one row: its ordered fields and total byte size.
//
// Field order is declaration order and is significant: skipping and text
// scanning walk fields in this order. A RowLayout is immutable.
type RowLayout struct {
	fields  []FieldDescriptor
	index   map[string]int
	rowSize int
}

// NewRowLayout validates fields and returns a layout with the given row size.
//
// Offsets may leave gaps (padding) between fields or at the end of the row.
// Returns ErrInvalidLayout for empty or duplicate names, non-positive
// counts, inexact strides, numeric strides that differ from the type width,
// negative offsets, overlapping fields, or fields past the end of the row.
func NewRowLayout(fields []FieldDescriptor, rowSize int) (*RowLayout, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields", ErrInvalidLayout)
	}
	if rowSize < 1 {
		return nil, fmt.Errorf("%w: row size %d", ErrInvalidLayout, rowSize)
	}

	l := &RowLayout{
		fields:  make([]FieldDescriptor, len(fields)),
		index:   make(map[string]int, len(fields)),
		rowSize: rowSize,
	}
	copy(l.fields, fields)

	for i, f := range l.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%w: field %d has no name", ErrInvalidLayout, i)
		}
		if _, dup := l.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field name %q", ErrInvalidLayout, f.Name)
		}
		l.index[f.Name] = i

		stride, err := FieldStride(f)
		if err != nil {
			return nil, err
		}
		if w := f.Type.Width(); w != 0 && stride != w {
			return nil, fmt.Errorf("%w: field %q element size %d does not match %s", ErrInvalidLayout, f.Name, stride, f.Type)
		}
		if f.Offset < 0 || f.Offset+f.Size > rowSize {
			return nil, fmt.Errorf("%w: field %q [%d,%d) outside row of %d bytes", ErrInvalidLayout, f.Name, f.Offset, f.Offset+f.Size, rowSize)
		}
	}

	// Overlap check on a copy sorted by offset.
	byOffset := make([]FieldDescriptor, len(l.fields))
	copy(byOffset, l.fields)
	sort.Slice(byOffset, func(i, j int) bool { return byOffset[i].Offset < byOffset[j].Offset })
	for i := 1; i < len(byOffset); i++ {
		prev := byOffset[i-1]
		if prev.Offset+prev.Size > byOffset[i].Offset {
			return nil, fmt.Errorf("%w: fields %q and %q overlap", ErrInvalidLayout, prev.Name, byOffset[i].Name)
		}
	}

	return l, nil
}

// FieldSpec declares a field for DescribeRow.
type FieldSpec struct {
	Name string
	Type TypeID

	// Count is the number of elements; 0 is treated as 1.
	Count int

	// Width is the per-element byte length. Required for String fields;
	// numeric fields default to the type width.
	Width int
}

// DescribeRow builds a packed layout from field specs: offsets are assigned
// consecutively in declaration order and the row size is the sum of the
// field sizes.
func DescribeRow(specs ...FieldSpec) (*RowLayout, error) {
	fields := make([]FieldDescriptor, len(specs))
	offset := 0
	for i, s := range specs {
		count := s.Count
		if count == 0 {
			count = 1
		}
		width := s.Width
		if width == 0 {
			width = s.Type.Width()
		}
		if width < 1 {
			return nil, fmt.Errorf("%w: field %q needs an element width", ErrInvalidLayout, s.Name)
		}
		fields[i] = FieldDescriptor{
			Name:   s.Name,
			Offset: offset,
			Size:   count * width,
			Count:  count,
			Type:   s.Type,
		}
		offset += count * width
	}
	return NewRowLayout(fields, offset)
}

// packedLayout builds a layout holding fields in the given order with
// offsets reassigned consecutively.
func packedLayout(fields []FieldDescriptor) (*RowLayout, error) {
	packed := make([]FieldDescriptor, len(fields))
	offset := 0
	for i, f := range fields {
		f.Offset = offset
		packed[i] = f
		offset += f.Size
	}
	return NewRowLayout(packed, offset)
}

// Fields returns a copy of the field descriptors in declaration order.
func (l *RowLayout) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(l.fields))
	copy(out, l.fields)
	return out
}

// Field returns the i-th field descriptor.
func (l *RowLayout) Field(i int) FieldDescriptor { return l.fields[i] }

// NumFields returns the number of fields.
func (l *RowLayout) NumFields() int { return len(l.fields) }

// RowSize returns the byte size of one row.
func (l *RowLayout) RowSize() int { return l.rowSize }

// Index returns the position of the named field, or -1.
func (l *RowLayout) Index(name string) int {
	if i, ok := l.index[name]; ok {
		return i
	}
	return -1
}

// Names returns the field names in declaration order.
func (l *RowLayout) Names() []string {
	names := make([]string, len(l.fields))
	for i, f := range l.fields {
		names[i] = f.Name
	}
	return names
}

// Equal reports whether l and o describe the same row.
func (l *RowLayout) Equal(o *RowLayout) bool {
	if l == o {
		return true
	}
	if l == nil || o == nil || l.rowSize != o.rowSize || len(l.fields) != len(o.fields) {
		return false
	}
	for i := range l.fields {
		if l.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

func (l *RowLayout) String() string {
	return fmt.Sprintf("RowLayout(%d fields, %d bytes)", len(l.fields), l.rowSize)
}
