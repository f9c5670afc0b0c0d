package recfile

import (
	"fmt"
	"io"
	"os"
)

// layoutDoc is the JSON form of a RowLayout.
type layoutDoc struct {
	RowSize int        `json:"row_size"`
	Fields  []fieldDoc `json:"fields"`
}

type fieldDoc struct {
	Name   string `json:"name"`
	Offset int    `json:"offset,omitempty"`
	Size   int    `json:"size,omitempty"`
	Count  int    `json:"count,omitempty"`
	Type   string `json:"type"`
	Width  int    `json:"width,omitempty"`
}

// EncodeLayout writes l as JSON.
func EncodeLayout(w io.Writer, l *RowLayout) error {
	doc := layoutDoc{RowSize: l.rowSize, Fields: make([]fieldDoc, len(l.fields))}
	for i, f := range l.fields {
		doc.Fields[i] = fieldDoc{
			Name:   f.Name,
			Offset: f.Offset,
			Size:   f.Size,
			Count:  f.Count,
			Type:   f.Type.String(),
		}
	}
	enc := jsonCodec.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// DecodeLayout reads a JSON layout.
//
// With a positive row_size the fields are taken as explicit descriptors and
// validated by NewRowLayout. With row_size 0 (or absent) the fields are
// packed in order as by DescribeRow; each needs a type, an optional count and,
// for strings, a width.
func DecodeLayout(r io.Reader) (*RowLayout, error) {
	var doc layoutDoc
	if err := jsonCodec.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidLayout, err)
	}

	if doc.RowSize == 0 {
		specs := make([]FieldSpec, len(doc.Fields))
		for i, fd := range doc.Fields {
			t, err := ParseTypeID(fd.Type)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", fd.Name, err)
			}
			specs[i] = FieldSpec{Name: fd.Name, Type: t, Count: fd.Count, Width: fd.Width}
		}
		return DescribeRow(specs...)
	}

	fields := make([]FieldDescriptor, len(doc.Fields))
	for i, fd := range doc.Fields {
		t, err := ParseTypeID(fd.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fd.Name, err)
		}
		count := fd.Count
		if count == 0 {
			count = 1
		}
		fields[i] = FieldDescriptor{Name: fd.Name, Offset: fd.Offset, Size: fd.Size, Count: count, Type: t}
	}
	return NewRowLayout(fields, doc.RowSize)
}

// LoadLayout reads a JSON layout from the file at path.
func LoadLayout(path string) (*RowLayout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recfile: open layout: %w", err)
	}
	defer closer(f)()
	return DecodeLayout(f)
}
