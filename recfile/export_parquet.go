package recfile

import (
	"bytes"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// ParquetCompression specifies internal Parquet page compression.
type ParquetCompression int

// Parquet compression options.
const (
	ParquetCompressionNone ParquetCompression = iota
	ParquetCompressionSnappy
	ParquetCompressionGzip
	ParquetCompressionZstd
)

// ParquetOption configures the Parquet exporter.
type ParquetOption func(*parquetExporter)

// WithParquetCompression sets internal Parquet compression. Default: Snappy.
func WithParquetCompression(codec ParquetCompression) ParquetOption {
	return func(e *parquetExporter) {
		e.compression = codec
	}
}

// ParseParquetCompression maps "none", "snappy", "gzip" or "zstd" to a
// ParquetCompression.
func ParseParquetCompression(s string) (ParquetCompression, error) {
	switch s {
	case "", "snappy":
		return ParquetCompressionSnappy, nil
	case "none":
		return ParquetCompressionNone, nil
	case "gzip":
		return ParquetCompressionGzip, nil
	case "zstd":
		return ParquetCompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: unknown parquet compression %q", ErrInvalidInput, s)
	}
}

// -----------------------------------------------------------------------------
// Parquet exporter
// -----------------------------------------------------------------------------

type parquetExporter struct {
	compression ParquetCompression
}

// NewParquetExporter creates an exporter that writes all rows as a single
// Parquet row group.
//
// The schema is derived from the records' layout: each field becomes a
// required column of the matching physical type, array fields become
// repeated columns and String fields become UTF8 byte arrays.
func NewParquetExporter(opts ...ParquetOption) Exporter {
	e := &parquetExporter{compression: ParquetCompressionSnappy}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *parquetExporter) Name() string { return "parquet" }

func (e *parquetExporter) Export(w io.Writer, recs *Records) error {
	if recs == nil {
		return fmt.Errorf("parquet: %w: nil records", ErrInvalidInput)
	}
	layout := recs.Layout()
	schema := parquetSchemaFor(layout)

	// Columns are ordered by name in the schema; map each to its field.
	cols := schema.Fields()
	order := make([]int, len(cols))
	for i, c := range cols {
		order[i] = layout.Index(c.Name())
	}

	rowBuf := parquet.NewBuffer(schema)
	for i := 0; i < recs.Len(); i++ {
		row := make(parquet.Row, 0, len(cols))
		data := recs.Row(i)
		for col, fi := range order {
			row = appendFieldValues(row, layout.fields[fi], data, col)
		}
		if _, err := rowBuf.WriteRows([]parquet.Row{row}); err != nil {
			return fmt.Errorf("parquet: write row %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	pqWriter := parquet.NewWriter(&buf, schema, e.compressionOption())
	if _, err := pqWriter.WriteRowGroup(rowBuf); err != nil {
		_ = pqWriter.Close()
		return fmt.Errorf("parquet: write row group: %w", err)
	}
	if err := pqWriter.Close(); err != nil {
		return fmt.Errorf("parquet: close writer: %w", err)
	}

	_, err := io.Copy(w, &buf)
	return err
}

func (e *parquetExporter) compressionOption() parquet.WriterOption {
	switch e.compression {
	case ParquetCompressionSnappy:
		return parquet.Compression(&parquet.Snappy)
	case ParquetCompressionGzip:
		return parquet.Compression(&parquet.Gzip)
	case ParquetCompressionZstd:
		return parquet.Compression(&parquet.Zstd)
	default:
		return parquet.Compression(&parquet.Uncompressed)
	}
}

// parquetSchemaFor builds a parquet schema from a layout.
func parquetSchemaFor(l *RowLayout) *parquet.Schema {
	group := make(parquet.Group, len(l.fields))
	for _, f := range l.fields {
		node := parquetNode(f.Type)
		if f.Count > 1 {
			node = parquet.Repeated(node)
		}
		group[f.Name] = node
	}
	return parquet.NewSchema("record", group)
}

func parquetNode(t TypeID) parquet.Node {
	switch {
	case t.signed():
		return parquet.Int(t.bits())
	case t.unsigned():
		return parquet.Uint(t.bits())
	case t == Float32:
		return parquet.Leaf(parquet.FloatType)
	case t == Float64:
		return parquet.Leaf(parquet.DoubleType)
	case t == String:
		return parquet.String()
	default:
		return parquet.Leaf(parquet.ByteArrayType)
	}
}

// appendFieldValues appends every element of f in row data as leveled
// values of column col.
func appendFieldValues(row parquet.Row, f FieldDescriptor, data []byte, col int) parquet.Row {
	stride := f.Stride()
	for e := 0; e < f.Count; e++ {
		off := f.Offset + e*stride
		v := parquetValue(f.Type, data[off:off+stride])
		switch {
		case f.Count == 1:
			row = append(row, v.Level(0, 0, col))
		case e == 0:
			row = append(row, v.Level(0, 1, col))
		default:
			row = append(row, v.Level(1, 1, col))
		}
	}
	return row
}

// parquetValue converts one native element. Unsigned values keep their bit
// pattern in the signed physical type, as the unsigned annotation requires.
func parquetValue(t TypeID, b []byte) parquet.Value {
	switch t {
	case Int8, Int16, Int32:
		return parquet.Int32Value(int32(getInt(b, t.bits())))
	case Int64:
		return parquet.Int64Value(getInt(b, 64))
	case Uint8, Uint16, Uint32:
		return parquet.Int32Value(int32(uint32(getUint(b, t.bits()))))
	case Uint64:
		return parquet.Int64Value(int64(getUint(b, 64)))
	case Float32:
		return parquet.FloatValue(float32(getFloat(b, 32)))
	case Float64:
		return parquet.DoubleValue(getFloat(b, 64))
	case String:
		return parquet.ByteArrayValue(trimNul(b))
	default:
		return parquet.ByteArrayValue(b)
	}
}
