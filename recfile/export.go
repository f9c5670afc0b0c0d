package recfile

import (
	"bufio"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// -----------------------------------------------------------------------------
// JSONL exporter
// -----------------------------------------------------------------------------

type jsonlExporter struct{}

// NewJSONLExporter creates an exporter that writes one JSON object per row.
// Keys are field names; array fields become JSON arrays and String elements
// lose their trailing NULs.
func NewJSONLExporter() Exporter {
	return jsonlExporter{}
}

func (jsonlExporter) Name() string { return "jsonl" }

func (jsonlExporter) Export(w io.Writer, recs *Records) error {
	if recs == nil {
		return fmt.Errorf("jsonl: %w: nil records", ErrInvalidInput)
	}
	bw := bufio.NewWriter(w)
	enc := jsonCodec.NewEncoder(bw)
	for i := 0; i < recs.Len(); i++ {
		m, err := recs.Map(i)
		if err != nil {
			return err
		}
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("jsonl: row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ExporterByName returns the exporter for "jsonl" or "parquet".
func ExporterByName(name string, opts ...ParquetOption) (Exporter, error) {
	switch name {
	case "jsonl":
		return NewJSONLExporter(), nil
	case "parquet":
		return NewParquetExporter(opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", ErrInvalidInput, name)
	}
}
