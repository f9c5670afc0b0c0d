package recfile

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func TestJSONLExporter(t *testing.T) {
	recs := makeObs(t, 3)
	var buf bytes.Buffer
	if err := NewJSONLExporter().Export(&buf, recs); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var lines []map[string]any
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var m map[string]any
		if err := jsonCodec.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %d: %v", len(lines), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	row := lines[2]
	if row["id"] != float64(102) || row["name"] != "gamma" {
		t.Errorf("row 2 = %v", row)
	}
	mag, ok := row["mag"].([]any)
	if !ok || len(mag) != 3 || mag[1] != 2.25 {
		t.Errorf("row 2 mag = %v, want [2 2.25 2.5]", row["mag"])
	}
}

func TestParquetExporter(t *testing.T) {
	recs := makeObs(t, 4)
	for _, codec := range []ParquetCompression{
		ParquetCompressionNone, ParquetCompressionSnappy, ParquetCompressionGzip, ParquetCompressionZstd,
	} {
		var buf bytes.Buffer
		if err := NewParquetExporter(WithParquetCompression(codec)).Export(&buf, recs); err != nil {
			t.Fatalf("compression %d: Export failed: %v", codec, err)
		}

		file, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		if err != nil {
			t.Fatalf("compression %d: OpenFile failed: %v", codec, err)
		}
		if file.NumRows() != 4 {
			t.Errorf("compression %d: NumRows() = %d, want 4", codec, file.NumRows())
		}
	}
}

func TestParquetExporter_Values(t *testing.T) {
	recs := makeObs(t, 2)
	var buf bytes.Buffer
	if err := NewParquetExporter().Export(&buf, recs); err != nil {
		t.Fatal(err)
	}
	file, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}

	// Columns are ordered by name: flux, id, mag, name.
	reader := parquet.NewReader(file)
	defer func() { _ = reader.Close() }()
	rows := make([]parquet.Row, 2)
	n, err := reader.ReadRows(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("ReadRows failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("read %d rows, want 2", n)
	}

	var ids []int32
	var mags []float32
	var names []string
	for _, v := range rows[1] {
		switch v.Column() {
		case 1:
			ids = append(ids, v.Int32())
		case 2:
			mags = append(mags, v.Float())
		case 3:
			names = append(names, string(v.ByteArray()))
		}
	}
	if len(ids) != 1 || ids[0] != 101 {
		t.Errorf("id = %v, want [101]", ids)
	}
	if len(mags) != 3 || mags[2] != 1.5 {
		t.Errorf("mag = %v, want [1 1.25 1.5]", mags)
	}
	if len(names) != 1 || names[0] != "beta" {
		t.Errorf("name = %v, want [beta]", names)
	}
}

func TestParseParquetCompression(t *testing.T) {
	if c, err := ParseParquetCompression("zstd"); err != nil || c != ParquetCompressionZstd {
		t.Errorf("zstd = %v, %v", c, err)
	}
	if _, err := ParseParquetCompression("brotli"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("brotli error = %v, want ErrInvalidInput", err)
	}
}

func TestExporterByName(t *testing.T) {
	for _, name := range []string{"jsonl", "parquet"} {
		e, err := ExporterByName(name)
		if err != nil || e.Name() != name {
			t.Errorf("ExporterByName(%q) = %v, %v", name, e, err)
		}
	}
	if _, err := ExporterByName("csv"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("csv error = %v, want ErrInvalidInput", err)
	}
}
