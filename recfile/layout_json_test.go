package recfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLayoutJSON_RoundTrip(t *testing.T) {
	l := obsLayout(t)

	var buf bytes.Buffer
	if err := EncodeLayout(&buf, l); err != nil {
		t.Fatalf("EncodeLayout failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"float32"`) {
		t.Errorf("encoded layout lacks type names:\n%s", buf.String())
	}

	got, err := DecodeLayout(&buf)
	if err != nil {
		t.Fatalf("DecodeLayout failed: %v", err)
	}
	if !got.Equal(l) {
		t.Errorf("round trip = %v, want %v", got.Fields(), l.Fields())
	}
}

func TestDecodeLayout_Packed(t *testing.T) {
	doc := `{"fields":[
		{"name":"id","type":"int64"},
		{"name":"tag","type":"string","width":8},
		{"name":"xyz","type":"float32","count":3}
	]}`
	l, err := DecodeLayout(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("DecodeLayout failed: %v", err)
	}
	if l.RowSize() != 8+8+12 {
		t.Errorf("RowSize() = %d, want 28", l.RowSize())
	}
	if f := l.Field(2); f.Offset != 16 || f.Count != 3 {
		t.Errorf("xyz = %+v", f)
	}
}

func TestDecodeLayout_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"unknown type", `{"fields":[{"name":"a","type":"int128"}]}`},
		{"overlap", `{"row_size":8,"fields":[{"name":"a","offset":0,"size":8,"type":"int64"},{"name":"b","offset":4,"size":4,"type":"int32"}]}`},
		{"no fields", `{"row_size":8,"fields":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeLayout(strings.NewReader(tt.doc)); !errors.Is(err, ErrInvalidLayout) {
				t.Errorf("error = %v, want ErrInvalidLayout", err)
			}
		})
	}
}

func TestLoadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "obs.layout.json")
	var buf bytes.Buffer
	if err := EncodeLayout(&buf, obsLayout(t)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("LoadLayout failed: %v", err)
	}
	if l.RowSize() != 40 {
		t.Errorf("RowSize() = %d, want 40", l.RowSize())
	}
	if _, err := LoadLayout(filepath.Join(t.TempDir(), "absent.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}
