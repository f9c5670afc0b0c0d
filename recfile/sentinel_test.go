package recfile

import (
	"errors"
	"testing"
)

func TestSentinelErrors_ErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrNotOpen", ErrNotOpen, "session not open"},
		{"ErrWrongMode", ErrWrongMode, "session opened in the other mode"},
		{"ErrMissingSchema", ErrMissingSchema, "layout and row count are required for reading"},
		{"ErrInvalidLayout", ErrInvalidLayout, "invalid layout"},
		{"ErrEmptySelection", ErrEmptySelection, "none of the requested field names matched"},
		{"ErrUnmatchedFieldType", ErrUnmatchedFieldType, "no text format for field type"},
		{"ErrIO", ErrIO, "short transfer"},
		{"ErrFieldRead", ErrFieldRead, "error reading field"},
		{"ErrFieldWrite", ErrFieldWrite, "error writing field"},
		{"ErrUnexpectedEOF", ErrUnexpectedEOF, "end of file reached unexpectedly"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.want {
				t.Errorf("%s.Error() = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestFieldError(t *testing.T) {
	cause := errors.New("boom")
	read := &FieldError{Op: opSkip, Field: "flux", Row: 3, Err: cause}
	if !errors.Is(read, ErrFieldRead) || errors.Is(read, ErrFieldWrite) {
		t.Error("skip failure should match ErrFieldRead only")
	}
	if !errors.Is(read, cause) {
		t.Error("FieldError does not unwrap to its cause")
	}
	if got, want := read.Error(), `skip field "flux" (row 3): boom`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	write := &FieldError{Op: opWrite, Field: "name", Err: cause}
	if !errors.Is(write, ErrFieldWrite) || errors.Is(write, ErrFieldRead) {
		t.Error("write failure should match ErrFieldWrite only")
	}
}
