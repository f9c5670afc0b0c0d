// Package recfile reads and writes fixed-layout record files.
//
// A record file is a sequence of rows that all share one RowLayout: an
// ordered list of named fields with byte offsets, byte sizes, element counts
// and primitive types. Files are stored either as packed binary rows in the
// host's native byte order, or as delimited text with one row per line.
//
// Reads may select a subset of rows and a subset of fields without
// materializing the skipped data. Binary files skip by seeking; text files
// skip by scanning for newlines.
package recfile

import (
	"errors"
	"fmt"
	"io"
)

// -----------------------------------------------------------------------------
// Representation
// -----------------------------------------------------------------------------

// Representation identifies how rows are laid out on disk.
type Representation int

const (
	// Binary stores rows as a flat concatenation of fixed-size records.
	Binary Representation = iota

	// Text stores one row per line, elements separated by a delimiter.
	Text
)

func (r Representation) String() string {
	switch r {
	case Binary:
		return "binary"
	case Text:
		return "text"
	default:
		return fmt.Sprintf("Representation(%d)", int(r))
	}
}

// representationFor derives the on-disk representation from a delimiter.
// An empty delimiter selects binary; anything else selects text.
func representationFor(delim string) Representation {
	if delim == "" {
		return Binary
	}
	return Text
}

// -----------------------------------------------------------------------------
// Exporter interface
// -----------------------------------------------------------------------------

// Exporter serializes records into a foreign format.
//
// Exporters are orthogonal to sessions: a session produces Records, an
// exporter renders them.
type Exporter interface {
	// Name returns the exporter identifier (for example, "jsonl" or "parquet").
	Name() string

	// Export writes all rows of recs to w.
	Export(w io.Writer, recs *Records) error
}

// -----------------------------------------------------------------------------
// Compressor interface
// -----------------------------------------------------------------------------

// Compressor handles compression and decompression of export streams.
//
// Record files themselves are never compressed; compressors only wrap the
// output of exporters.
type Compressor interface {
	// Name returns the compressor identifier (for example, "gzip", "zstd", "noop").
	Name() string

	// Extension returns the file extension (for example, ".gz", ".zst", "").
	Extension() string

	// Compress wraps a writer with compression.
	Compress(w io.Writer) (io.WriteCloser, error)

	// Decompress wraps a reader with decompression.
	Decompress(r io.Reader) (io.ReadCloser, error)
}

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

// Error sentinel values. All errors returned by this package wrap one of
// these and can be tested with errors.Is.
var (
	// ErrNotOpen indicates an operation on a closed or unopened session.
	ErrNotOpen = errors.New("session not open")

	// ErrWrongMode indicates a read on a write session or a write on a read session.
	ErrWrongMode = errors.New("session opened in the other mode")

	// ErrMissingSchema indicates a read-open without a layout or row count.
	ErrMissingSchema = errors.New("layout and row count are required for reading")

	// ErrInvalidLayout indicates a malformed row layout.
	ErrInvalidLayout = errors.New("invalid layout")

	// ErrEmptySelection indicates a field selection that matched no fields.
	ErrEmptySelection = errors.New("none of the requested field names matched")

	// ErrUnmatchedFieldType indicates a primitive type with no text codec.
	ErrUnmatchedFieldType = errors.New("no text format for field type")

	// ErrIO indicates a short bulk transfer.
	ErrIO = errors.New("short transfer")

	// ErrFieldRead indicates a failure reading or skipping a named field.
	ErrFieldRead = errors.New("error reading field")

	// ErrFieldWrite indicates a failure writing a named field.
	ErrFieldWrite = errors.New("error writing field")

	// ErrUnexpectedEOF indicates the stream ended before a skip or field read completed.
	ErrUnexpectedEOF = errors.New("end of file reached unexpectedly")

	// ErrInvalidInput indicates a row or field selector of the wrong shape.
	ErrInvalidInput = errors.New("invalid input")
)

// FieldError reports a failure tied to one field of one row.
//
// A FieldError matches ErrFieldRead for read and skip failures and
// ErrFieldWrite for write failures. The underlying cause is available via
// errors.Unwrap; end-of-stream causes are reported as ErrUnexpectedEOF.
type FieldError struct {
	Op    string // "read", "skip" or "write"
	Field string
	Row   int64
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s field %q (row %d): %v", e.Op, e.Field, e.Row, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Is reports whether target is the field sentinel matching e.Op.
func (e *FieldError) Is(target error) bool {
	switch target {
	case ErrFieldRead:
		return e.Op != opWrite
	case ErrFieldWrite:
		return e.Op == opWrite
	}
	return false
}

const (
	opRead  = "read"
	opSkip  = "skip"
	opWrite = "write"
)

// eofAware maps end-of-stream conditions onto ErrUnexpectedEOF.
func eofAware(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrUnexpectedEOF
	}
	return err
}
