package recfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// sessionMode is the state of a session.
type sessionMode int

const (
	modeUnopened sessionMode = iota
	modeRead
	modeWrite
	modeClosed
)

// Stats counts the transfers a session performed.
type Stats struct {
	BulkReads    int64 // whole-file transfers
	RowReads     int64 // whole-row transfers
	FieldReads   int64 // per-field transfers (binary or text)
	Seeks        int64 // relative seeks over rows, fields or padding
	RowsSkipped  int64
	BytesRead    int64 // binary bytes transferred into records
	BytesWritten int64
}

// Session is an open record file.
//
// A read session knows the file's layout and row count and serves subsets of
// rows and fields. A write session serializes Records in the layout they
// carry. A Session is not safe for concurrent use.
type Session struct {
	mode  sessionMode
	repr  Representation
	delim string

	r      io.ReadSeeker
	w      io.Writer
	closer io.Closer // set only when the session opened the handle
	origin int64

	layout   *RowLayout
	rowCount int64
	formats  *Formats

	cfg   *sessionConfig
	stats Stats
}

// -----------------------------------------------------------------------------
// Construction
// -----------------------------------------------------------------------------

// OpenRead opens the file at path for reading rows of layout. An empty delim
// selects the binary representation. The session owns the file and closes it
// on Close.
func OpenRead(path, delim string, layout *RowLayout, rowCount int64, opts ...Option) (*Session, error) {
	if err := checkSchema(layout, rowCount); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recfile: open %s: %w", path, err)
	}
	s, err := NewReader(f, delim, layout, rowCount, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// NewReader starts a read session on an already open handle. Rows begin at
// the handle's current position unless WithOffset says otherwise. The handle
// is not closed by the session.
func NewReader(h io.ReadSeeker, delim string, layout *RowLayout, rowCount int64, opts ...Option) (*Session, error) {
	if err := checkSchema(layout, rowCount); err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("recfile: %w: nil handle", ErrInvalidInput)
	}
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		if err := opt.applyReader(cfg); err != nil {
			return nil, fmt.Errorf("recfile: %w", err)
		}
	}

	origin := cfg.offset
	if !cfg.hasOffset {
		pos, err := h.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, fmt.Errorf("recfile: locate first row: %w", err)
		}
		origin = pos
	}

	s := &Session{
		mode:     modeRead,
		repr:     representationFor(delim),
		delim:    delim,
		r:        h,
		origin:   origin,
		layout:   layout,
		rowCount: rowCount,
		cfg:      cfg,
	}
	if s.repr == Text {
		s.formats = BuildFormats(delim)
	}
	s.trace("open read: %s, %d rows of %d bytes, %d fields", s.repr, rowCount, layout.rowSize, len(layout.fields))
	return s, nil
}

func checkSchema(layout *RowLayout, rowCount int64) error {
	if layout == nil {
		return fmt.Errorf("recfile: %w: no layout", ErrMissingSchema)
	}
	if rowCount < 1 {
		return fmt.Errorf("recfile: %w: row count %d", ErrMissingSchema, rowCount)
	}
	return nil
}

// OpenWrite creates (or truncates) the file at path for writing. With
// WithAppend an existing file is extended instead. An empty delim selects the
// binary representation.
func OpenWrite(path, delim string, opts ...Option) (*Session, error) {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		if err := opt.applyWriter(cfg); err != nil {
			return nil, fmt.Errorf("recfile: %w", err)
		}
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if cfg.append {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("recfile: create %s: %w", path, err)
	}
	s := newWriter(f, delim, cfg)
	s.closer = f
	return s, nil
}

// NewWriter starts a write session on an already open handle. The handle is
// not closed by the session.
func NewWriter(h io.Writer, delim string, opts ...Option) (*Session, error) {
	if h == nil {
		return nil, fmt.Errorf("recfile: %w: nil handle", ErrInvalidInput)
	}
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		if err := opt.applyWriter(cfg); err != nil {
			return nil, fmt.Errorf("recfile: %w", err)
		}
	}
	return newWriter(h, delim, cfg), nil
}

func newWriter(h io.Writer, delim string, cfg *sessionConfig) *Session {
	s := &Session{
		mode:  modeWrite,
		repr:  representationFor(delim),
		delim: delim,
		w:     h,
		cfg:   cfg,
	}
	if s.repr == Text {
		s.formats = BuildFormats(delim)
	}
	s.trace("open write: %s", s.repr)
	return s
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// Representation returns the on-disk representation.
func (s *Session) Representation() Representation { return s.repr }

// Delimiter returns the text delimiter, or "" for binary sessions.
func (s *Session) Delimiter() string { return s.delim }

// Layout returns the file layout of a read session (nil for writers).
func (s *Session) Layout() *RowLayout { return s.layout }

// RowCount returns the declared row count of a read session.
func (s *Session) RowCount() int64 { return s.rowCount }

// Stats returns the transfer counters accumulated so far.
func (s *Session) Stats() Stats { return s.stats }

func (s *Session) check(want sessionMode) error {
	switch s.mode {
	case modeUnopened, modeClosed:
		return fmt.Errorf("recfile: %w", ErrNotOpen)
	case want:
		return nil
	default:
		return fmt.Errorf("recfile: %w", ErrWrongMode)
	}
}

func (s *Session) trace(format string, args ...any) {
	if s.cfg == nil || s.cfg.tracer == nil {
		return
	}
	s.cfg.tracer.Trace(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------
// Read
// -----------------------------------------------------------------------------

// Read returns the selected rows restricted to the selected fields.
//
// A nil rows slice selects every row; otherwise rows are served in the given
// order and may repeat. No field names selects every field. The returned
// Records use the subset layout. On a transfer failure Read returns the
// partially filled Records together with the error.
func (s *Session) Read(rows []int64, fields ...string) (*Records, error) {
	if err := s.check(modeRead); err != nil {
		return nil, err
	}
	sel, err := Subset(s.layout, fields...)
	if err != nil {
		return nil, fmt.Errorf("recfile: %w", err)
	}
	rs, err := NewRowSelection(rows, s.rowCount)
	if err != nil {
		return nil, fmt.Errorf("recfile: %w", err)
	}
	plan, err := PlanRead(s.repr, sel, rs)
	if err != nil {
		return nil, fmt.Errorf("recfile: %w", err)
	}
	if s.formats != nil {
		if err := s.formats.check(s.layout); err != nil {
			return nil, fmt.Errorf("recfile: %w", err)
		}
	}

	out := NewRecords(sel.Layout, int(rs.Len()))
	s.trace("read %d of %d rows, %d of %d fields: %s", rs.Len(), s.rowCount, len(sel.Index), len(sel.Keep), plan.Strategy)

	if _, err := s.r.Seek(s.origin, io.SeekStart); err != nil {
		return out, fmt.Errorf("recfile: %w: seek to first row: %w", ErrIO, err)
	}

	switch plan.Strategy {
	case WholeFileBinary:
		err = s.readWholeFile(out)
	case PerFieldText:
		err = s.readText(plan, out)
	default:
		err = s.readBinaryRows(plan, out)
	}
	if err != nil {
		return out, fmt.Errorf("recfile: %w", err)
	}
	return out, nil
}

// readText scans each selected row field by field, skipping unselected rows
// by line.
func (s *Session) readText(plan *ReadPlan, out *Records) error {
	tr := newTextReader(bufio.NewReaderSize(s.r, s.cfg.bufferSize), s.formats)
	sub := plan.Fields.Layout
	return plan.walk(func(i int64, st Step) error {
		if st.Skip > 0 {
			if err := tr.skipRows(st.Skip); err != nil {
				return fmt.Errorf("skipping %d rows before row %d: %w", st.Skip, st.Row, err)
			}
			s.stats.RowsSkipped += st.Skip
		}
		dst := out.Row(int(i))
		j := 0
		last := len(s.layout.fields) - 1
		for k, f := range s.layout.fields {
			op := opSkip
			var slot []byte
			if plan.Fields.Keep[k] {
				sf := sub.fields[j]
				j++
				op = opRead
				slot = dst[sf.Offset : sf.Offset+sf.Size]
			}
			if err := tr.readField(f, slot, k == last); err != nil {
				return &FieldError{Op: op, Field: f.Name, Row: st.Row, Err: err}
			}
			s.stats.FieldReads++
		}
		return nil
	})
}

// -----------------------------------------------------------------------------
// Write
// -----------------------------------------------------------------------------

// Write serializes every row of recs in recs' own layout. Binary sessions
// write the arena in one transfer; text sessions print one line per row.
func (s *Session) Write(recs *Records, opts ...WriteOption) error {
	if err := s.check(modeWrite); err != nil {
		return err
	}
	if recs == nil || recs.layout == nil {
		return fmt.Errorf("recfile: %w: nil records", ErrInvalidInput)
	}
	var cfg writeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	s.trace("write %d rows of %d bytes: %s", recs.n, recs.layout.rowSize, s.repr)

	var err error
	if s.repr == Binary {
		err = s.writeBinary(recs)
	} else {
		err = s.writeText(recs, cfg)
	}
	if err != nil {
		return fmt.Errorf("recfile: %w", err)
	}
	return nil
}

func (s *Session) writeBinary(recs *Records) error {
	n, err := s.w.Write(recs.data)
	s.stats.BytesWritten += int64(n)
	if err == nil && n != len(recs.data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return fmt.Errorf("%w: wrote %d of %d bytes: %w", ErrIO, n, len(recs.data), err)
	}
	return nil
}

func (s *Session) writeText(recs *Records, cfg writeConfig) error {
	if err := s.formats.check(recs.layout); err != nil {
		return err
	}
	cw := &countingWriter{w: s.w}
	bw := bufio.NewWriterSize(cw, s.cfg.bufferSize)
	tw := newTextWriter(bw, s.formats, cfg)
	for i := 0; i < recs.n; i++ {
		if err := tw.writeRow(recs.layout, int64(i), recs.Row(i)); err != nil {
			s.stats.BytesWritten += cw.n
			return err
		}
	}
	err := bw.Flush()
	s.stats.BytesWritten += cw.n
	if err != nil {
		return fmt.Errorf("%w: flush: %w", ErrIO, err)
	}
	return nil
}

// countingWriter tracks bytes that reach the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// -----------------------------------------------------------------------------
// Close
// -----------------------------------------------------------------------------

// Close ends the session. The underlying handle is closed only if the session
// opened it. Close is idempotent.
func (s *Session) Close() error {
	if s.mode == modeUnopened || s.mode == modeClosed {
		return nil
	}
	s.mode = modeClosed
	s.trace("close")
	c := s.closer
	s.closer, s.r, s.w = nil, nil, nil
	if c == nil {
		return nil
	}
	if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("recfile: close: %w", err)
	}
	return nil
}
