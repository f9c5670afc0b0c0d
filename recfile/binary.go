package recfile

import (
	"fmt"
	"io"
)

// readWholeFile transfers every row in a single read.
func (s *Session) readWholeFile(out *Records) error {
	n, err := io.ReadFull(s.r, out.data)
	s.stats.BulkReads++
	s.stats.BytesRead += int64(n)
	if err != nil {
		return fmt.Errorf("%w: read %d of %d bytes: %w", ErrIO, n, len(out.data), eofAware(err))
	}
	return nil
}

// readBinaryRows walks the selected rows, seeking over the ones in between.
func (s *Session) readBinaryRows(plan *ReadPlan, out *Records) error {
	rowSize := int64(s.layout.rowSize)
	return plan.walk(func(i int64, st Step) error {
		if st.Skip != 0 {
			if err := s.seek(st.Skip * rowSize); err != nil {
				return fmt.Errorf("%w: skipping %d rows before row %d: %w", ErrIO, st.Skip, st.Row, err)
			}
			s.stats.RowsSkipped += st.Skip
		}
		dst := out.Row(int(i))
		if plan.Strategy == WholeRowBinary {
			return s.readRow(st.Row, dst)
		}
		return s.readFields(plan.Fields, st.Row, dst)
	})
}

// readRow transfers one full row.
func (s *Session) readRow(row int64, dst []byte) error {
	n, err := io.ReadFull(s.r, dst)
	s.stats.RowReads++
	s.stats.BytesRead += int64(n)
	if err != nil {
		return fmt.Errorf("%w: row %d: read %d of %d bytes: %w", ErrIO, row, n, len(dst), eofAware(err))
	}
	return nil
}

// readFields transfers the kept fields of one row into dst, which is laid out
// by the subset layout. Dropped fields, gaps and trailing padding are seeked
// over so the handle ends at the start of the next row.
func (s *Session) readFields(sel *FieldSelection, row int64, dst []byte) error {
	sub := sel.Layout
	pos := 0
	j := 0
	for i, f := range s.layout.fields {
		end := f.Offset + f.Size
		if !sel.Keep[i] {
			if err := s.seek(int64(end - pos)); err != nil {
				return &FieldError{Op: opSkip, Field: f.Name, Row: row, Err: err}
			}
			pos = end
			continue
		}
		if gap := f.Offset - pos; gap != 0 {
			if err := s.seek(int64(gap)); err != nil {
				return &FieldError{Op: opSkip, Field: f.Name, Row: row, Err: err}
			}
		}
		sf := sub.fields[j]
		j++
		n, err := io.ReadFull(s.r, dst[sf.Offset:sf.Offset+sf.Size])
		s.stats.FieldReads++
		s.stats.BytesRead += int64(n)
		if err != nil {
			return &FieldError{Op: opRead, Field: f.Name, Row: row, Err: eofAware(err)}
		}
		pos = end
	}
	if tail := s.layout.rowSize - pos; tail != 0 {
		if err := s.seek(int64(tail)); err != nil {
			return fmt.Errorf("%w: row %d padding: %w", ErrIO, row, err)
		}
	}
	return nil
}

// seek moves the handle by delta bytes from its current position.
func (s *Session) seek(delta int64) error {
	if delta == 0 {
		return nil
	}
	s.stats.Seeks++
	_, err := s.r.Seek(delta, io.SeekCurrent)
	return err
}
