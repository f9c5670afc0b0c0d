package recfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// -----------------------------------------------------------------------------
// Format table
// -----------------------------------------------------------------------------

// elemFormat converts one element between its native bytes and text.
// String elements have no scan or print function: they are transferred
// byte for byte.
type elemFormat struct {
	verb  string
	width int
	scan  func(tok, dst []byte) error
	print func(buf, src []byte) []byte
}

// Formats is the per-session table of text conversions, one entry per
// TypeID, together with the delimiter settings.
type Formats struct {
	delim      []byte
	whitespace bool
	table      [typeIDMax]*elemFormat
}

// BuildFormats builds the conversion table for delim. A delimiter whose first
// byte is a space selects whitespace mode.
func BuildFormats(delim string) *Formats {
	f := &Formats{
		delim:      []byte(delim),
		whitespace: len(delim) > 0 && delim[0] == ' ',
	}
	for _, t := range []TypeID{Int8, Int16, Int32, Int64} {
		f.table[t] = intFormat(t.bits())
	}
	for _, t := range []TypeID{Uint8, Uint16, Uint32, Uint64} {
		f.table[t] = uintFormat(t.bits())
	}
	f.table[Float32] = floatFormat(32)
	f.table[Float64] = floatFormat(64)
	f.table[String] = &elemFormat{verb: "%s"}
	return f
}

func intFormat(bits int) *elemFormat {
	return &elemFormat{
		verb:  "%d",
		width: bits / 8,
		scan: func(tok, dst []byte) error {
			v, err := strconv.ParseInt(string(tok), 10, bits)
			if err != nil {
				return err
			}
			putInt(dst, bits, v)
			return nil
		},
		print: func(buf, src []byte) []byte {
			return strconv.AppendInt(buf, getInt(src, bits), 10)
		},
	}
}

func uintFormat(bits int) *elemFormat {
	return &elemFormat{
		verb:  "%u",
		width: bits / 8,
		scan: func(tok, dst []byte) error {
			v, err := strconv.ParseUint(string(tok), 10, bits)
			if err != nil {
				return err
			}
			putUint(dst, bits, v)
			return nil
		},
		print: func(buf, src []byte) []byte {
			return strconv.AppendUint(buf, getUint(src, bits), 10)
		},
	}
}

// Floats print in the shortest form that parses back to the same value.
func floatFormat(bits int) *elemFormat {
	return &elemFormat{
		verb:  "%g",
		width: bits / 8,
		scan: func(tok, dst []byte) error {
			v, err := strconv.ParseFloat(string(tok), bits)
			if err != nil {
				return err
			}
			putFloat(dst, bits, v)
			return nil
		},
		print: func(buf, src []byte) []byte {
			return strconv.AppendFloat(buf, getFloat(src, bits), 'g', -1, bits)
		},
	}
}

// Whitespace reports whether the table runs in whitespace mode.
func (f *Formats) Whitespace() bool { return f.whitespace }

// Delimiter returns the field delimiter.
func (f *Formats) Delimiter() string { return string(f.delim) }

// Verb returns the conventional conversion verb for t ("%d", "%u", "%g" or
// "%s"), failing with ErrUnmatchedFieldType when t has no entry.
func (f *Formats) Verb(t TypeID) (string, error) {
	ef, err := f.lookup(t)
	if err != nil {
		return "", err
	}
	return ef.verb, nil
}

func (f *Formats) lookup(t TypeID) (*elemFormat, error) {
	if !t.Valid() || f.table[t] == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnmatchedFieldType, t)
	}
	return f.table[t], nil
}

// check verifies that every field of l has a text conversion.
func (f *Formats) check(l *RowLayout) error {
	for _, fd := range l.fields {
		if _, err := f.lookup(fd.Type); err != nil {
			return fmt.Errorf("field %q: %w", fd.Name, err)
		}
	}
	return nil
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// -----------------------------------------------------------------------------
// Reading
// -----------------------------------------------------------------------------

// textReader scans delimited rows from a buffered stream.
type textReader struct {
	br      *bufio.Reader
	f       *Formats
	tok     []byte
	scratch []byte
}

func newTextReader(br *bufio.Reader, f *Formats) *textReader {
	return &textReader{br: br, f: f}
}

// skipRows consumes n newline-terminated lines.
func (t *textReader) skipRows(n int64) error {
	for n > 0 {
		_, err := t.br.ReadSlice('\n')
		switch {
		case err == nil:
			n--
		case errors.Is(err, bufio.ErrBufferFull):
		default:
			return eofAware(err)
		}
	}
	return nil
}

// readField scans every element of f into dst. A nil dst scans the field
// without storing it. last marks the final field of the row.
func (t *textReader) readField(f FieldDescriptor, dst []byte, last bool) error {
	ef, err := t.f.lookup(f.Type)
	if err != nil {
		return err
	}
	stride := f.Stride()
	for e := 0; e < f.Count; e++ {
		slot := t.slot(dst, e, stride)
		endOfRow := last && e == f.Count-1
		if f.Type == String {
			err = t.readBytes(slot, endOfRow)
		} else {
			err = t.scanNumber(ef, slot, endOfRow)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *textReader) slot(dst []byte, e, stride int) []byte {
	if dst != nil {
		return dst[e*stride : (e+1)*stride]
	}
	if cap(t.scratch) < stride {
		t.scratch = make([]byte, stride)
	}
	return t.scratch[:stride]
}

// readBytes copies exactly len(slot) raw bytes, then consumes the element
// terminator.
func (t *textReader) readBytes(slot []byte, endOfRow bool) error {
	if _, err := io.ReadFull(t.br, slot); err != nil {
		return eofAware(err)
	}
	if !t.f.whitespace {
		return t.finishElement(endOfRow)
	}
	b, err := t.br.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if !isSpace(b) {
		return fmt.Errorf("expected delimiter %q, found %q", t.f.delim, b)
	}
	t.afterBlank(b, endOfRow)
	return nil
}

// scanNumber parses one numeric token into slot and consumes what follows it.
func (t *textReader) scanNumber(ef *elemFormat, slot []byte, endOfRow bool) error {
	if err := t.skipSpace(); err != nil {
		return eofAware(err)
	}

	tok := t.tok[:0]
	for {
		b, err := t.br.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if isSpace(b) || (!t.f.whitespace && b == t.f.delim[0]) {
			_ = t.br.UnreadByte()
			break
		}
		tok = append(tok, b)
	}
	t.tok = tok
	if len(tok) == 0 {
		return fmt.Errorf("empty value before %q", t.f.delim)
	}
	if err := ef.scan(tok, slot); err != nil {
		return err
	}
	return t.finishElement(endOfRow)
}

func (t *textReader) skipSpace() error {
	for {
		b, err := t.br.ReadByte()
		if err != nil {
			return err
		}
		if !isSpace(b) {
			return t.br.UnreadByte()
		}
	}
}

// finishElement consumes the separator after an element.
//
// Whitespace mode consumes one blank, plus the rest of a multi-byte delimiter
// when it follows. At the end of a row, trailing blanks and the newline are
// consumed too so that row skipping stays aligned.
//
// Delimited mode skips blanks, then requires the delimiter between elements
// and a newline (or end of file) after the last element of the row.
func (t *textReader) finishElement(endOfRow bool) error {
	if t.f.whitespace {
		b, err := t.br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		t.afterBlank(b, endOfRow)
		return nil
	}

	for {
		b, err := t.br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		switch {
		case b == t.f.delim[0]:
			if endOfRow {
				return fmt.Errorf("expected end of row, found delimiter %q", t.f.delim)
			}
			return t.restOfDelim()
		case b == '\n':
			if !endOfRow {
				return fmt.Errorf("expected delimiter %q, found end of row", t.f.delim)
			}
			return nil
		case b == ' ', b == '\t', b == '\r':
		default:
			return fmt.Errorf("expected delimiter %q, found %q", t.f.delim, b)
		}
	}
}

// afterBlank finishes a whitespace-mode separator whose first byte b has
// already been consumed.
func (t *textReader) afterBlank(b byte, endOfRow bool) {
	switch {
	case b == '\n':
	case endOfRow:
		t.eatLineEnd()
	case b == t.f.delim[0]:
		t.skipDelimTail()
	}
}

// eatLineEnd consumes trailing blanks and the newline, if nothing else is
// left on the line.
func (t *textReader) eatLineEnd() {
	for n := 1; ; n++ {
		p, err := t.br.Peek(n)
		if err != nil {
			return
		}
		switch p[n-1] {
		case ' ', '\t', '\r':
		case '\n':
			_, _ = t.br.Discard(n)
			return
		default:
			return
		}
	}
}

// restOfDelim consumes the bytes of a multi-byte delimiter after its first.
func (t *textReader) restOfDelim() error {
	rest := t.f.delim[1:]
	if len(rest) == 0 {
		return nil
	}
	got, err := t.br.Peek(len(rest))
	if err != nil || !bytes.Equal(got, rest) {
		return fmt.Errorf("expected delimiter %q", t.f.delim)
	}
	_, err = t.br.Discard(len(rest))
	return err
}

// skipDelimTail consumes the rest of a multi-byte delimiter if it is there.
func (t *textReader) skipDelimTail() {
	rest := t.f.delim[1:]
	if len(rest) == 0 {
		return
	}
	if got, err := t.br.Peek(len(rest)); err == nil && bytes.Equal(got, rest) {
		_, _ = t.br.Discard(len(rest))
	}
}

// -----------------------------------------------------------------------------
// Writing
// -----------------------------------------------------------------------------

// textWriter prints rows as delimited text.
type textWriter struct {
	bw  *bufio.Writer
	f   *Formats
	cfg writeConfig
	buf []byte
}

func newTextWriter(bw *bufio.Writer, f *Formats, cfg writeConfig) *textWriter {
	return &textWriter{bw: bw, f: f, cfg: cfg}
}

// writeRow prints one row. Every element is followed by the delimiter except
// the last element of the row, which is followed by a newline.
func (t *textWriter) writeRow(l *RowLayout, row int64, data []byte) error {
	last := len(l.fields) - 1
	for i, f := range l.fields {
		ef, err := t.f.lookup(f.Type)
		if err != nil {
			return &FieldError{Op: opWrite, Field: f.Name, Row: row, Err: err}
		}
		stride := f.Stride()
		for e := 0; e < f.Count; e++ {
			off := f.Offset + e*stride
			slot := data[off : off+stride]
			if f.Type == String {
				err = t.writeString(slot)
			} else {
				t.buf = ef.print(t.buf[:0], slot)
				_, err = t.bw.Write(t.buf)
			}
			if err == nil {
				if i == last && e == f.Count-1 {
					err = t.bw.WriteByte('\n')
				} else {
					_, err = t.bw.Write(t.f.delim)
				}
			}
			if err != nil {
				return &FieldError{Op: opWrite, Field: f.Name, Row: row, Err: err}
			}
		}
	}
	return nil
}

// writeString writes the element byte for byte. With ignoreNull the element
// ends at its first NUL; otherwise padNull turns NULs into spaces.
func (t *textWriter) writeString(slot []byte) error {
	for _, c := range slot {
		if c == 0 {
			if t.cfg.ignoreNull {
				return nil
			}
			if t.cfg.padNull {
				c = ' '
			}
		}
		if err := t.bw.WriteByte(c); err != nil {
			return err
		}
	}
	return nil
}
