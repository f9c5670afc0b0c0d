package recfile

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// -----------------------------------------------------------------------------
// Test fixtures
// -----------------------------------------------------------------------------

// obsRow mirrors obsLayout in Go memory.
type obsRow struct {
	ID   int32      `rec:"id"`
	Flux float64    `rec:"flux"`
	Name [6]byte    `rec:"name"`
	Mag  [3]float32 `rec:"mag"`
}

// obsLayout has padding after id, after name and at the end of the row.
func obsLayout(t *testing.T) *RowLayout {
	t.Helper()
	l, err := NewRowLayout([]FieldDescriptor{
		{Name: "id", Offset: 0, Size: 4, Count: 1, Type: Int32},
		{Name: "flux", Offset: 8, Size: 8, Count: 1, Type: Float64},
		{Name: "name", Offset: 16, Size: 6, Count: 1, Type: String},
		{Name: "mag", Offset: 24, Size: 12, Count: 3, Type: Float32},
	}, 40)
	if err != nil {
		t.Fatalf("NewRowLayout failed: %v", err)
	}
	return l
}

var obsNames = []string{"alpha", "beta", "gamma", "delta", "eps", "zeta", "eta"}

// makeObs fills n rows with values derived from the row index.
func makeObs(t *testing.T, n int) *Records {
	t.Helper()
	recs := NewRecords(obsLayout(t), n)
	for i := 0; i < n; i++ {
		mustSet(t, recs, i, "id", 0, int32(100+i))
		mustSet(t, recs, i, "flux", 0, 1.5*float64(i)+0.1)
		mustSet(t, recs, i, "name", 0, obsNames[i%len(obsNames)])
		for e := 0; e < 3; e++ {
			mustSet(t, recs, i, "mag", e, float32(i)+float32(e)/4)
		}
	}
	return recs
}

func mustSet(t *testing.T, recs *Records, row int, name string, elem int, v any) {
	t.Helper()
	if err := recs.Set(row, name, elem, v); err != nil {
		t.Fatalf("Set(%d, %q, %d, %v) failed: %v", row, name, elem, v, err)
	}
}

func mustValue(t *testing.T, recs *Records, row int, name string, elem int) any {
	t.Helper()
	v, err := recs.Value(row, name, elem)
	if err != nil {
		t.Fatalf("Value(%d, %q, %d) failed: %v", row, name, elem, err)
	}
	return v
}

// writeAll serializes recs into a buffer using delim.
func writeAll(t *testing.T, recs *Records, delim string, opts ...WriteOption) []byte {
	t.Helper()
	var buf bytes.Buffer
	s, err := NewWriter(&buf, delim)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := s.Write(recs, opts...); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return buf.Bytes()
}

// -----------------------------------------------------------------------------
// Counting handle (test-only)
// -----------------------------------------------------------------------------

// countingHandle wraps a ReadSeeker and records every call made on it.
type countingHandle struct {
	inner  io.ReadSeeker
	reads  int
	seeks  int
	closes int
}

func newCountingHandle(data []byte) *countingHandle {
	return &countingHandle{inner: bytes.NewReader(data)}
}

func (c *countingHandle) Read(p []byte) (int, error) {
	c.reads++
	return c.inner.Read(p)
}

func (c *countingHandle) Seek(offset int64, whence int) (int64, error) {
	c.seeks++
	return c.inner.Seek(offset, whence)
}

func (c *countingHandle) Close() error {
	c.closes++
	return nil
}

// -----------------------------------------------------------------------------
// Fault writer (test-only)
// -----------------------------------------------------------------------------

var errInjected = errors.New("injected fault")

// faultWriter accepts limit bytes, then fails every write.
type faultWriter struct {
	limit int
	n     int
}

func (f *faultWriter) Write(p []byte) (int, error) {
	room := f.limit - f.n
	if room <= 0 {
		return 0, errInjected
	}
	if len(p) > room {
		f.n += room
		return room, errInjected
	}
	f.n += len(p)
	return len(p), nil
}
