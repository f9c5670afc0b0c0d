package recfile

import (
	"fmt"
	"strconv"
	"strings"
)

// -----------------------------------------------------------------------------
// Field selection
// -----------------------------------------------------------------------------

// FieldSelection is the result of subsetting a layout by field name.
type FieldSelection struct {
	// Keep holds one flag per field of the source layout.
	Keep []bool

	// Index maps a subset field position to its source field position.
	Index []int

	// Layout is the subset layout. When every field is kept it is the
	// source layout itself; otherwise kept fields are packed in source order.
	Layout *RowLayout

	source *RowLayout
}

// Subset selects the named fields of layout.
//
// Matching is by exact name. Names that match nothing are dropped silently;
// if no name matches, Subset fails with ErrEmptySelection. The result always
// follows the layout's field order, never the order of names. With no names
// every field is selected.
func Subset(layout *RowLayout, names ...string) (*FieldSelection, error) {
	if layout == nil {
		return nil, fmt.Errorf("%w: nil layout", ErrInvalidInput)
	}
	n := len(layout.fields)
	sel := &FieldSelection{
		Keep:   make([]bool, n),
		source: layout,
	}

	if len(names) == 0 {
		for i := range sel.Keep {
			sel.Keep[i] = true
		}
	} else {
		for _, name := range names {
			if i, ok := layout.index[name]; ok {
				sel.Keep[i] = true
			}
		}
	}

	kept := make([]FieldDescriptor, 0, n)
	for i, keep := range sel.Keep {
		if keep {
			sel.Index = append(sel.Index, i)
			kept = append(kept, layout.fields[i])
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySelection, strings.Join(names, ","))
	}

	if len(kept) == n {
		sel.Layout = layout
		return sel, nil
	}
	sub, err := packedLayout(kept)
	if err != nil {
		return nil, err
	}
	sel.Layout = sub
	return sel, nil
}

// All reports whether every source field is kept.
func (s *FieldSelection) All() bool { return len(s.Index) == len(s.Keep) }

// Source returns the layout the selection was derived from.
func (s *FieldSelection) Source() *RowLayout { return s.source }

// -----------------------------------------------------------------------------
// Row selection
// -----------------------------------------------------------------------------

// RowSelection lists the rows to transfer, in the order they are served.
type RowSelection struct {
	rows  []int64 // nil selects every row in order
	count int64
}

// NewRowSelection validates rows against rowCount. A nil slice selects all
// rows; indices must lie in [0,rowCount) and may repeat or be unordered.
func NewRowSelection(rows []int64, rowCount int64) (*RowSelection, error) {
	if rowCount < 0 {
		return nil, fmt.Errorf("%w: row count %d", ErrInvalidInput, rowCount)
	}
	if rows == nil {
		return &RowSelection{count: rowCount}, nil
	}
	for i, r := range rows {
		if r < 0 || r >= rowCount {
			return nil, fmt.Errorf("%w: rows[%d]=%d outside [0,%d)", ErrInvalidInput, i, r, rowCount)
		}
	}
	cp := make([]int64, len(rows))
	copy(cp, rows)
	return &RowSelection{rows: cp, count: rowCount}, nil
}

// Len returns the number of rows served.
func (s *RowSelection) Len() int64 {
	if s.rows == nil {
		return s.count
	}
	return int64(len(s.rows))
}

// At returns the file row served at position i.
func (s *RowSelection) At(i int64) int64 {
	if s.rows == nil {
		return i
	}
	return s.rows[i]
}

// All reports whether the selection is every row of the file in order.
func (s *RowSelection) All() bool {
	if s.rows == nil {
		return true
	}
	if int64(len(s.rows)) != s.count {
		return false
	}
	for i, r := range s.rows {
		if r != int64(i) {
			return false
		}
	}
	return true
}

// Increasing reports whether every served row lies after the previous one.
func (s *RowSelection) Increasing() bool {
	for i := 1; i < len(s.rows); i++ {
		if s.rows[i] <= s.rows[i-1] {
			return false
		}
	}
	return true
}

// ParseRows parses a row selector such as "0,2,4", "10:20" (half open) or a
// mix of both ("0,5:8"). An empty string selects every row (nil).
func ParseRows(spec string) ([]int64, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	rows := []int64{}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, ":")
		start, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: row selector %q", ErrInvalidInput, part)
		}
		if !isRange {
			rows = append(rows, start)
			continue
		}
		end, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
		if err != nil || end < start {
			return nil, fmt.Errorf("%w: row range %q", ErrInvalidInput, part)
		}
		for r := start; r < end; r++ {
			rows = append(rows, r)
		}
	}
	return rows, nil
}

// ParseFields splits a comma separated field list. Empty input selects every
// field (nil).
func ParseFields(spec string) []string {
	var names []string
	for _, name := range strings.Split(spec, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
