package recfile

import "fmt"

// Strategy is the transfer path chosen for a read.
type Strategy int

const (
	// WholeFileBinary reads every row in one bulk transfer.
	WholeFileBinary Strategy = iota

	// WholeRowBinary reads each selected row in one transfer and seeks over
	// unselected rows.
	WholeRowBinary

	// PerFieldBinary reads kept fields one at a time and seeks over dropped
	// fields and rows.
	PerFieldBinary

	// PerFieldText scans every field of each selected row, storing only the
	// kept ones, and skips unselected rows by counting newlines.
	PerFieldText
)

func (s Strategy) String() string {
	switch s {
	case WholeFileBinary:
		return "whole-file-binary"
	case WholeRowBinary:
		return "whole-row-binary"
	case PerFieldBinary:
		return "per-field-binary"
	case PerFieldText:
		return "per-field-text"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ReadPlan is the outcome of planning a read.
type ReadPlan struct {
	Strategy Strategy
	Repr     Representation
	Fields   *FieldSelection
	Rows     *RowSelection
}

// Step is one unit of row traversal: skip Skip rows relative to the current
// position (negative means backward), then transfer file row Row.
type Step struct {
	Skip int64
	Row  int64
}

// PlanRead chooses the fastest strategy for the requested selection:
// whole-file binary, then whole-row binary, then per-field binary, with text
// always read per field. Text cannot move backward over consumed lines, so a
// text plan whose rows are not strictly increasing fails with
// ErrInvalidInput.
func PlanRead(repr Representation, fields *FieldSelection, rows *RowSelection) (*ReadPlan, error) {
	if fields == nil || rows == nil {
		return nil, fmt.Errorf("%w: nil selection", ErrInvalidInput)
	}
	p := &ReadPlan{Repr: repr, Fields: fields, Rows: rows}
	switch {
	case repr == Text:
		if !rows.Increasing() {
			return nil, fmt.Errorf("%w: text files require strictly increasing rows", ErrInvalidInput)
		}
		p.Strategy = PerFieldText
	case rows.All() && fields.All():
		p.Strategy = WholeFileBinary
	case fields.All():
		p.Strategy = WholeRowBinary
	default:
		p.Strategy = PerFieldBinary
	}
	return p, nil
}

// walk calls fn for every served row with the number of rows to skip first.
func (p *ReadPlan) walk(fn func(out int64, st Step) error) error {
	var current int64
	n := p.Rows.Len()
	for i := int64(0); i < n; i++ {
		r := p.Rows.At(i)
		if err := fn(i, Step{Skip: r - current, Row: r}); err != nil {
			return err
		}
		current = r + 1
	}
	return nil
}

// Steps returns the traversal the plan performs.
func (p *ReadPlan) Steps() []Step {
	steps := make([]Step, 0, p.Rows.Len())
	_ = p.walk(func(_ int64, st Step) error {
		steps = append(steps, st)
		return nil
	})
	return steps
}
