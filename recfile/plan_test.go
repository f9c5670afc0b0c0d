package recfile

import (
	"errors"
	"reflect"
	"testing"
)

func planFor(t *testing.T, repr Representation, rows []int64, fields ...string) (*ReadPlan, error) {
	t.Helper()
	sel, err := Subset(obsLayout(t), fields...)
	if err != nil {
		t.Fatal(err)
	}
	rs, err := NewRowSelection(rows, 10)
	if err != nil {
		t.Fatal(err)
	}
	return PlanRead(repr, sel, rs)
}

func TestPlanRead_Strategy(t *testing.T) {
	tests := []struct {
		name   string
		repr   Representation
		rows   []int64
		fields []string
		want   Strategy
	}{
		{"everything binary", Binary, nil, nil, WholeFileBinary},
		{"rows subset binary", Binary, []int64{1, 3}, nil, WholeRowBinary},
		{"fields subset binary", Binary, nil, []string{"id"}, PerFieldBinary},
		{"both subsets binary", Binary, []int64{2}, []string{"mag"}, PerFieldBinary},
		{"everything text", Text, nil, nil, PerFieldText},
		{"subset text", Text, []int64{0, 5}, []string{"flux"}, PerFieldText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := planFor(t, tt.repr, tt.rows, tt.fields...)
			if err != nil {
				t.Fatalf("PlanRead failed: %v", err)
			}
			if p.Strategy != tt.want {
				t.Errorf("Strategy = %s, want %s", p.Strategy, tt.want)
			}
		})
	}
}

func TestPlanRead_TextRequiresIncreasingRows(t *testing.T) {
	for _, rows := range [][]int64{{4, 2, 0}, {1, 1}} {
		if _, err := planFor(t, Text, rows); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("text rows %v: error = %v, want ErrInvalidInput", rows, err)
		}
		if _, err := planFor(t, Binary, rows); err != nil {
			t.Errorf("binary rows %v: unexpected error %v", rows, err)
		}
	}
}

func TestReadPlan_Steps(t *testing.T) {
	p, err := planFor(t, Binary, []int64{2, 5, 5, 1})
	if err != nil {
		t.Fatal(err)
	}
	want := []Step{
		{Skip: 2, Row: 2},
		{Skip: 2, Row: 5},
		{Skip: -1, Row: 5},
		{Skip: -5, Row: 1},
	}
	if got := p.Steps(); !reflect.DeepEqual(got, want) {
		t.Errorf("Steps() = %v, want %v", got, want)
	}
}

func TestStrategy_String(t *testing.T) {
	if got := PerFieldBinary.String(); got != "per-field-binary" {
		t.Errorf("String() = %q", got)
	}
	if got := Strategy(42).String(); got != "Strategy(42)" {
		t.Errorf("String() = %q", got)
	}
}
