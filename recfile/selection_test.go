package recfile

import (
	"errors"
	"reflect"
	"testing"
)

func TestSubset_IgnoresNameOrder(t *testing.T) {
	l := obsLayout(t)

	a, err := Subset(l, "mag", "id")
	if err != nil {
		t.Fatalf("Subset failed: %v", err)
	}
	b, err := Subset(l, "id", "mag")
	if err != nil {
		t.Fatalf("Subset failed: %v", err)
	}
	if !a.Layout.Equal(b.Layout) {
		t.Errorf("subset layouts differ: %v vs %v", a.Layout.Fields(), b.Layout.Fields())
	}
	if got := a.Layout.Names(); !reflect.DeepEqual(got, []string{"id", "mag"}) {
		t.Errorf("subset names = %v, want [id mag]", got)
	}
	if !reflect.DeepEqual(a.Index, []int{0, 3}) {
		t.Errorf("Index = %v, want [0 3]", a.Index)
	}
	if !reflect.DeepEqual(a.Keep, []bool{true, false, false, true}) {
		t.Errorf("Keep = %v", a.Keep)
	}
}

func TestSubset_Packed(t *testing.T) {
	sel, err := Subset(obsLayout(t), "mag", "flux")
	if err != nil {
		t.Fatal(err)
	}
	if sel.All() {
		t.Error("All() = true for a partial selection")
	}
	if sel.Layout.RowSize() != 20 {
		t.Errorf("packed row size = %d, want 20", sel.Layout.RowSize())
	}
	if got := sel.Layout.Field(1).Offset; got != 8 {
		t.Errorf("mag offset = %d, want 8", got)
	}
}

func TestSubset_AllKeepsSourceLayout(t *testing.T) {
	l := obsLayout(t)
	for _, names := range [][]string{nil, {"mag", "name", "flux", "id"}} {
		sel, err := Subset(l, names...)
		if err != nil {
			t.Fatal(err)
		}
		if !sel.All() || sel.Layout != l {
			t.Errorf("Subset(%v) did not return the source layout", names)
		}
		if sel.Source() != l {
			t.Error("Source() mismatch")
		}
	}
}

func TestSubset_IgnoresUnknownNames(t *testing.T) {
	sel, err := Subset(obsLayout(t), "id", "nope", "")
	if err != nil {
		t.Fatal(err)
	}
	if got := sel.Layout.Names(); !reflect.DeepEqual(got, []string{"id"}) {
		t.Errorf("names = %v, want [id]", got)
	}
}

func TestSubset_Empty(t *testing.T) {
	_, err := Subset(obsLayout(t), "nope", "nada")
	if !errors.Is(err, ErrEmptySelection) {
		t.Errorf("error = %v, want ErrEmptySelection", err)
	}
}

func TestNewRowSelection(t *testing.T) {
	all, err := NewRowSelection(nil, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !all.All() || all.Len() != 5 || all.At(3) != 3 {
		t.Errorf("nil selection: All=%v Len=%d At(3)=%d", all.All(), all.Len(), all.At(3))
	}

	explicit, err := NewRowSelection([]int64{0, 1, 2, 3, 4}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !explicit.All() {
		t.Error("0..n-1 in order should count as all rows")
	}

	some, err := NewRowSelection([]int64{4, 2, 2}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if some.All() || some.Increasing() || some.Len() != 3 {
		t.Errorf("unordered selection: All=%v Increasing=%v Len=%d", some.All(), some.Increasing(), some.Len())
	}

	empty, err := NewRowSelection([]int64{}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if empty.Len() != 0 || empty.All() {
		t.Errorf("empty selection: Len=%d All=%v", empty.Len(), empty.All())
	}

	for _, rows := range [][]int64{{5}, {-1}, {0, 9}} {
		if _, err := NewRowSelection(rows, 5); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("NewRowSelection(%v) error = %v, want ErrInvalidInput", rows, err)
		}
	}
}

func TestParseRows(t *testing.T) {
	tests := []struct {
		in      string
		want    []int64
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "0,2,4", want: []int64{0, 2, 4}},
		{in: "3:6", want: []int64{3, 4, 5}},
		{in: "9, 1:3", want: []int64{9, 1, 2}},
		{in: "2:2", want: []int64{}},
		{in: "a", wantErr: true},
		{in: "4:1", wantErr: true},
		{in: "1:x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRows(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("ParseRows(%q) error = %v, want ErrInvalidInput", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRows(%q) failed: %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRows(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFields(t *testing.T) {
	if got := ParseFields(" id, ,mag "); !reflect.DeepEqual(got, []string{"id", "mag"}) {
		t.Errorf("ParseFields = %v, want [id mag]", got)
	}
	if got := ParseFields(""); got != nil {
		t.Errorf("ParseFields(\"\") = %v, want nil", got)
	}
}
