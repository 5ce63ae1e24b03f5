package core

import (
	"reflect"
	"testing"
)

func TestFilter(t *testing.T) {
	table := []Row{row("R1"), row("C1"), row("r2"), row("U1")}

	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"R1", "C1", "r2", "U1"}},
		{"r", []string{"R1", "r2"}},
		{"R", []string{"R1", "r2"}},
		{"1", []string{"R1", "C1", "U1"}},
		{"zz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := names(Filter(table, tt.term))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestFilter_DoesNotModifyTable(t *testing.T) {
	table := []Row{row("A"), row("B")}
	_ = Filter(table, "a")

	if got := names(table); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("table modified: %v", got)
	}
}

func TestFilterIndexed(t *testing.T) {
	table := []Row{row("R1"), row("C1"), row("R2")}

	got := FilterIndexed(table, "r")
	if len(got) != 2 || got[0].Index != 0 || got[1].Index != 2 {
		t.Errorf("FilterIndexed() = %+v, want indices 0 and 2", got)
	}
}

func TestFilter_MatchesNonTextName(t *testing.T) {
	table := []Row{{Name: NumberValue(42)}, {Name: TextValue("x")}}

	if got := Filter(table, "4"); len(got) != 1 {
		t.Errorf("Filter() matched %d rows, want 1", len(got))
	}
}

func TestState_View(t *testing.T) {
	s := mustReduce(t, loaded("R1", "C1", "R2"), Search{Term: "r"}, Delete{Index: 2})

	view := s.View()
	if len(view) != 1 || view[0].Index != 0 {
		t.Errorf("View() = %+v", view)
	}
}

func TestSummarize(t *testing.T) {
	rows := []Row{
		{Name: TextValue("R1"), Quantity: TextValue("10"), CostPerUnit: TextValue("$0.50"), Fulfilled: TextValue("yes")},
		{Name: TextValue("C1"), Quantity: NumberValue(4), CostPerUnit: NumberValue(2), Fulfilled: BoolValue(false)},
		{Name: TextValue("U1"), Quantity: TextValue("lots"), CostPerUnit: TextValue("1"), Fulfilled: BoolValue(true)},
	}

	got := Summarize(rows)
	want := Summary{Rows: 3, Fulfilled: 2, TotalQuantity: 14, TotalCost: 13, Unparsed: 1}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestSummarize_Empty(t *testing.T) {
	if got := Summarize(nil); got != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v", got)
	}
}
