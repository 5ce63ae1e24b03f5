package core

import (
	"errors"
	"reflect"
	"testing"
)

func row(name string) Row {
	r := NewDraftRow()
	r.Name = TextValue(name)
	return r
}

func loaded(names ...string) State {
	rows := make([]Row, len(names))
	for i, n := range names {
		rows[i] = row(n)
	}
	s, err := Reduce(NewState(), Load{FileName: "bom.csv", Rows: rows})
	if err != nil {
		panic(err)
	}
	return s
}

func mustReduce(t *testing.T, s State, events ...Event) State {
	t.Helper()
	for _, e := range events {
		var err error
		s, err = Reduce(s, e)
		if err != nil {
			t.Fatalf("Reduce(%s) error = %v", e.Name(), err)
		}
	}
	return s
}

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name.String()
	}
	return out
}

func TestReduce_Load(t *testing.T) {
	s := loaded("R1", "C1")

	if !s.Loaded {
		t.Error("Loaded = false after Load")
	}
	if s.FileName != "bom.csv" {
		t.Errorf("FileName = %q", s.FileName)
	}
	if got := names(s.Table); !reflect.DeepEqual(got, []string{"R1", "C1"}) {
		t.Errorf("Table = %v", got)
	}
	if s.Cursor.Set || s.SearchTerm != "" {
		t.Errorf("Load should clear cursor and search: %+v", s)
	}
}

func TestReduce_LoadReplacesEverything(t *testing.T) {
	s := loaded("R1", "C1")
	s = mustReduce(t, s,
		Search{Term: "r"},
		ChangeField{Key: FieldName, Value: TextValue("draft")},
		BeginEdit{Index: 1},
	)

	s = mustReduce(t, s, Load{FileName: "other.csv", Rows: []Row{row("U1")}})

	if got := names(s.Table); !reflect.DeepEqual(got, []string{"U1"}) {
		t.Errorf("Table = %v", got)
	}
	if s.Cursor.Set || s.SearchTerm != "" || s.Draft.Name.String() != "" {
		t.Errorf("Load should reset cursor, search and draft: %+v", s)
	}
}

func TestReduce_EditFlow(t *testing.T) {
	s := loaded("R1", "C1")

	s = mustReduce(t, s,
		BeginEdit{Index: 1},
		ChangeField{Key: FieldQuantity, Value: NumberValue(7)},
		ChangeField{Key: FieldFulfilled, Value: BoolValue(true)},
	)
	if !s.IsEditing(1) {
		t.Fatalf("cursor = %+v, want row 1", s.Cursor)
	}
	if s.Table[1].Quantity != NumberValue(7) {
		t.Errorf("Quantity = %+v, want number 7", s.Table[1].Quantity)
	}

	s = mustReduce(t, s, Save{})
	if s.Editing() {
		t.Error("Save should clear the cursor")
	}
	if len(s.Table) != 2 {
		t.Errorf("Save of an edit changed row count to %d", len(s.Table))
	}
	if !s.Table[1].Fulfilled.Bool {
		t.Error("edit lost after save")
	}
}

func TestReduce_ChangeFieldKeepsKind(t *testing.T) {
	s := loaded("R1")
	s = mustReduce(t, s,
		BeginEdit{Index: 0},
		ChangeField{Key: FieldQuantity, Value: TextValue("12")},
	)

	if s.Table[0].Quantity.Kind != KindText {
		t.Errorf("Quantity kind = %v, want text", s.Table[0].Quantity.Kind)
	}
}

func TestReduce_DraftAndAdd(t *testing.T) {
	s := loaded("R1")
	s = mustReduce(t, s,
		ChangeField{Key: FieldName, Value: TextValue("U9")},
		ChangeField{Key: FieldCostPerUnit, Value: NumberValue(0.25)},
	)
	if len(s.Table) != 1 {
		t.Fatal("draft edit must not touch the table")
	}

	s = mustReduce(t, s, Add{})

	if got := names(s.Table); !reflect.DeepEqual(got, []string{"R1", "U9"}) {
		t.Errorf("Table = %v", got)
	}
	if s.Table[1].CostPerUnit != NumberValue(0.25) {
		t.Errorf("CostPerUnit = %+v", s.Table[1].CostPerUnit)
	}
	if !reflect.DeepEqual(s.Draft, NewDraftRow()) {
		t.Errorf("Draft not reset: %+v", s.Draft)
	}
}

func TestReduce_SaveWithoutEditAppendsDraft(t *testing.T) {
	s := loaded("R1")
	s = mustReduce(t, s, ChangeField{Key: FieldName, Value: TextValue("X")}, Save{})

	if got := names(s.Table); !reflect.DeepEqual(got, []string{"R1", "X"}) {
		t.Errorf("Table = %v", got)
	}
}

func TestReduce_AddWhileEditing(t *testing.T) {
	s := mustReduce(t, loaded("R1"), BeginEdit{Index: 0})

	next, err := Reduce(s, Add{})
	if !errors.Is(err, ErrEditInProgress) {
		t.Fatalf("error = %v, want ErrEditInProgress", err)
	}
	if !reflect.DeepEqual(next, s) {
		t.Error("failed Add changed the state")
	}
}

func TestReduce_Delete(t *testing.T) {
	tests := []struct {
		name       string
		cursor     Cursor
		del        int
		wantNames  []string
		wantCursor Cursor
	}{
		{"no cursor", Cursor{}, 1, []string{"A", "C"}, Cursor{}},
		{"delete edited row", At(1), 1, []string{"A", "C"}, Cursor{}},
		{"delete before cursor shifts it", At(2), 0, []string{"B", "C"}, At(1)},
		{"delete after cursor keeps it", At(0), 2, []string{"A", "B"}, At(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loaded("A", "B", "C")
			s.Cursor = tt.cursor

			s = mustReduce(t, s, Delete{Index: tt.del})

			if got := names(s.Table); !reflect.DeepEqual(got, tt.wantNames) {
				t.Errorf("Table = %v, want %v", got, tt.wantNames)
			}
			if s.Cursor != tt.wantCursor {
				t.Errorf("Cursor = %+v, want %+v", s.Cursor, tt.wantCursor)
			}
		})
	}
}

func TestReduce_IndexOutOfRange(t *testing.T) {
	s := loaded("A", "B")

	for _, e := range []Event{BeginEdit{Index: 2}, BeginEdit{Index: -1}, Delete{Index: 5}, Delete{Index: -1}} {
		next, err := Reduce(s, e)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("%#v: error = %v, want ErrIndexOutOfRange", e, err)
		}
		if !reflect.DeepEqual(next, s) {
			t.Errorf("%#v: failed event changed the state", e)
		}
	}
}

func TestReduce_UnknownField(t *testing.T) {
	s := mustReduce(t, loaded("A"), BeginEdit{Index: 0})

	next, err := Reduce(s, ChangeField{Key: "colour", Value: TextValue("red")})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("error = %v, want ErrUnknownField", err)
	}
	if !reflect.DeepEqual(next, s) {
		t.Error("failed ChangeField changed the state")
	}
}

func TestReduce_NotLoaded(t *testing.T) {
	for _, e := range []Event{ChangeField{Key: FieldName, Value: TextValue("x")}, Save{}, Add{}} {
		if _, err := Reduce(NewState(), e); !errors.Is(err, ErrNotLoaded) {
			t.Errorf("%s: error = %v, want ErrNotLoaded", e.Name(), err)
		}
	}
}

type bogusEvent struct{}

func (bogusEvent) Name() string { return "bogus" }

func TestReduce_UnknownEvent(t *testing.T) {
	if _, err := Reduce(loaded("A"), bogusEvent{}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("error = %v, want ErrUnknownEvent", err)
	}
}

func TestReduce_SearchDoesNotTouchTable(t *testing.T) {
	s := loaded("R1", "C1")
	next := mustReduce(t, s, Search{Term: "r"})

	if next.SearchTerm != "r" {
		t.Errorf("SearchTerm = %q", next.SearchTerm)
	}
	if !reflect.DeepEqual(next.Table, s.Table) {
		t.Error("Search changed the table")
	}
}

func TestReduce_Reset(t *testing.T) {
	s := mustReduce(t, loaded("A"), Search{Term: "a"}, BeginEdit{Index: 0})
	s = mustReduce(t, s, Reset{})

	if s.Loaded || len(s.Table) != 0 || s.Editing() || s.SearchTerm != "" {
		t.Errorf("Reset left state behind: %+v", s)
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := mustReduce(t, loaded("A", "B"), BeginEdit{Index: 0})
	before := s.Clone()

	_ = mustReduce(t, s, ChangeField{Key: FieldName, Value: TextValue("changed")})
	_ = mustReduce(t, s, Delete{Index: 0})

	if !reflect.DeepEqual(s, before) {
		t.Errorf("input state mutated: %+v", s)
	}
}

func TestReduce_VersionIncrements(t *testing.T) {
	s := loaded("A")
	v := s.Version

	s = mustReduce(t, s, Search{Term: "x"})
	if s.Version != v+1 {
		t.Errorf("Version = %d, want %d", s.Version, v+1)
	}

	s = mustReduce(t, s, Reset{})
	if s.Version != v+2 {
		t.Errorf("Version after reset = %d, want %d", s.Version, v+2)
	}
}
