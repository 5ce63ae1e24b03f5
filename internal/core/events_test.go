package core

import (
	"errors"
	"testing"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		input string
		want  Event
	}{
		{`{"type":"begin_edit","index":0}`, BeginEdit{Index: 0}},
		{`{"type":"delete","index":3}`, Delete{Index: 3}},
		{`{"type":"change_field","key":"quantity","value":7}`, ChangeField{Key: FieldQuantity, Value: NumberValue(7)}},
		{`{"type":"change_field","key":"Cost per unit","value":"1.50"}`, ChangeField{Key: FieldCostPerUnit, Value: TextValue("1.50")}},
		{`{"type":"change_field","key":"fulfilled","value":true}`, ChangeField{Key: FieldFulfilled, Value: BoolValue(true)}},
		{`{"type":"change_field","key":"name"}`, ChangeField{Key: FieldName, Value: TextValue("")}},
		{`{"type":"save"}`, Save{}},
		{`{"type":"add"}`, Add{}},
		{`{"type":"search","term":"res"}`, Search{Term: "res"}},
		{`{"type":"reset"}`, Reset{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := DecodeEvent([]byte(tt.input))
			if err != nil {
				t.Fatalf("DecodeEvent() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeEvent() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestDecodeEvent_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"malformed json", `{"type":`, ErrInvalidEvent},
		{"begin_edit without index", `{"type":"begin_edit"}`, ErrInvalidEvent},
		{"delete without index", `{"type":"delete"}`, ErrInvalidEvent},
		{"bad value", `{"type":"change_field","key":"name","value":[1]}`, ErrInvalidEvent},
		{"unknown key", `{"type":"change_field","key":"colour","value":"red"}`, ErrUnknownField},
		{"unknown type", `{"type":"explode"}`, ErrUnknownEvent},
		{"load is upload only", `{"type":"load"}`, ErrUnknownEvent},
		{"missing type", `{}`, ErrUnknownEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEvent([]byte(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeEvent() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEventNames(t *testing.T) {
	events := map[string]Event{
		EventBeginEdit:   BeginEdit{},
		EventChangeField: ChangeField{},
		EventSave:        Save{},
		EventDelete:      Delete{},
		EventAdd:         Add{},
		EventSearch:      Search{},
		EventLoad:        Load{},
		EventReset:       Reset{},
	}
	for want, e := range events {
		if got := e.Name(); got != want {
			t.Errorf("%T.Name() = %q, want %q", e, got, want)
		}
	}
}
