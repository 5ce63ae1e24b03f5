package core

import (
	"encoding/json"
	"fmt"
)

// Event is a user intent applied to a State by Reduce.
type Event interface {
	Name() string
}

// Event names, also used as the "type" of JSON API events.
const (
	EventBeginEdit   = "begin_edit"
	EventChangeField = "change_field"
	EventSave        = "save"
	EventDelete      = "delete"
	EventAdd         = "add"
	EventSearch      = "search"
	EventLoad        = "load"
	EventReset       = "reset"
)

// BeginEdit opens row Index for editing.
type BeginEdit struct{ Index int }

// ChangeField writes Value into Key of the row under edit, or of the draft
// when no row is under edit.
type ChangeField struct {
	Key   FieldKey
	Value Value
}

// Save commits the row under edit, or appends the draft when none is.
type Save struct{}

// Delete removes row Index.
type Delete struct{ Index int }

// Add appends the draft. It is Save restricted to the no-edit case.
type Add struct{}

// Search sets the search term.
type Search struct{ Term string }

// Load replaces the table with freshly decoded rows.
type Load struct {
	FileName string
	Rows     []Row
}

// Reset returns the session to the upload view.
type Reset struct{}

func (BeginEdit) Name() string   { return EventBeginEdit }
func (ChangeField) Name() string { return EventChangeField }
func (Save) Name() string        { return EventSave }
func (Delete) Name() string      { return EventDelete }
func (Add) Name() string         { return EventAdd }
func (Search) Name() string      { return EventSearch }
func (Load) Name() string        { return EventLoad }
func (Reset) Name() string       { return EventReset }

// eventEnvelope is the JSON form accepted by DecodeEvent.
type eventEnvelope struct {
	Type  string          `json:"type"`
	Index *int            `json:"index"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
	Term  string          `json:"term"`
}

// DecodeEvent parses a JSON API event such as
//
//	{"type":"change_field","key":"quantity","value":7}
//
// Load is not accepted here; tables arrive through uploads.
func DecodeEvent(data []byte) (Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	switch env.Type {
	case EventBeginEdit, EventDelete:
		if env.Index == nil {
			return nil, fmt.Errorf("%w: %s requires an index", ErrInvalidEvent, env.Type)
		}
		if env.Type == EventBeginEdit {
			return BeginEdit{Index: *env.Index}, nil
		}
		return Delete{Index: *env.Index}, nil

	case EventChangeField:
		key, ok := ParseFieldKey(env.Key)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, env.Key)
		}
		v := TextValue("")
		if len(env.Value) > 0 {
			if err := json.Unmarshal(env.Value, &v); err != nil {
				return nil, fmt.Errorf("%w: change_field value: %w", ErrInvalidEvent, err)
			}
		}
		return ChangeField{Key: key, Value: v}, nil

	case EventSave:
		return Save{}, nil
	case EventAdd:
		return Add{}, nil
	case EventSearch:
		return Search{Term: env.Term}, nil
	case EventReset:
		return Reset{}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
}
