package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FieldKey names one of the five fixed BOM columns.
type FieldKey string

const (
	FieldName        FieldKey = "name"
	FieldDescription FieldKey = "description"
	FieldQuantity    FieldKey = "quantity"
	FieldCostPerUnit FieldKey = "cost_per_unit"
	FieldFulfilled   FieldKey = "fulfilled"
)

// Fields lists the field keys in display and export order.
var Fields = []FieldKey{FieldName, FieldDescription, FieldQuantity, FieldCostPerUnit, FieldFulfilled}

// Header pairs a display label with the field it exports.
type Header struct {
	Label string   `json:"label"`
	Key   FieldKey `json:"key"`
}

// DefaultHeaders is the export header row.
var DefaultHeaders = []Header{
	{Label: "Name", Key: FieldName},
	{Label: "Description", Key: FieldDescription},
	{Label: "Quantity", Key: FieldQuantity},
	{Label: "Cost per unit", Key: FieldCostPerUnit},
	{Label: "Fulfilled", Key: FieldFulfilled},
}

// ExportFileName is the filename offered for CSV downloads.
const ExportFileName = "test_data.csv"

// ParseFieldKey resolves a column key or display label (any case) to a FieldKey.
func ParseFieldKey(s string) (FieldKey, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, " ", "_")
	for _, f := range Fields {
		if norm == string(f) {
			return f, true
		}
	}
	return "", false
}

// ValueKind tags which member of a Value is populated.
type ValueKind int

const (
	KindText ValueKind = iota
	KindNumber
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "text"
	}
}

// Value holds a single cell. Cells keep the kind their input produced:
// CSV cells and form inputs are text, checkboxes are bool, JSON numbers are
// numbers. Nothing is coerced on write.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
	Bool   bool
}

// TextValue returns a text cell.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// NumberValue returns a numeric cell.
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Number: f} }

// BoolValue returns a boolean cell.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// String renders the cell the way it is exported.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Text
	}
}

// Float interprets the cell as a number. Text cells are parsed leniently
// (currency symbols, thousands separators); ok is false when that fails.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Number, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return ParseNumber(v.Text)
	}
}

// Truthy interprets the cell as a checkbox state.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Number != 0
	default:
		b, ok := ParseBool(v.Text)
		return ok && b
	}
}

// MarshalJSON encodes the cell as a JSON string, number or boolean.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Number)
	case KindBool:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Text)
	}
}

// UnmarshalJSON keeps the JSON type as the cell kind. null decodes to empty text.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = TextValue("")
	case string:
		*v = TextValue(x)
	case float64:
		*v = NumberValue(x)
	case bool:
		*v = BoolValue(x)
	default:
		return fmt.Errorf("unsupported cell value %s", string(data))
	}
	return nil
}

// MarshalYAML encodes the cell as its native scalar.
func (v Value) MarshalYAML() (any, error) {
	switch v.Kind {
	case KindNumber:
		return v.Number, nil
	case KindBool:
		return v.Bool, nil
	default:
		return v.Text, nil
	}
}

// Row is one BOM line.
type Row struct {
	Name        Value `json:"name" yaml:"name"`
	Description Value `json:"description" yaml:"description"`
	Quantity    Value `json:"quantity" yaml:"quantity"`
	CostPerUnit Value `json:"cost_per_unit" yaml:"cost_per_unit"`
	Fulfilled   Value `json:"fulfilled" yaml:"fulfilled"`
}

// NewDraftRow returns the defaults for a freshly drafted row.
func NewDraftRow() Row {
	return Row{
		Name:        TextValue(""),
		Description: TextValue(""),
		Quantity:    NumberValue(0),
		CostPerUnit: NumberValue(0),
		Fulfilled:   BoolValue(false),
	}
}

// Get returns the value stored under key.
func (r Row) Get(key FieldKey) (Value, error) {
	switch key {
	case FieldName:
		return r.Name, nil
	case FieldDescription:
		return r.Description, nil
	case FieldQuantity:
		return r.Quantity, nil
	case FieldCostPerUnit:
		return r.CostPerUnit, nil
	case FieldFulfilled:
		return r.Fulfilled, nil
	}
	return Value{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
}

// Set stores v under key.
func (r *Row) Set(key FieldKey, v Value) error {
	switch key {
	case FieldName:
		r.Name = v
	case FieldDescription:
		r.Description = v
	case FieldQuantity:
		r.Quantity = v
	case FieldCostPerUnit:
		r.CostPerUnit = v
	case FieldFulfilled:
		r.Fulfilled = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, key)
	}
	return nil
}

// Record flattens the row to exported strings keyed by field.
func (r Row) Record() map[string]string {
	out := make(map[string]string, len(Fields))
	for _, f := range Fields {
		v, _ := r.Get(f)
		out[string(f)] = v.String()
	}
	return out
}

// IndexedRow is a row together with its position in the full table.
type IndexedRow struct {
	Index int `json:"index"`
	Row   Row `json:"row"`
}
