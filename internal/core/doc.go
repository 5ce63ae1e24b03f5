// Package core provides the business logic for viewing and editing BOM tables.
//
// This package contains all domain logic independent of any UI or transport
// layer. It is used by the web handlers and the bomctl CLI.
//
// # Data Model
//
// A table is an ordered []Row. Every Row has the same five fields (name,
// description, quantity, cost_per_unit, fulfilled), each holding a [Value]:
// a tagged union of text, number and bool. Cells read from CSV are text;
// edits keep whatever kind the input produced.
//
// # State and Events
//
// A session's [State] holds the table, the draft row, the edit cursor and
// the search term. It only changes through [Reduce]:
//
//	next, err := core.Reduce(state, core.BeginEdit{Index: 2})
//	next, err = core.Reduce(next, core.ChangeField{Key: core.FieldQuantity, Value: core.NumberValue(7)})
//	next, err = core.Reduce(next, core.Save{})
//
// Reduce is pure and fails closed: an out-of-range index or unknown field
// returns an error and the state unchanged.
//
// # Sessions
//
// Each browser session owns a [Store], which serializes dispatches. The
// [Service] keeps stores in a [Sessions] registry, expires idle ones, and
// records an audit entry for each change.
//
// # CSV
//
// [Decode] reads a CSV with a header row; [Encode] writes one with the fixed
// [DefaultHeaders]. Uploads are size limited, stripped of a UTF-8 BOM and
// sanitized to valid UTF-8 before parsing.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
package core
