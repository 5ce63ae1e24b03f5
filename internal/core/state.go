package core

// Cursor is the optional index of the row open for editing.
type Cursor struct {
	Index int  `json:"index"`
	Set   bool `json:"set"`
}

// At returns a cursor on row i.
func At(i int) Cursor { return Cursor{Index: i, Set: true} }

// State is one session's complete table state. It is treated as a value:
// Reduce never mutates the State it is given.
type State struct {
	Table      []Row  `json:"table"`
	Draft      Row    `json:"draft"`
	Cursor     Cursor `json:"cursor"`
	SearchTerm string `json:"search_term"`
	Loaded     bool   `json:"loaded"`
	FileName   string `json:"file_name,omitempty"`
	Version    uint64 `json:"version"`
}

// NewState returns the state of a session before any upload.
func NewState() State {
	return State{Draft: NewDraftRow()}
}

// Clone returns a copy that shares no mutable memory with s.
func (s State) Clone() State {
	out := s
	if s.Table != nil {
		out.Table = make([]Row, len(s.Table))
		copy(out.Table, s.Table)
	}
	return out
}

// Editing reports whether a row is open for editing.
func (s State) Editing() bool {
	return s.Cursor.Set
}

// IsEditing reports whether row i is the one open for editing.
func (s State) IsEditing(i int) bool {
	return s.Cursor.Set && s.Cursor.Index == i
}

// View returns the rows matching the current search term with their table indices.
func (s State) View() []IndexedRow {
	return FilterIndexed(s.Table, s.SearchTerm)
}

func (s State) validIndex(i int) bool {
	return i >= 0 && i < len(s.Table)
}
