package core

import "fmt"

// Reduce applies e to s and returns the resulting state. s is never modified;
// on error the returned state is s unchanged.
func Reduce(s State, e Event) (State, error) {
	switch ev := e.(type) {
	case BeginEdit:
		if !s.validIndex(ev.Index) {
			return s, fmt.Errorf("begin edit %d of %d rows: %w", ev.Index, len(s.Table), ErrIndexOutOfRange)
		}
		next := s.Clone()
		next.Cursor = At(ev.Index)
		return bump(next), nil

	case ChangeField:
		if !s.Loaded {
			return s, fmt.Errorf("change field: %w", ErrNotLoaded)
		}
		next := s.Clone()
		if next.Cursor.Set {
			if err := next.Table[next.Cursor.Index].Set(ev.Key, ev.Value); err != nil {
				return s, err
			}
		} else if err := next.Draft.Set(ev.Key, ev.Value); err != nil {
			return s, err
		}
		return bump(next), nil

	case Save:
		if !s.Loaded {
			return s, fmt.Errorf("save: %w", ErrNotLoaded)
		}
		next := s.Clone()
		if next.Cursor.Set {
			next.Cursor = Cursor{}
		} else {
			next.Table = append(next.Table, next.Draft)
			next.Draft = NewDraftRow()
		}
		return bump(next), nil

	case Add:
		if s.Cursor.Set {
			return s, fmt.Errorf("add while editing row %d: %w", s.Cursor.Index, ErrEditInProgress)
		}
		return Reduce(s, Save{})

	case Delete:
		if !s.validIndex(ev.Index) {
			return s, fmt.Errorf("delete %d of %d rows: %w", ev.Index, len(s.Table), ErrIndexOutOfRange)
		}
		next := s.Clone()
		next.Table = append(next.Table[:ev.Index], next.Table[ev.Index+1:]...)
		if next.Cursor.Set {
			switch {
			case next.Cursor.Index == ev.Index:
				next.Cursor = Cursor{}
			case next.Cursor.Index > ev.Index:
				next.Cursor.Index--
			}
		}
		return bump(next), nil

	case Search:
		next := s.Clone()
		next.SearchTerm = ev.Term
		return bump(next), nil

	case Load:
		next := NewState()
		next.Table = make([]Row, len(ev.Rows))
		copy(next.Table, ev.Rows)
		next.Loaded = true
		next.FileName = ev.FileName
		next.Version = s.Version
		return bump(next), nil

	case Reset:
		next := NewState()
		next.Version = s.Version
		return bump(next), nil
	}

	return s, fmt.Errorf("%w: %T", ErrUnknownEvent, e)
}

func bump(s State) State {
	s.Version++
	return s
}
