package core

import "strings"

// Filter returns the rows whose name contains term, ignoring case.
// An empty term matches every row. Order is preserved and table is not modified.
func Filter(table []Row, term string) []Row {
	matched := FilterIndexed(table, term)
	out := make([]Row, len(matched))
	for i, m := range matched {
		out[i] = m.Row
	}
	return out
}

// FilterIndexed is Filter keeping each row's index in table, so intents from
// a filtered view address the right row.
func FilterIndexed(table []Row, term string) []IndexedRow {
	needle := strings.ToLower(term)
	out := make([]IndexedRow, 0, len(table))
	for i, row := range table {
		if needle == "" || strings.Contains(strings.ToLower(row.Name.String()), needle) {
			out = append(out, IndexedRow{Index: i, Row: row})
		}
	}
	return out
}
