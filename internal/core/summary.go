package core

// Summary totals a table. Cells that do not parse as numbers are counted in
// Unparsed and left out of the totals.
type Summary struct {
	Rows          int     `json:"rows" yaml:"rows"`
	Fulfilled     int     `json:"fulfilled" yaml:"fulfilled"`
	TotalQuantity float64 `json:"total_quantity" yaml:"total_quantity"`
	TotalCost     float64 `json:"total_cost" yaml:"total_cost"`
	Unparsed      int     `json:"unparsed" yaml:"unparsed"`
}

// Summarize computes totals over rows. A row's cost is quantity times cost per unit.
func Summarize(rows []Row) Summary {
	var s Summary
	s.Rows = len(rows)
	for _, r := range rows {
		if r.Fulfilled.Truthy() {
			s.Fulfilled++
		}
		qty, qok := r.Quantity.Float()
		cost, cok := r.CostPerUnit.Float()
		if qok {
			s.TotalQuantity += qty
		}
		if qok && cok {
			s.TotalCost += qty * cost
		}
		if !qok || !cok {
			s.Unparsed++
		}
	}
	return s
}
