package boxes

// Row is one line of the result table
type Row struct {
	Code  string `json:"code"`
	Value string `json:"value"`
}

// Table lists every code of a range in ascending order
type Table []Row

// BuildTable produces one row per code in rng, zero-padded to width, holding the
// matched amount text or an empty string.
func BuildTable(matches Matches, rng Range, width int) Table {
	if rng.Start > rng.End {
		return Table{}
	}
	rows := make(Table, 0, rng.Len())
	for n := rng.Start; n <= rng.End; n++ {
		code := formatCode(n, width)
		rows = append(rows, Row{Code: code, Value: matches[code]})
	}
	return rows
}

// Matched counts rows with a value
func (t Table) Matched() int {
	count := 0
	for _, row := range t {
		if row.Value != "" {
			count++
		}
	}
	return count
}

// OnlyMatched returns the rows with a value, keeping order
func (t Table) OnlyMatched() Table {
	out := make(Table, 0, t.Matched())
	for _, row := range t {
		if row.Value != "" {
			out = append(out, row)
		}
	}
	return out
}
