package models

// SheetReport describes what a fill run did with one target sheet.
type SheetReport struct {
	// Name is the target sheet name.
	Name string `json:"name"`
	// Policy is the row-production policy.
	Policy string `json:"policy"`
	// BaseTable is the source table the output rows were anchored on.
	BaseTable string `json:"base_table,omitempty"`
	// Rows is the number of rows appended.
	Rows int `json:"rows"`
	// Skipped is true when the sheet contributed no rows by design.
	Skipped bool `json:"skipped,omitempty"`
	// Reason explains a skip.
	Reason string `json:"reason,omitempty"`
}

// Report summarizes a fill run.
type Report struct {
	// Output is the path of the saved workbook.
	Output string `json:"output"`
	// JoinKey is the column used to correlate source tables.
	JoinKey string `json:"join_key"`
	// Indexed lists the source tables grouped by the join key.
	Indexed []string `json:"indexed,omitempty"`
	// Sheets holds one entry per target sheet, in mapping order.
	Sheets []SheetReport `json:"sheets"`
}

// Rows returns the total number of rows appended.
func (r *Report) Rows() int {
	n := 0
	for _, s := range r.Sheets {
		n += s.Rows
	}
	return n
}

// Skipped returns the names of the skipped sheets.
func (r *Report) Skipped() []string {
	var names []string
	for _, s := range r.Sheets {
		if s.Skipped {
			names = append(names, s.Name)
		}
	}
	return names
}
