package models

// Row maps a column name to its cell text. Blank cells hold "".
type Row map[string]string

// Get returns the cell text of column, or "" when the column is absent.
func (r Row) Get(column string) string {
	return r[column]
}

// Table represents one sheet of the source workbook.
type Table struct {
	// Name is the sheet name.
	Name string `json:"name"`
	// Columns lists the header names in sheet order.
	Columns []string `json:"columns"`
	// Rows contains the data rows in sheet order; every row holds every column.
	Rows []Row `json:"rows,omitempty"`
}

// HasColumn reports whether the table header contains column.
func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}
