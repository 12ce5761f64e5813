package models

// Workbook represents the source workbook as a set of tables.
type Workbook struct {
	// BookName is the workbook file name (no path).
	BookName string `json:"book_name"`
	// Tables holds one table per sheet, in sheet order.
	Tables []*Table `json:"tables"`
}

// Table returns the table named name, or nil.
func (w *Workbook) Table(name string) *Table {
	for _, t := range w.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Names returns the table names in sheet order.
func (w *Workbook) Names() []string {
	names := make([]string, len(w.Tables))
	for i, t := range w.Tables {
		names[i] = t.Name
	}
	return names
}
