package models

// Cell is one resolved output value addressed by target column name.
type Cell struct {
	// Column is the target header text.
	Column string `json:"column"`
	// Value is the resolved scalar.
	Value Value `json:"-"`
}

// OutputRow holds the resolved cells of one output row in mapping order.
type OutputRow []Cell

// Set stores value under column. A column set twice keeps its first
// position and its last value.
func (r *OutputRow) Set(column string, value Value) {
	for i := range *r {
		if (*r)[i].Column == column {
			(*r)[i].Value = value
			return
		}
	}
	*r = append(*r, Cell{Column: column, Value: value})
}

// Get returns the value stored under column.
func (r OutputRow) Get(column string) (Value, bool) {
	for _, c := range r {
		if c.Column == column {
			return c.Value, true
		}
	}
	return Null, false
}
