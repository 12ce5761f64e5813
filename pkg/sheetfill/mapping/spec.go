// Package mapping loads and validates the declarative mapping that drives a
// fill run, and compiles it into the form used by the resolver.
package mapping

import (
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/lookup"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/transform"
)

// Policy is a row-production policy.
type Policy string

const (
	// PolicyOneToOne produces one row per base row, pulling related values
	// from other tables through the join key.
	PolicyOneToOne Policy = "one_to_one"
	// PolicyAppend copies rows of the sheet's source table; cross-table
	// references resolve to nothing.
	PolicyAppend Policy = "one_to_many_append"
)

// DetailsTable is the preferred base table of one_to_one sheets.
const DetailsTable = "details"

// Spec is a compiled mapping.
type Spec struct {
	// JoinKey is the column correlating rows across tables.
	JoinKey string
	// Sheets are the target sheets in declaration order.
	Sheets []TargetSheet
	// Lookups holds the dictionaries preloaded for this mapping.
	Lookups *lookup.Registry
}

// TargetSheet is one output sheet.
type TargetSheet struct {
	Name    string
	Policy  Policy
	Source  string
	Columns []Column
}

// Column resolves one output column.
type Column struct {
	// Target is the header text of the output column.
	Target string
	// Sources are evaluated in order and their values concatenated.
	Sources []SourceRef
	// Chain transforms the concatenated values.
	Chain transform.Chain
	// Default is used when the chain yields nothing.
	Default models.Value
}

// SourceRef reads a column of a source table, optionally filtered.
type SourceRef struct {
	Table  string
	Column string
	Where  []Condition
}

// Condition is an exact string match on a row field.
type Condition struct {
	Field string
	Value string
}

// Tables returns the distinct tables referenced by any column of the sheet.
func (s TargetSheet) Tables() []string {
	var out []string
	seen := map[string]bool{}
	for _, col := range s.Columns {
		for _, ref := range col.Sources {
			if !seen[ref.Table] {
				seen[ref.Table] = true
				out = append(out, ref.Table)
			}
		}
	}
	return out
}
