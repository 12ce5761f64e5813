// Package resolve evaluates column mappings against source rows.
package resolve

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/mapping"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/parser"
)

// ErrBaseTableMissing indicates that a sheet's base table is not among the
// source tables.
var ErrBaseTableMissing = errors.New("base table not found")

// DefaultProgressInterval is the number of base rows between progress logs.
const DefaultProgressInterval = 100

// Resolver produces output rows from source tables. It never mutates the
// tables it reads.
type Resolver struct {
	tables   *parser.Registry
	logger   logrus.FieldLogger
	interval int
}

// New creates a resolver over tables. A nil logger discards progress logs;
// interval <= 0 selects DefaultProgressInterval.
func New(tables *parser.Registry, logger logrus.FieldLogger, interval int) *Resolver {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &Resolver{tables: tables, logger: logger, interval: interval}
}

// BaseTable returns the table whose rows anchor the output rows of sheet:
// details when present for one_to_one sheets, otherwise the sheet source.
func BaseTable(sheet mapping.TargetSheet, tables *parser.Registry) string {
	if sheet.Policy == mapping.PolicyOneToOne {
		if _, ok := tables.Table(mapping.DetailsTable); ok {
			return mapping.DetailsTable
		}
	}
	return sheet.Source
}

// JoinTables returns, sorted, the tables reached through the join key:
// those referenced by a one_to_one sheet other than as its base table.
func JoinTables(spec *mapping.Spec, tables *parser.Registry) []string {
	seen := map[string]bool{}
	for _, sheet := range spec.Sheets {
		if sheet.Policy != mapping.PolicyOneToOne {
			continue
		}
		base := BaseTable(sheet, tables)
		for _, name := range sheet.Tables() {
			if name != base {
				seen[name] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Rows resolves one output row per base row, in table order. It fails
// with ErrBaseTableMissing when the base table does not exist.
func (r *Resolver) Rows(sheet mapping.TargetSheet) ([]models.OutputRow, error) {
	base := BaseTable(sheet, r.tables)
	table, ok := r.tables.Table(base)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBaseTableMissing, base)
	}

	log := r.logger.WithFields(logrus.Fields{"sheet": sheet.Name, "base": base})
	out := make([]models.OutputRow, 0, table.Len())
	for i, row := range table.Rows {
		out = append(out, r.Row(sheet, base, row))
		if (i+1)%r.interval == 0 {
			log.WithField("rows", i+1).Info("resolving rows")
		}
	}
	return out, nil
}

// Row resolves every column of sheet for one base row.
func (r *Resolver) Row(sheet mapping.TargetSheet, base string, row models.Row) models.OutputRow {
	out := make(models.OutputRow, 0, len(sheet.Columns))
	for _, col := range sheet.Columns {
		out.Set(col.Target, r.Value(sheet.Policy, col, base, row))
	}
	return out
}

// Value gathers the candidates of col, runs its chain and returns the first
// result, or the column default when the chain yields nothing.
func (r *Resolver) Value(policy mapping.Policy, col mapping.Column, base string, row models.Row) models.Value {
	result := col.Chain.Apply(r.Candidates(policy, col, base, row))
	if len(result) == 0 {
		return col.Default
	}
	return result[0]
}

// Candidates concatenates the values of every source reference of col in
// declaration order.
func (r *Resolver) Candidates(policy mapping.Policy, col mapping.Column, base string, row models.Row) []models.Value {
	var values []models.Value
	for _, ref := range col.Sources {
		values = append(values, r.refValues(policy, ref, base, row)...)
	}
	return values
}

func (r *Resolver) refValues(policy mapping.Policy, ref mapping.SourceRef, base string, row models.Row) []models.Value {
	if ref.Table == base {
		return []models.Value{models.String(row.Get(ref.Column))}
	}
	if policy != mapping.PolicyOneToOne {
		return nil
	}
	table, ok := r.tables.Table(ref.Table)
	if !ok || !table.HasColumn(ref.Column) {
		return nil
	}

	var values []models.Value
	for _, related := range r.tables.Group(ref.Table, row.Get(r.tables.JoinKey())) {
		if matches(table, related, ref.Where) {
			values = append(values, models.String(related.Get(ref.Column)))
		}
	}
	return values
}

// matches applies exact string conditions. Conditions on fields the table
// does not have are ignored.
func matches(table *models.Table, row models.Row, where []mapping.Condition) bool {
	for _, cond := range where {
		if !table.HasColumn(cond.Field) {
			continue
		}
		if row.Get(cond.Field) != cond.Value {
			return false
		}
	}
	return true
}
