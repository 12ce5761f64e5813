package parser

import (
	"sort"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

// GroupIndex maps a join-key value to the rows sharing it, in table order.
type GroupIndex map[string][]models.Row

// BuildGroupIndex groups the rows of t by the exact text of column key.
// It returns nil when t has no such column.
func BuildGroupIndex(t *models.Table, key string) GroupIndex {
	if !t.HasColumn(key) {
		return nil
	}
	idx := make(GroupIndex)
	for _, row := range t.Rows {
		v := row[key]
		idx[v] = append(idx[v], row)
	}
	return idx
}

// Registry owns the source tables of one run and their group indexes.
// It is read-only once the indexes are built.
type Registry struct {
	tables  map[string]*models.Table
	order   []string
	joinKey string
	groups  map[string]GroupIndex
}

// NewRegistry wraps the tables of wb. joinKey names the column used to
// correlate rows across tables.
func NewRegistry(wb *models.Workbook, joinKey string) *Registry {
	r := &Registry{
		tables:  make(map[string]*models.Table, len(wb.Tables)),
		joinKey: joinKey,
		groups:  make(map[string]GroupIndex),
	}
	for _, t := range wb.Tables {
		if _, dup := r.tables[t.Name]; !dup {
			r.order = append(r.order, t.Name)
		}
		r.tables[t.Name] = t
	}
	return r
}

// JoinKey returns the join column name.
func (r *Registry) JoinKey() string { return r.joinKey }

// Names returns the table names in workbook order.
func (r *Registry) Names() []string { return r.order }

// Table returns the named table.
func (r *Registry) Table(name string) (*models.Table, bool) {
	t, ok := r.tables[name]
	return t, ok
}

// BuildIndexes builds the group index of every named table that exists and
// carries the join column. It returns the names that were indexed, sorted.
// Tables already indexed are not rebuilt.
func (r *Registry) BuildIndexes(names []string) []string {
	var built []string
	for _, name := range names {
		if _, done := r.groups[name]; done {
			built = append(built, name)
			continue
		}
		t, ok := r.tables[name]
		if !ok {
			continue
		}
		idx := BuildGroupIndex(t, r.joinKey)
		if idx == nil {
			continue
		}
		r.groups[name] = idx
		built = append(built, name)
	}
	sort.Strings(built)
	return built
}

// Indexed reports whether table has a group index.
func (r *Registry) Indexed(table string) bool {
	_, ok := r.groups[table]
	return ok
}

// Group returns the rows of table whose join column equals keyValue.
// Unindexed tables and unknown keys yield nil.
func (r *Registry) Group(table, keyValue string) []models.Row {
	idx, ok := r.groups[table]
	if !ok {
		return nil
	}
	return idx[keyValue]
}

// LastDataRow returns the 1-based number of the last row holding a non-empty
// cell, or 0 for an empty sheet.
func LastDataRow(rows [][]string) int {
	for rowIdx := len(rows) - 1; rowIdx >= 0; rowIdx-- {
		for _, cell := range rows[rowIdx] {
			if cell != "" {
				return rowIdx + 1
			}
		}
	}
	return 0
}
