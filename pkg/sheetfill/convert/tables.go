package convert

import (
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

// DetailsSheet names the base table.
const DetailsSheet = "details"

// KeyColumn is the join column written to every list table.
const KeyColumn = "contract_number"

// RelationTable is the extra table flattened from relation.relation_contracts[].contracts.
const RelationTable = "relation_contracts_contracts"

// DefaultKeyFields are the record fields tried, in order, for the join value.
var DefaultKeyFields = []string{"contract_number", "contract_code", "contract_id"}

// DetailsTable builds the base table: one row per record over the base
// fields. Missing fields are blank.
func DetailsTable(records []Record, fields []string) *models.Table {
	t := &models.Table{Name: DetailsSheet, Columns: fields}
	for _, rec := range records {
		row := make(models.Row, len(fields))
		for _, f := range fields {
			row[f] = CellText(rec[f])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ListTable flattens field into one row per list item. Object items
// contribute their fields; scalar items are stored under "value".
func ListTable(records []Record, field string, keyFields []string) *models.Table {
	var rows []models.Row
	for _, rec := range records {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		ref := keyValue(rec, keyFields)
		for _, item := range items(expand(v)) {
			row := models.Row{KeyColumn: ref}
			if obj, ok := item.(map[string]any); ok {
				for k, sub := range obj {
					row[k] = CellText(sub)
				}
			} else {
				row["value"] = CellText(item)
			}
			rows = append(rows, row)
		}
	}
	return newTable(field, rows)
}

// RelationRows flattens relation.relation_contracts[].contracts into one
// row per related contract, prefixing the contract fields with "related_".
func RelationRows(records []Record, keyFields []string) *models.Table {
	var rows []models.Row
	for _, rec := range records {
		relation, ok := expand(rec["relation"]).(map[string]any)
		if !ok {
			continue
		}
		groups, ok := relation["relation_contracts"]
		if !ok || groups == nil {
			continue
		}
		ref := keyValue(rec, keyFields)
		for _, g := range items(expand(groups)) {
			group, ok := g.(map[string]any)
			if !ok {
				continue
			}
			contracts, ok := group["contracts"]
			if !ok || contracts == nil {
				continue
			}
			for _, item := range items(expand(contracts)) {
				row := models.Row{
					KeyColumn:       ref,
					"relation_key":  CellText(group["relation_key"]),
					"relation_name": CellText(group["relation_name"]),
					"contract_ids":  CellText(group["contract_ids"]),
				}
				if obj, ok := item.(map[string]any); ok {
					for k, sub := range obj {
						row["related_"+k] = CellText(sub)
					}
				} else {
					row["related_value"] = CellText(item)
				}
				rows = append(rows, row)
			}
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return newTable(RelationTable, rows)
}

func items(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// keyValue returns the first non-empty key field of rec.
func keyValue(rec Record, keyFields []string) string {
	for _, f := range keyFields {
		if v, ok := rec[f]; ok && v != nil {
			if s := cast.ToString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// newTable orders columns with the key column first, then by name, and
// fills absent cells with "".
func newTable(name string, rows []models.Row) *models.Table {
	seen := map[string]bool{KeyColumn: true}
	var rest []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				rest = append(rest, k)
			}
		}
	}
	sort.Strings(rest)

	t := &models.Table{Name: name, Columns: append([]string{KeyColumn}, rest...)}
	for _, row := range rows {
		for _, col := range t.Columns {
			if _, ok := row[col]; !ok {
				row[col] = ""
			}
		}
	}
	t.Rows = rows
	return t
}

// maxSheetName is the spreadsheet limit on sheet name length, in characters.
const maxSheetName = 31

// SheetNamer turns field names into valid, unique sheet names. Names are
// compared case-insensitively, as spreadsheet applications do.
type SheetNamer struct {
	used map[string]int
}

// NewSheetNamer returns a namer with no names taken.
func NewSheetNamer() *SheetNamer {
	return &SheetNamer{used: map[string]int{}}
}

// Name removes the characters []:*?/\ and surrounding apostrophes,
// substitutes "sheet" for an empty result, truncates to 31 characters and
// suffixes repeats with _1, _2, ... within the limit.
func (n *SheetNamer) Name(field string) string {
	cleaned := strings.Trim(strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return -1
		}
		return r
	}, field), "'")
	if cleaned == "" {
		cleaned = "sheet"
	}
	cleaned = truncate(cleaned, maxSheetName)

	key := strings.ToLower(cleaned)
	if _, taken := n.used[key]; !taken {
		n.used[key] = 0
		return cleaned
	}
	suffix := n.used[key]
	for {
		suffix++
		tail := "_" + cast.ToString(suffix)
		name := truncate(cleaned, maxSheetName-len(tail)) + tail
		if _, taken := n.used[strings.ToLower(name)]; !taken {
			n.used[key] = suffix
			n.used[strings.ToLower(name)] = 0
			return name
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
