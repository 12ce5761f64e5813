package parser

import (
	"fmt"
	"strings"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

// Issue codes reported by the table checks.
const (
	IssueRequiredMissing = "required_missing"
	IssueDuplicateKey    = "duplicate_key"
	IssueMissingColumn   = "missing_column"
)

// Issue is one problem found in a source table.
type Issue struct {
	// Row is the 1-based data row number (0 for table-level issues).
	Row int `json:"row"`
	// Column is the offending column.
	Column string `json:"column"`
	// Code is one of the Issue* constants.
	Code string `json:"error"`
	// Value is the offending cell text.
	Value string `json:"value"`
}

func (i Issue) String() string {
	if i.Row == 0 {
		return fmt.Sprintf("%s: %s", i.Column, i.Code)
	}
	return fmt.Sprintf("row %d, %s: %s (%q)", i.Row, i.Column, i.Code, i.Value)
}

// CheckRequired reports every cell of the required columns that is blank
// after trimming. Columns absent from the header are reported once.
func CheckRequired(t *models.Table, columns []string) []Issue {
	var issues []Issue
	present := make([]string, 0, len(columns))
	for _, col := range columns {
		if !t.HasColumn(col) {
			issues = append(issues, Issue{Column: col, Code: IssueMissingColumn})
			continue
		}
		present = append(present, col)
	}
	for i, row := range t.Rows {
		for _, col := range present {
			if strings.TrimSpace(row[col]) == "" {
				issues = append(issues, Issue{Row: i + 1, Column: col, Code: IssueRequiredMissing, Value: row[col]})
			}
		}
	}
	return issues
}

// CheckUnique reports every repeat of a key value after its first occurrence.
func CheckUnique(t *models.Table, key string) []Issue {
	if !t.HasColumn(key) {
		return []Issue{{Column: key, Code: IssueMissingColumn}}
	}
	var issues []Issue
	seen := make(map[string]struct{}, len(t.Rows))
	for i, row := range t.Rows {
		v := row[key]
		if _, dup := seen[v]; dup {
			issues = append(issues, Issue{Row: i + 1, Column: key, Code: IssueDuplicateKey, Value: v})
			continue
		}
		seen[v] = struct{}{}
	}
	return issues
}
