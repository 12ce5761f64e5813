package sheetfill

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/mapping"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/parser"
)

// CheckOptions selects the source checks to run.
type CheckOptions struct {
	// Table is the source table to check. If empty, "details" is used.
	Table string
	// Required lists columns that must not be blank.
	Required []string
	// Unique names a column whose values must not repeat. Empty skips the check.
	Unique string
}

// Check runs the required and unique checks against one table of the
// source workbook at path.
func Check(path string, check CheckOptions, opts Options) ([]parser.Issue, error) {
	wb, err := LoadSource(opts.fs(), path, opts)
	if err != nil {
		return nil, err
	}

	name := check.Table
	if name == "" {
		name = mapping.DetailsTable
	}
	t := wb.Table(name)
	if t == nil {
		return nil, NewFillError(name, ComponentSource, fmt.Errorf("table %q not found in %s", name, wb.BookName))
	}

	issues := parser.CheckRequired(t, check.Required)
	if check.Unique != "" {
		issues = append(issues, parser.CheckUnique(t, check.Unique)...)
	}
	opts.logger().WithFields(logrus.Fields{"table": name, "rows": t.Len(), "issues": len(issues)}).Info("source checked")
	return issues, nil
}
