package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
	"github.com/xuri/excelize/v2"
)

// ReadOptions configures how sheet cells are turned into table text.
type ReadOptions struct {
	// RawCellValues reads stored cell values instead of number-formatted text.
	RawCellValues bool
}

// ReadWorkbook reads every sheet of f into a table, in sheet order.
func ReadWorkbook(f *excelize.File, bookName string, opts ReadOptions) (*models.Workbook, error) {
	wb := &models.Workbook{BookName: bookName}
	for _, sheetName := range f.GetSheetList() {
		t, err := ReadTable(f, sheetName, opts)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
		}
		wb.Tables = append(wb.Tables, t)
	}
	return wb, nil
}

// ReadTable reads one sheet as an all-string table. Row 1 is the header;
// blank cells become "" and fully blank data rows are dropped.
func ReadTable(f *excelize.File, sheetName string, opts ReadOptions) (*models.Table, error) {
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: opts.RawCellValues})
	if err != nil {
		return nil, err
	}
	return TableFromRows(sheetName, rows), nil
}

// TableFromRows builds a table from raw sheet rows, the first row being the header.
func TableFromRows(name string, rows [][]string) *models.Table {
	t := &models.Table{Name: name}
	if len(rows) == 0 {
		return t
	}
	t.Columns = headerNames(rows[0])

	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		r := make(models.Row, len(t.Columns))
		for colIdx, col := range t.Columns {
			if colIdx < len(row) {
				r[col] = row[colIdx]
			} else {
				r[col] = ""
			}
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

// headerNames trims header cells, names blank headers "Unnamed: <i>" and
// suffixes repeated names with ".1", ".2", ... until every name is unique.
func headerNames(cells []string) []string {
	names := make([]string, len(cells))
	counts := make(map[string]int, len(cells))
	for i, cell := range cells {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		for n := counts[name]; n > 0; n = counts[name] {
			counts[name] = n + 1
			name = name + "." + strconv.Itoa(n)
		}
		counts[name]++
		names[i] = name
	}
	return names
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
