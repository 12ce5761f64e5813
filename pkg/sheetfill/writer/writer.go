// Package writer appends resolved rows to the sheets of a template workbook.
package writer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/parser"
)

// Writer owns an open template workbook until it is saved and closed.
type Writer struct {
	file *excelize.File
}

// New wraps an open workbook.
func New(f *excelize.File) *Writer {
	return &Writer{file: f}
}

// Open reads the template at path from fs.
func Open(fs afero.Fs, path string) (*Writer, error) {
	r, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	return New(f), nil
}

// File returns the underlying workbook.
func (w *Writer) File() *excelize.File { return w.file }

// HasSheet reports whether the workbook has a sheet named name.
func (w *Writer) HasSheet(name string) bool {
	idx, err := w.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

// Header maps the trimmed text of each row-1 cell to its 1-based column
// number. When two cells share a text, the rightmost wins.
func Header(row []string) map[string]int {
	hdr := make(map[string]int, len(row))
	for i, cell := range row {
		hdr[strings.TrimSpace(cell)] = i + 1
	}
	return hdr
}

// Append writes rows below the last populated row of sheet, each value
// into the column whose header matches its target name. Values whose
// column is absent from the header are dropped. It returns the number of
// rows written.
func (w *Writer) Append(sheet string, rows []models.OutputRow) (int, error) {
	existing, err := w.file.GetRows(sheet)
	if err != nil {
		return 0, err
	}
	var hdr map[string]int
	if len(existing) > 0 {
		hdr = Header(existing[0])
	}

	next := parser.LastDataRow(existing) + 1
	if next < 2 {
		next = 2
	}

	for i, row := range rows {
		rowNum := next + i
		for _, cell := range row {
			col, ok := hdr[cell.Column]
			if !ok {
				continue
			}
			value, ok := CellValue(cell.Value)
			if !ok {
				continue
			}
			name, err := excelize.CoordinatesToCellName(col, rowNum)
			if err != nil {
				return i, err
			}
			if err := w.file.SetCellValue(sheet, name, value); err != nil {
				return i, fmt.Errorf("write %s!%s: %w", sheet, name, err)
			}
		}
	}
	return len(rows), nil
}

// CellValue converts v to a value excelize can store. Null has no cell
// value; composites are stored as JSON text.
func CellValue(v models.Value) (any, bool) {
	switch v.Kind() {
	case models.KindNull:
		return nil, false
	case models.KindString:
		s, _ := v.Str()
		return s, true
	case models.KindNumber:
		f, _ := v.Num()
		return f, true
	case models.KindBool:
		b, _ := v.Flag()
		return b, true
	case models.KindTime:
		t, _ := v.Timestamp()
		return t, true
	default:
		return v.CanonicalJSON(), true
	}
}

// Save writes the workbook to path on fs, creating parent directories.
func (w *Writer) Save(fs afero.Fs, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := fs.Create(path)
	if err != nil {
		return err
	}
	if _, err := w.file.WriteTo(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Close releases the workbook.
func (w *Writer) Close() error {
	return w.file.Close()
}
