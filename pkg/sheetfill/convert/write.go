package convert

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

// Encoding names the character encoding of CSV output.
type Encoding string

const (
	// EncodingUTF8 writes plain UTF-8.
	EncodingUTF8 Encoding = "utf-8"
	// EncodingUTF8BOM writes UTF-8 with a byte order mark, as spreadsheet
	// applications expect.
	EncodingUTF8BOM Encoding = "utf-8-sig"
	// EncodingGBK writes GBK; characters GBK cannot represent are replaced.
	EncodingGBK Encoding = "gbk"
)

// ParseEncoding resolves a configured encoding name. Empty selects utf-8-sig.
func ParseEncoding(name string) (Encoding, error) {
	switch e := Encoding(strings.ToLower(strings.TrimSpace(name))); e {
	case "":
		return EncodingUTF8BOM, nil
	case EncodingUTF8, EncodingUTF8BOM, EncodingGBK:
		return e, nil
	case "utf8":
		return EncodingUTF8, nil
	default:
		return "", fmt.Errorf("unsupported encoding %q (must be utf-8, utf-8-sig or gbk)", name)
	}
}

func (e Encoding) encoder() *encoding.Encoder {
	switch e {
	case EncodingUTF8:
		return unicode.UTF8.NewEncoder()
	case EncodingGBK:
		return encoding.ReplaceUnsupported(simplifiedchinese.GBK.NewEncoder())
	default:
		return unicode.UTF8BOM.NewEncoder()
	}
}

// WriteCSV writes t as CSV, header first, in encoding enc.
func WriteCSV(w io.Writer, t *models.Table, enc Encoding) error {
	tw := transform.NewWriter(w, enc.encoder())
	cw := csv.NewWriter(tw)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, col := range t.Columns {
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return tw.Close()
}

// WriteWorkbook writes one sheet per table, in order, each with a header
// row. Table names must already be valid sheet names.
func WriteWorkbook(w io.Writer, tables []*models.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("sheet %q: %w", t.Name, err)
		}
		if err := writeSheet(f, t); err != nil {
			return fmt.Errorf("sheet %q: %w", t.Name, err)
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func writeSheet(f *excelize.File, t *models.Table) error {
	sw, err := f.NewStreamWriter(t.Name)
	if err != nil {
		return err
	}
	header := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if len(header) > 0 {
		if err := sw.SetRow("A1", header); err != nil {
			return err
		}
	}
	for r, row := range t.Rows {
		values := make([]any, len(t.Columns))
		for i, col := range t.Columns {
			values[i] = row[col]
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}
	return sw.Flush()
}
