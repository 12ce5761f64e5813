package convert

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

// Options configures a conversion.
type Options struct {
	// KeyFields are tried in order for the join value of list rows.
	// If empty, DefaultKeyFields is used.
	KeyFields []string
	// Encoding of the details CSV. If empty, utf-8-sig is used.
	Encoding Encoding
	// Logger receives progress. If nil, logs are discarded.
	Logger logrus.FieldLogger
}

// Paths names the files of one conversion.
type Paths struct {
	// Input is the JSONL record stream.
	Input string
	// CSV receives the details table.
	CSV string
	// Excel, when set, receives the details sheet plus one sheet per list field.
	Excel string
}

// Result summarizes a conversion.
type Result struct {
	Records      int               `json:"records"`
	SkippedLines int               `json:"skipped_lines"`
	CSV          string            `json:"csv"`
	Excel        string            `json:"excel,omitempty"`
	BaseFields   []string          `json:"base_fields"`
	ListFields   []string          `json:"list_fields,omitempty"`
	Sheets       map[string]string `json:"sheets,omitempty"` // list field -> sheet name
}

// Tables flattens records into the details table followed by one table per
// list field and, when present, the relation table. Table names are valid,
// unique sheet names.
func Tables(records []Record, keyFields []string) ([]*models.Table, map[string]string) {
	if len(keyFields) == 0 {
		keyFields = DefaultKeyFields
	}
	base, lists := SplitFields(records)

	namer := NewSheetNamer()
	details := DetailsTable(records, base)
	details.Name = namer.Name(DetailsSheet)
	tables := []*models.Table{details}
	sheets := map[string]string{}

	for _, field := range lists {
		t := ListTable(records, field, keyFields)
		t.Name = namer.Name(field)
		sheets[field] = t.Name
		tables = append(tables, t)
	}
	if _, dup := sheets[RelationTable]; !dup {
		if t := RelationRows(records, keyFields); t != nil {
			t.Name = namer.Name(RelationTable)
			sheets[RelationTable] = t.Name
			tables = append(tables, t)
		}
	}
	return tables, sheets
}

// Convert reads the JSONL at paths.Input and writes the details CSV and,
// optionally, the multi-sheet workbook. Parent directories are created.
func Convert(fs afero.Fs, paths Paths, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	in, err := fs.Open(paths.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	records, skipped, err := ReadJSONL(in)
	in.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", paths.Input, err)
	}
	log.WithFields(logrus.Fields{"records": len(records), "skipped_lines": skipped}).Info("records read")

	tables, sheets := Tables(records, opts.KeyFields)
	base, lists := SplitFields(records)
	result := &Result{
		Records:      len(records),
		SkippedLines: skipped,
		CSV:          paths.CSV,
		BaseFields:   base,
		ListFields:   lists,
		Sheets:       sheets,
	}

	enc := opts.Encoding
	if enc == "" {
		enc = EncodingUTF8BOM
	}
	if err := create(fs, paths.CSV, func(w io.Writer) error {
		return WriteCSV(w, tables[0], enc)
	}); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}

	if paths.Excel != "" {
		if err := create(fs, paths.Excel, func(w io.Writer) error {
			return WriteWorkbook(w, tables)
		}); err != nil {
			return nil, fmt.Errorf("failed to write workbook: %w", err)
		}
		result.Excel = paths.Excel
	}
	log.WithFields(logrus.Fields{"csv": result.CSV, "excel": result.Excel, "sheets": len(tables)}).Info("conversion done")
	return result, nil
}

func create(fs afero.Fs, path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := fs.Create(path)
	if err != nil {
		return err
	}
	if err := write(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
