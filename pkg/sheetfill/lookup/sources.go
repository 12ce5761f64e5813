package lookup

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/parser"
)

// Source declares a dictionary read from a two-column reference table.
type Source struct {
	// Name is the dictionary name referenced by transform steps.
	Name string `yaml:"name" validate:"required"`
	// Path is the .xlsx or .csv file; relative paths resolve against the mapping file.
	Path string `yaml:"path" validate:"required"`
	// Sheet is the worksheet to read (xlsx only); the first sheet when empty.
	Sheet string `yaml:"sheet"`
	// KeyColumn is the header of the key column.
	KeyColumn string `yaml:"key_column" validate:"required"`
	// ValueColumn is the header of the value column.
	ValueColumn string `yaml:"value_column" validate:"required"`
}

// ErrColumnNotFound indicates a key or value column missing from a source.
var ErrColumnNotFound = errors.New("column not found")

// LoadSource reads src into a table. Rows whose key is blank are skipped.
func LoadSource(fs afero.Fs, src Source, baseDir string, opts parser.ReadOptions) (Table, error) {
	path := src.Path
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}

	file, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var table *models.Table
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		table, err = readCSV(file, src.Name)
	} else {
		table, err = readXLSX(file, src.Sheet, opts)
	}
	if err != nil {
		return nil, err
	}

	for _, col := range []string{src.KeyColumn, src.ValueColumn} {
		if !table.HasColumn(col) {
			return nil, fmt.Errorf("%w: %q in %s", ErrColumnNotFound, col, path)
		}
	}

	t := make(Table, len(table.Rows))
	for _, row := range table.Rows {
		key := row[src.KeyColumn]
		if strings.TrimSpace(key) == "" {
			continue
		}
		t[key] = models.String(row[src.ValueColumn])
	}
	return t, nil
}

func readXLSX(r io.Reader, sheet string, opts parser.ReadOptions) (*models.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	return parser.ReadTable(f, sheet, opts)
}

func readCSV(r io.Reader, name string) (*models.Table, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return parser.TableFromRows(name, rows), nil
}

// Load builds a registry from inline dictionaries and external sources.
// A source that fails to load is logged and skipped.
func Load(fs afero.Fs, inline map[string]map[any]any, sources []Source, baseDir string, opts parser.ReadOptions, logger logrus.FieldLogger) *Registry {
	r := NewRegistry()
	for name, entries := range inline {
		r.SetInline(name, entries)
	}
	for _, src := range sources {
		t, err := LoadSource(fs, src, baseDir, opts)
		if err != nil {
			logger.WithError(err).WithField("dict", src.Name).Warn("dictionary source skipped")
			continue
		}
		r.Set(src.Name, t)
		logger.WithFields(logrus.Fields{"dict": src.Name, "entries": len(t)}).Debug("dictionary source loaded")
	}
	return r
}
