package sheetfill

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/mapping"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/parser"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/resolve"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/writer"
)

// Skip reasons reported in models.SheetReport.
const (
	ReasonTemplateSheetMissing = "template sheet missing"
	ReasonSourceTableMissing   = "source table missing"
)

// Paths names the files of one fill run.
type Paths struct {
	// Source is the source workbook; every sheet becomes a table.
	Source string
	// Template is the workbook whose sheets are extended.
	Template string
	// Mapping is the mapping document.
	Mapping string
	// Out is where the filled workbook is saved.
	Out string
}

// Fill resolves every target sheet of the mapping against the source
// workbook and saves the extended template to paths.Out. Nothing is
// written unless every sheet succeeds.
func Fill(paths Paths, opts Options) (*models.Report, error) {
	fs := opts.fs()
	log := opts.logger()

	spec, err := mapping.LoadFile(fs, paths.Mapping, mapping.Options{
		UnknownSteps: opts.stepPolicy(),
		Read:         parser.ReadOptions{RawCellValues: opts.RawCellValues},
		Logger:       log,
	})
	if err != nil {
		return nil, NewFillError("", ComponentMapping, classify(paths.Mapping, err))
	}

	// Load source tables
	wb, err := LoadSource(fs, paths.Source, opts)
	if err != nil {
		return nil, err
	}
	tables := parser.NewRegistry(wb, spec.JoinKey)
	indexed := tables.BuildIndexes(resolve.JoinTables(spec, tables))
	log.WithFields(logrus.Fields{
		"tables":  len(wb.Tables),
		"indexed": indexed,
		"join":    spec.JoinKey,
	}).Info("source loaded")

	// Open template
	tpl, err := openWorkbook(fs, paths.Template)
	if err != nil {
		return nil, NewFillError("", ComponentTemplate, err)
	}
	w := writer.New(tpl)
	defer w.Close()

	report := &models.Report{Output: paths.Out, JoinKey: spec.JoinKey, Indexed: indexed}
	res := resolve.New(tables, log, opts.ProgressInterval)

	for _, sheet := range spec.Sheets {
		sr := models.SheetReport{
			Name:      sheet.Name,
			Policy:    string(sheet.Policy),
			BaseTable: resolve.BaseTable(sheet, tables),
		}
		sheetLog := log.WithFields(logrus.Fields{"sheet": sheet.Name, "base": sr.BaseTable})

		if !w.HasSheet(sheet.Name) {
			sheetLog.Warn("template sheet not found, skipping")
			sr.Skipped, sr.Reason = true, ReasonTemplateSheetMissing
			report.Sheets = append(report.Sheets, sr)
			continue
		}

		rows, err := res.Rows(sheet)
		if errors.Is(err, resolve.ErrBaseTableMissing) {
			sheetLog.Warn("source table not found, skipping")
			sr.Skipped, sr.Reason = true, ReasonSourceTableMissing
			report.Sheets = append(report.Sheets, sr)
			continue
		}
		if err != nil {
			return nil, NewFillError(sheet.Name, ComponentSource, err)
		}

		n, err := w.Append(sheet.Name, rows)
		if err != nil {
			return nil, NewFillError(sheet.Name, ComponentWrite, err)
		}
		sr.Rows = n
		sheetLog.WithField("rows", n).Info("sheet filled")
		report.Sheets = append(report.Sheets, sr)
	}

	if err := w.Save(fs, paths.Out); err != nil {
		return nil, NewFillError("", ComponentSave, err)
	}
	log.WithFields(logrus.Fields{"out": paths.Out, "rows": report.Rows()}).Info("workbook saved")
	return report, nil
}

// LoadSource reads every sheet of the workbook at path as a table.
func LoadSource(fs afero.Fs, path string, opts Options) (*models.Workbook, error) {
	f, err := openWorkbook(fs, path)
	if err != nil {
		return nil, NewFillError("", ComponentSource, err)
	}
	defer f.Close()

	wb, err := parser.ReadWorkbook(f, filepath.Base(path), parser.ReadOptions{RawCellValues: opts.RawCellValues})
	if err != nil {
		return nil, NewFillError("", ComponentSource, err)
	}
	return wb, nil
}

func openWorkbook(fs afero.Fs, path string) (*excelize.File, error) {
	r, err := fs.Open(path)
	if err != nil {
		return nil, classify(path, err)
	}
	defer r.Close()

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
	}
	return f, nil
}

func classify(path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return err
}
