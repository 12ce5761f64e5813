package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/convert"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/output"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/parser"
)

var fillKeys = map[string]string{
	"source":          "paths.source",
	"template":        "paths.template",
	"mapping":         "paths.mapping",
	"out":             "paths.out",
	"output-dir":      "paths.output_dir",
	"lenient-steps":   "options.lenient_steps",
	"raw-cell-values": "options.raw_cell_values",
}

func newFillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Append mapped source rows to the template sheets",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, fillKeys)
		},
		RunE: runFill,
	}
	cmd.Flags().String("source", "", "Source workbook (.xlsx)")
	cmd.Flags().String("template", "", "Template workbook (.xlsx)")
	cmd.Flags().String("mapping", "", "Mapping file (.yaml)")
	cmd.Flags().StringP("out", "o", "", "Output workbook path")
	cmd.Flags().String("output-dir", "", "Output directory when --out is not given")
	cmd.Flags().Bool("lenient-steps", false, "Pass values through unknown transform steps instead of failing")
	cmd.Flags().Bool("raw-cell-values", false, "Read source cells without number formats")
	return cmd
}

func runFill(cmd *cobra.Command, _ []string) error {
	s, log, done, err := setup(cmd, "fill")
	if err != nil {
		return err
	}
	defer done()

	p := s.Paths
	if err := missing("--source", p.Source, "--template", p.Template, "--mapping", p.Mapping, "--out", p.Out); err != nil {
		return err
	}

	lenient := s.Options.LenientSteps
	log.WithFields(logrus.Fields{
		"source":   p.Source,
		"template": p.Template,
		"mapping":  p.Mapping,
		"out":      p.Out,
	}).Info("fill start")
	report, err := sheetfill.Fill(sheetfill.Paths{
		Source:   p.Source,
		Template: p.Template,
		Mapping:  p.Mapping,
		Out:      p.Out,
	}, sheetfill.Options{
		Fs:               fs,
		Logger:           log,
		LenientSteps:     &lenient,
		RawCellValues:    s.Options.RawCellValues,
		ProgressInterval: s.Logging.ProgressInterval,
	})
	if err != nil {
		log.WithError(err).Error("fill failed")
		return fmt.Errorf("fill failed: %w", err)
	}

	data, err := output.ToJSON(report, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), data)
}

var convertKeys = map[string]string{
	"input":      "convert.jsonl_input",
	"csv":        "convert.csv_output",
	"excel":      "convert.excel_output",
	"key-fields": "convert.key_fields",
	"encoding":   "options.encoding",
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Flatten a JSONL record stream into a details CSV and a source workbook",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, convertKeys)
		},
		RunE: runConvert,
	}
	cmd.Flags().String("input", "", "JSONL input file")
	cmd.Flags().String("csv", "", "Details CSV output path")
	cmd.Flags().String("excel", "", "Workbook output path (details plus one sheet per list field)")
	cmd.Flags().StringSlice("key-fields", nil, "Record fields tried in order for the join value")
	cmd.Flags().String("encoding", "", "CSV encoding: utf-8, utf-8-sig, gbk")
	return cmd
}

func runConvert(cmd *cobra.Command, _ []string) error {
	s, log, done, err := setup(cmd, "convert")
	if err != nil {
		return err
	}
	defer done()

	c := s.Convert
	if err := missing("--input", c.JSONLInput, "--csv", c.CSVOutput); err != nil {
		return err
	}
	enc, err := convert.ParseEncoding(s.Options.Encoding)
	if err != nil {
		return err
	}

	result, err := convert.Convert(fs, convert.Paths{
		Input: c.JSONLInput,
		CSV:   c.CSVOutput,
		Excel: c.ExcelOutput,
	}, convert.Options{
		KeyFields: c.KeyFields,
		Encoding:  enc,
		Logger:    log,
	})
	if err != nil {
		log.WithError(err).Error("convert failed")
		return fmt.Errorf("convert failed: %w", err)
	}

	data, err := output.ToJSON(result, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), data)
}

var (
	checkTable    string
	checkRequired []string
	checkUnique   string
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report blank required cells and repeated keys in a source table",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, map[string]string{
				"source":          "paths.source",
				"raw-cell-values": "options.raw_cell_values",
			})
		},
		RunE: runCheck,
	}
	cmd.Flags().String("source", "", "Source workbook (.xlsx)")
	cmd.Flags().Bool("raw-cell-values", false, "Read source cells without number formats")
	cmd.Flags().StringVar(&checkTable, "table", "details", "Table to check")
	cmd.Flags().StringSliceVar(&checkRequired, "required", nil, "Columns that must not be blank")
	cmd.Flags().StringVar(&checkUnique, "unique", "", "Column whose values must not repeat")
	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	s, log, done, err := setup(cmd, "check")
	if err != nil {
		return err
	}
	defer done()

	if err := missing("--source", s.Paths.Source); err != nil {
		return err
	}

	issues, err := sheetfill.Check(s.Paths.Source, sheetfill.CheckOptions{
		Table:    checkTable,
		Required: checkRequired,
		Unique:   checkUnique,
	}, sheetfill.Options{Fs: fs, Logger: log, RawCellValues: s.Options.RawCellValues})
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if issues == nil {
		issues = []parser.Issue{}
	}
	data, err := output.ToJSON(issues, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	if err := writeJSON(cmd.OutOrStdout(), data); err != nil {
		return err
	}
	if len(issues) > 0 {
		return fmt.Errorf("%d issues found", len(issues))
	}
	return nil
}
