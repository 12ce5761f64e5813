// Package config loads run settings from a YAML file, the environment and
// command-line flags, and builds the run logger.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: paths.source is read from
// SHEETFILL_PATHS_SOURCE.
const EnvPrefix = "SHEETFILL"

// DefaultOutName is the output file name used when only paths.output_dir is set.
const DefaultOutName = "filled_template.xlsx"

// Settings holds every configurable value of a run.
type Settings struct {
	Paths   Paths   `mapstructure:"paths"`
	Convert Convert `mapstructure:"convert"`
	Options Options `mapstructure:"options"`
	Logging Logging `mapstructure:"logging"`
}

// Paths locates the fill inputs and output.
type Paths struct {
	Source    string `mapstructure:"source"`
	Template  string `mapstructure:"template"`
	Mapping   string `mapstructure:"mapping"`
	Out       string `mapstructure:"out"`
	OutputDir string `mapstructure:"output_dir"`
}

// Convert locates the JSONL conversion input and outputs.
type Convert struct {
	JSONLInput  string   `mapstructure:"jsonl_input"`
	CSVOutput   string   `mapstructure:"csv_output"`
	ExcelOutput string   `mapstructure:"excel_output"`
	KeyFields   []string `mapstructure:"key_fields"`
}

// Options tunes engine behavior.
type Options struct {
	Encoding      string `mapstructure:"encoding" validate:"omitempty,oneof=utf-8 utf8 utf-8-sig gbk"`
	LenientSteps  bool   `mapstructure:"lenient_steps"`
	RawCellValues bool   `mapstructure:"raw_cell_values"`
}

// Logging configures the run logger.
type Logging struct {
	Level            string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn warning error"`
	JSON             bool   `mapstructure:"json"`
	File             string `mapstructure:"file"`
	ProgressInterval int    `mapstructure:"progress_interval" validate:"gte=0"`
}

// pathKeys are resolved against the settings file directory.
var pathKeys = []string{
	"paths.source",
	"paths.template",
	"paths.mapping",
	"paths.out",
	"paths.output_dir",
	"convert.jsonl_input",
	"convert.csv_output",
	"convert.excel_output",
	"logging.file",
}

// SetDefaults registers every key with its default so environment
// overrides are visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	for _, key := range pathKeys {
		v.SetDefault(key, "")
	}
	v.SetDefault("convert.key_fields", []string{"contract_number", "contract_code", "contract_id"})
	v.SetDefault("options.encoding", "utf-8-sig")
	v.SetDefault("options.lenient_steps", false)
	v.SetDefault("options.raw_cell_values", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)
	v.SetDefault("logging.progress_interval", 100)
}

// Load reads settings into v from the optional YAML file, then the
// environment. Flags bound to v before the call take precedence over both.
// Relative paths in the file resolve against the file's directory.
func Load(fs afero.Fs, v *viper.Viper, file string) (*Settings, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		fv := viper.New()
		fv.SetFs(fs)
		fv.SetConfigFile(file)
		fv.SetConfigType("yaml")
		if err := fv.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings %s: %w", file, err)
		}
		dir := filepath.Dir(file)
		for _, key := range pathKeys {
			if p := fv.GetString(key); p != "" && !filepath.IsAbs(p) {
				fv.Set(key, filepath.Join(dir, p))
			}
		}
		if err := v.MergeConfigMap(fv.AllSettings()); err != nil {
			return nil, fmt.Errorf("failed to merge settings %s: %w", file, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	if s.Paths.Out == "" && s.Paths.OutputDir != "" {
		s.Paths.Out = filepath.Join(s.Paths.OutputDir, DefaultOutName)
	}
	if err := validator.New().Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}
