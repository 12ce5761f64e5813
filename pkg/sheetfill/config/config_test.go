package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const settingsYAML = `
paths:
  source: data/source.xlsx
  template: /abs/template.xlsx
  mapping: mapping.yaml
  output_dir: out
convert:
  jsonl_input: data/records.jsonl
  key_fields: [code]
options:
  encoding: gbk
  lenient_steps: true
logging:
  level: debug
  file: logs/run.log
`

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/sheetfill/settings.yaml", []byte(settingsYAML), 0o644))

	s, err := Load(fs, viper.New(), "/etc/sheetfill/settings.yaml")
	require.NoError(t, err)

	assert.Equal(t, "/etc/sheetfill/data/source.xlsx", s.Paths.Source)
	assert.Equal(t, "/abs/template.xlsx", s.Paths.Template)
	assert.Equal(t, "/etc/sheetfill/mapping.yaml", s.Paths.Mapping)
	assert.Equal(t, "/etc/sheetfill/out/"+DefaultOutName, s.Paths.Out)
	assert.Equal(t, "/etc/sheetfill/data/records.jsonl", s.Convert.JSONLInput)
	assert.Equal(t, []string{"code"}, s.Convert.KeyFields)
	assert.Equal(t, "gbk", s.Options.Encoding)
	assert.True(t, s.Options.LenientSteps)
	assert.Equal(t, "debug", s.Logging.Level)
	assert.Equal(t, "/etc/sheetfill/logs/run.log", s.Logging.File)
	assert.Equal(t, 100, s.Logging.ProgressInterval)
}

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(afero.NewMemMapFs(), viper.New(), "")
	require.NoError(t, err)
	assert.Empty(t, s.Paths.Source)
	assert.Empty(t, s.Paths.Out)
	assert.Equal(t, []string{"contract_number", "contract_code", "contract_id"}, s.Convert.KeyFields)
	assert.Equal(t, "utf-8-sig", s.Options.Encoding)
	assert.Equal(t, "info", s.Logging.Level)
}

func TestLoad_Precedence(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/conf/settings.yaml", []byte(settingsYAML), 0o644))

	t.Setenv("SHEETFILL_PATHS_SOURCE", "/env/source.xlsx")
	t.Setenv("SHEETFILL_PATHS_MAPPING", "/env/mapping.yaml")
	t.Setenv("SHEETFILL_CONVERT_KEY_FIELDS", "a,b")
	t.Setenv("SHEETFILL_LOGGING_JSON", "true")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("source", "", "")
	require.NoError(t, flags.Parse([]string{"--source", "cli.xlsx"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag("paths.source", flags.Lookup("source")))

	s, err := Load(fs, v, "/conf/settings.yaml")
	require.NoError(t, err)
	assert.Equal(t, "cli.xlsx", s.Paths.Source)
	assert.Equal(t, "/env/mapping.yaml", s.Paths.Mapping)
	assert.Equal(t, []string{"a", "b"}, s.Convert.KeyFields)
	assert.True(t, s.Logging.JSON)
}

func TestLoad_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("logging: {level: loud}"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/enc.yaml", []byte("options: {encoding: latin1}"), 0o644))

	tests := []struct {
		name string
		file string
	}{
		{"missing file", "/nope.yaml"},
		{"bad level", "/bad.yaml"},
		{"bad encoding", "/enc.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(fs, viper.New(), tt.file)
			assert.Error(t, err)
		})
	}
}

func TestRunID(t *testing.T) {
	assert.Equal(t, "20240102_030405", RunID(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestNewLogger(t *testing.T) {
	fs := afero.NewMemMapFs()
	var buf bytes.Buffer

	log, closer, err := Logging{Level: "warn", JSON: true, File: "/logs/run.log"}.NewLogger(fs, &buf, "fill", "20240102_030405")
	require.NoError(t, err)

	log.Info("hidden")
	log.WithField("sheet", "Contracts").Warn("template sheet not found, skipping")
	require.NoError(t, closer.Close())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"run_id":"20240102_030405"`)
	assert.Contains(t, out, `"stage":"fill"`)
	assert.Contains(t, out, `"sheet":"Contracts"`)

	data, err := afero.ReadFile(fs, "/logs/run.log")
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
	assert.Equal(t, 1, strings.Count(string(data), "\n"))

	_, _, err = Logging{Level: "loud"}.NewLogger(fs, &buf, "fill", "x")
	assert.Error(t, err)
}
