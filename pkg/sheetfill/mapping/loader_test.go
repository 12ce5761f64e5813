package mapping

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/transform"
)

const contractsYAML = `
join:
  keys:
    contract_number: {}
    contract_code: {}
dict:
  status_map: {1: Active, "2": Closed}
dict_sources:
  - {name: currency, path: dicts/currency.csv, key_column: code, value_column: name}
  - {name: broken, path: dicts/missing.csv, key_column: code, value_column: name}
target_sheets:
  - name: Contracts
    source: details
    mappings:
      - to: {column: Amount}
        from: [{sheet: details, column: amount}]
        transform: [trim, number_parse, {round: 2}]
      - to: {column: Status}
        from: [{sheet: details, column: status}]
        transform:
          - dict: status_map
        default: unknown
      - to: {column: Payments}
        from:
          - {table: payments, column: paid}
          - {sheet: refunds, column: paid, where: {kind: full}}
        where: {type: main, seq: 1}
        transform: [{join_agg: {sep: " / "}}]
  - name: Payments
    row_policy: one_to_many
    source: payments
    mappings:
      - to: {column: Paid}
        from: [{sheet: payments, column: paid}]
`

func TestParse(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/conf/dicts/currency.csv", []byte("code,name\nUSD,Dollar\n"), 0o644))

	spec, err := Parse(fs, []byte(contractsYAML), "/conf", Options{})
	require.NoError(t, err)

	assert.Equal(t, "contract_number", spec.JoinKey)
	assert.Equal(t, []string{"currency", "status_map"}, spec.Lookups.Names())

	require.Len(t, spec.Sheets, 2)
	contracts := spec.Sheets[0]
	assert.Equal(t, PolicyOneToOne, contracts.Policy)
	require.Len(t, contracts.Columns, 3)

	amount := contracts.Columns[0]
	assert.Equal(t, "Amount", amount.Target)
	assert.Equal(t, []string{"trim", "number_parse", "round"}, amount.Chain.Names())
	assert.True(t, models.String("").Equal(amount.Default))

	status := contracts.Columns[1]
	assert.True(t, models.String("unknown").Equal(status.Default))
	out := status.Chain.Apply([]models.Value{models.String("1")})
	assert.Equal(t, "Active", out[0].Text())

	payments := contracts.Columns[2]
	assert.Equal(t, []SourceRef{
		{Table: "payments", Column: "paid", Where: []Condition{{Field: "seq", Value: "1"}, {Field: "type", Value: "main"}}},
		{Table: "refunds", Column: "paid", Where: []Condition{{Field: "kind", Value: "full"}}},
	}, payments.Sources)
	assert.Equal(t, []string{DetailsTable, "payments", "refunds"}, contracts.Tables())

	assert.Equal(t, PolicyAppend, spec.Sheets[1].Policy)
	assert.Equal(t, "payments", spec.Sheets[1].Source)
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/conf/mapping.yaml", []byte(contractsYAML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/conf/dicts/currency.csv", []byte("code,name\nUSD,Dollar\n"), 0o644))

	spec, err := LoadFile(fs, "/conf/mapping.yaml", Options{})
	require.NoError(t, err)
	assert.True(t, spec.Lookups.Has("currency"))
	assert.False(t, spec.Lookups.Has("broken"))

	_, err = LoadFile(fs, "/conf/nope.yaml", Options{})
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		paths []string
	}{
		{
			name:  "missing everything",
			yaml:  `dict: {}`,
			paths: []string{"join.keys", "target_sheets"},
		},
		{
			name: "bad sheet and column",
			yaml: `
join: {keys: [contract_number]}
target_sheets:
  - row_policy: sideways
    mappings:
      - to: {}
        from: [{column: x}]
`,
			paths: []string{
				"target_sheets[0].name",
				"target_sheets[0].row_policy",
				"target_sheets[0].mappings[0].to.column",
				"target_sheets[0].mappings[0].from[0].sheet",
			},
		},
		{
			name: "unknown step",
			yaml: `
join: {keys: contract_number}
target_sheets:
  - name: S
    mappings:
      - to: {column: A}
        transform: [trim, no_such_step]
`,
			paths: []string{"target_sheets[0].mappings[0].transform"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(afero.NewMemMapFs(), []byte(tt.yaml), "", Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidMapping)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			var paths []string
			for _, p := range verr.Problems {
				paths = append(paths, p.Path)
			}
			assert.ElementsMatch(t, tt.paths, paths)
		})
	}
}

func TestParse_LenientSteps(t *testing.T) {
	yaml := `
join: {keys: {contract_number: {}}}
target_sheets:
  - name: S
    mappings:
      - to: {column: A}
        transform: [no_such_step, trim]
`
	spec, err := Parse(afero.NewMemMapFs(), []byte(yaml), "", Options{UnknownSteps: transform.UnknownStepsSkip})
	require.NoError(t, err)
	assert.Equal(t, []string{"trim"}, spec.Sheets[0].Columns[0].Chain.Names())
}

func TestParse_Syntax(t *testing.T) {
	_, err := Parse(afero.NewMemMapFs(), []byte("join: [unclosed"), "", Options{})
	assert.ErrorIs(t, err, ErrInvalidMapping)

	_, err = Parse(afero.NewMemMapFs(), []byte("join: {keys: [k]}\ntarget_sheets: [{name: S, mappings: [{to: {column: A}, transform: [{a: 1, b: 2}]}]}]"), "", Options{})
	assert.ErrorIs(t, err, ErrInvalidMapping)
}
