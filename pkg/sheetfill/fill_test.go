package sheetfill

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type sheet struct {
	name string
	rows [][]any
}

func writeBook(t *testing.T, fs afero.Fs, path string, sheets ...sheet) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(s.name, cell, &row))
		}
	}
	out, err := fs.Create(path)
	require.NoError(t, err)
	_, err = f.WriteTo(out)
	require.NoError(t, err)
	require.NoError(t, out.Close())
}

func readSheet(t *testing.T, fs afero.Fs, path, name string) [][]string {
	t.Helper()
	r, err := fs.Open(path)
	require.NoError(t, err)
	defer r.Close()
	f, err := excelize.OpenReader(r)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(name)
	require.NoError(t, err)
	return rows
}

const fillMapping = `
join:
  keys:
    contract_number: {}
dict:
  status_map: {1: Active, 2: Closed}
target_sheets:
  - name: Contracts
    source: details
    mappings:
      - to: {column: Contract}
        from: [{sheet: details, column: contract_number}]
      - to: {column: Amount}
        from: [{sheet: details, column: amount}]
        transform: [number_parse, {round: 2}]
      - to: {column: Status}
        from: [{sheet: details, column: status}]
        transform: [{dict: status_map}]
      - to: {column: Paid}
        from: [{sheet: payments, column: paid}]
        transform: [join_agg]
  - name: Payments
    row_policy: one_to_many_append
    source: payments
    mappings:
      - to: {column: Contract}
        from: [{sheet: payments, column: contract_number}]
      - to: {column: Paid}
        from: [{sheet: payments, column: paid}]
  - name: Refunds
    row_policy: one_to_many_append
    source: refunds
    mappings:
      - to: {column: Contract}
        from: [{sheet: refunds, column: contract_number}]
  - name: Archive
    mappings:
      - to: {column: Contract}
        from: [{sheet: details, column: contract_number}]
`

func fillFixture(t *testing.T, mappingYAML string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	writeBook(t, fs, "/in/source.xlsx",
		sheet{"details", [][]any{
			{"contract_number", "amount", "status"},
			{"C1", "1,000.00", "1"},
			{"C2", "abc", "2"},
		}},
		sheet{"payments", [][]any{
			{"contract_number", "paid"},
			{"C1", "10"},
			{"C1", "20"},
		}},
	)
	writeBook(t, fs, "/in/template.xlsx",
		sheet{"Contracts", [][]any{{"Contract", "Amount", "Status", "Paid"}}},
		sheet{"Payments", [][]any{{"Contract", "Paid"}}},
		sheet{"Refunds", [][]any{{"Contract"}}},
	)
	require.NoError(t, afero.WriteFile(fs, "/in/mapping.yaml", []byte(mappingYAML), 0o644))
	return fs
}

func fillPaths() Paths {
	return Paths{
		Source:   "/in/source.xlsx",
		Template: "/in/template.xlsx",
		Mapping:  "/in/mapping.yaml",
		Out:      "/out/filled.xlsx",
	}
}

func TestFill(t *testing.T) {
	fs := fillFixture(t, fillMapping)

	report, err := Fill(fillPaths(), Options{Fs: fs})
	require.NoError(t, err)

	assert.Equal(t, "contract_number", report.JoinKey)
	assert.Equal(t, []string{"payments"}, report.Indexed)
	assert.Equal(t, 4, report.Rows())
	assert.Equal(t, []string{"Refunds", "Archive"}, report.Skipped())

	require.Len(t, report.Sheets, 4)
	assert.Equal(t, "details", report.Sheets[0].BaseTable)
	assert.Equal(t, 2, report.Sheets[0].Rows)
	assert.Equal(t, ReasonSourceTableMissing, report.Sheets[2].Reason)
	assert.Equal(t, ReasonTemplateSheetMissing, report.Sheets[3].Reason)

	assert.Equal(t, [][]string{
		{"Contract", "Amount", "Status", "Paid"},
		{"C1", "1000", "Active", "10, 20"},
		{"C2", "", "Closed"},
	}, readSheet(t, fs, "/out/filled.xlsx", "Contracts"))

	assert.Equal(t, [][]string{
		{"Contract", "Paid"},
		{"C1", "10"},
		{"C1", "20"},
	}, readSheet(t, fs, "/out/filled.xlsx", "Payments"))

	assert.Equal(t, [][]string{{"Contract"}}, readSheet(t, fs, "/out/filled.xlsx", "Refunds"))
}

func TestFill_Errors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(t *testing.T, fs afero.Fs, p *Paths)
		component string
		target    error
	}{
		{
			name:      "missing mapping",
			mutate:    func(_ *testing.T, _ afero.Fs, p *Paths) { p.Mapping = "/in/nope.yaml" },
			component: ComponentMapping,
			target:    ErrFileNotFound,
		},
		{
			name: "invalid mapping",
			mutate: func(t *testing.T, fs afero.Fs, _ *Paths) {
				require.NoError(t, afero.WriteFile(fs, "/in/mapping.yaml", []byte("join: {keys: [k]}\n"), 0o644))
			},
			component: ComponentMapping,
			target:    ErrInvalidMapping,
		},
		{
			name:      "missing source",
			mutate:    func(_ *testing.T, _ afero.Fs, p *Paths) { p.Source = "/in/nope.xlsx" },
			component: ComponentSource,
			target:    ErrFileNotFound,
		},
		{
			name: "corrupt template",
			mutate: func(t *testing.T, fs afero.Fs, _ *Paths) {
				require.NoError(t, afero.WriteFile(fs, "/in/template.xlsx", []byte("not a zip"), 0o644))
			},
			component: ComponentTemplate,
			target:    ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := fillFixture(t, fillMapping)
			paths := fillPaths()
			tt.mutate(t, fs, &paths)

			_, err := Fill(paths, Options{Fs: fs})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)

			var ferr *FillError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, tt.component, ferr.Component)

			exists, err := afero.Exists(fs, paths.Out)
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestFill_UnknownSteps(t *testing.T) {
	mappingYAML := `
join: {keys: [contract_number]}
target_sheets:
  - name: Contracts
    mappings:
      - to: {column: Contract}
        from: [{sheet: details, column: contract_number}]
        transform: [future_step, trim]
`
	fs := fillFixture(t, mappingYAML)

	_, err := Fill(fillPaths(), Options{Fs: fs})
	assert.ErrorIs(t, err, ErrInvalidMapping)

	lenient := true
	report, err := Fill(fillPaths(), Options{Fs: fs, LenientSteps: &lenient})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Rows())
}

func TestOptions_ShouldSkipUnknownSteps(t *testing.T) {
	yes, no := true, false
	assert.False(t, DefaultOptions().ShouldSkipUnknownSteps())
	assert.True(t, Options{LenientSteps: &yes}.ShouldSkipUnknownSteps())
	assert.False(t, Options{UnknownSteps: "skip", LenientSteps: &no}.ShouldSkipUnknownSteps())
}

func TestCheck(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeBook(t, fs, "/src.xlsx", sheet{"details", [][]any{
		{"contract_number", "name"},
		{"C1", "a"},
		{"C1", " "},
		{"C2", "b"},
	}})

	issues, err := Check("/src.xlsx", CheckOptions{Required: []string{"name", "owner"}, Unique: "contract_number"}, Options{Fs: fs})
	require.NoError(t, err)

	var got []string
	for _, i := range issues {
		got = append(got, i.String())
	}
	assert.Equal(t, []string{
		"owner: missing_column",
		`row 2, name: required_missing (" ")`,
		`row 2, contract_number: duplicate_key ("C1")`,
	}, got)

	_, err = Check("/src.xlsx", CheckOptions{Table: "payments"}, Options{Fs: fs})
	assert.Error(t, err)
}
