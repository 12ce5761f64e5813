package convert

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

const recordsJSONL = `{"contract_number":"C1","amount":1000,"items":[{"sku":"A","qty":2},{"sku":"B"}],"tags":"[\"x\",\"y\"]","relation":{"relation_contracts":[{"relation_key":"k1","relation_name":"Parent","contract_ids":["9"],"contracts":[{"id":"9","name":"P"}]}]}}

not json
[1, 2]
{"contract_code":"C2","amount":"12.5","items":[]}`

func TestReadJSONL(t *testing.T) {
	records, skipped, err := ReadJSONL(strings.NewReader(recordsJSONL))
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, "C2", records[1]["contract_code"])
}

func TestSplitFields(t *testing.T) {
	records := []Record{
		{"contract_number": "C1", "items": []any{"a"}, "meta": `{"k":1}`},
		{"payment_List": nil, "tags": ` ["a"] `, "note": "[not json"},
	}
	base, lists := SplitFields(records)
	assert.Equal(t, []string{"contract_number", "meta", "note"}, base)
	assert.Equal(t, []string{"items", "payment_List", "tags"}, lists)
}

func TestCellText(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "x", "x"},
		{"integral number", 1.0, "1"},
		{"number", 1.5, "1.5"},
		{"bool", true, "true"},
		{"list", []any{"a"}, `["a"]`},
		{"object sorted, unicode kept", map[string]any{"b": 1.0, "a": "中"}, `{"a":"中","b":1}`},
		{"json text re-encoded", " [1, 2] ", "[1,2]"},
		{"broken json text", "[oops", "[oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CellText(tt.in))
		})
	}
}

func TestListTable(t *testing.T) {
	records := []Record{
		{"contract_number": "C1", "items": []any{map[string]any{"sku": "A", "qty": 2.0}, "loose"}},
		{"contract_number": "", "contract_code": "C2", "items": `[{"sku":"B"}]`},
		{"contract_id": 7.0, "items": map[string]any{"sku": "C"}},
		{"contract_number": "C4", "items": nil},
	}

	tbl := ListTable(records, "items", DefaultKeyFields)
	assert.Equal(t, "items", tbl.Name)
	assert.Equal(t, []string{"contract_number", "qty", "sku", "value"}, tbl.Columns)
	assert.Equal(t, []models.Row{
		{"contract_number": "C1", "qty": "2", "sku": "A", "value": ""},
		{"contract_number": "C1", "qty": "", "sku": "", "value": "loose"},
		{"contract_number": "C2", "qty": "", "sku": "B", "value": ""},
		{"contract_number": "7", "qty": "", "sku": "C", "value": ""},
	}, tbl.Rows)

	empty := ListTable(records[3:], "items", DefaultKeyFields)
	assert.Equal(t, []string{"contract_number"}, empty.Columns)
	assert.Empty(t, empty.Rows)
}

func TestRelationRows(t *testing.T) {
	records := []Record{
		{
			"contract_number": "C1",
			"relation":        `{"relation_contracts":[{"relation_key":"k1","relation_name":"Parent","contract_ids":["9"],"contracts":[{"id":"9"},"loose"]},"bad"]}`,
		},
		{"contract_number": "C2", "relation": "none"},
	}

	tbl := RelationRows(records, DefaultKeyFields)
	require.NotNil(t, tbl)
	assert.Equal(t, RelationTable, tbl.Name)
	assert.Equal(t, []string{"contract_number", "contract_ids", "related_id", "related_value", "relation_key", "relation_name"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "9", tbl.Rows[0]["related_id"])
	assert.Equal(t, `["9"]`, tbl.Rows[0]["contract_ids"])
	assert.Equal(t, "loose", tbl.Rows[1]["related_value"])

	assert.Nil(t, RelationRows(records[1:], DefaultKeyFields))
}

func TestSheetNamer(t *testing.T) {
	long := strings.Repeat("x", 40)
	n := NewSheetNamer()
	tests := []struct {
		in   string
		want string
	}{
		{"items", "items"},
		{"items", "items_1"},
		{"ITEMS", "ITEMS_2"},
		{"a/b:c*?[d]\\", "abcd"},
		{"[]", "sheet"},
		{"'quoted'", "quoted"},
		{long, strings.Repeat("x", 31)},
		{long, strings.Repeat("x", 29) + "_1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, n.Name(tt.in), tt.in)
	}
}

func TestWriteCSV(t *testing.T) {
	tbl := &models.Table{
		Columns: []string{"name", "note"},
		Rows:    []models.Row{{"name": "中", "note": "a,b"}},
	}
	tests := []struct {
		enc  Encoding
		want []byte
	}{
		{EncodingUTF8, []byte("name,note\n中,\"a,b\"\n")},
		{EncodingUTF8BOM, append([]byte("\xef\xbb\xbf"), "name,note\n中,\"a,b\"\n"...)},
		{EncodingGBK, []byte("name,note\n\xd6\xd0,\"a,b\"\n")},
	}

	for _, tt := range tests {
		t.Run(string(tt.enc), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, tbl, tt.enc))
			assert.Equal(t, tt.want, buf.Bytes())
		})
	}
}

func TestParseEncoding(t *testing.T) {
	for in, want := range map[string]Encoding{"": EncodingUTF8BOM, "UTF-8": EncodingUTF8, "utf8": EncodingUTF8, " gbk ": EncodingGBK} {
		got, err := ParseEncoding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseEncoding("latin1")
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/records.jsonl", []byte(recordsJSONL), 0o644))

	result, err := Convert(fs, Paths{Input: "/in/records.jsonl", CSV: "/out/details.csv", Excel: "/out/source.xlsx"}, Options{Encoding: EncodingUTF8})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Records)
	assert.Equal(t, 2, result.SkippedLines)
	assert.Equal(t, []string{"amount", "contract_code", "contract_number", "relation"}, result.BaseFields)
	assert.Equal(t, []string{"items", "tags"}, result.ListFields)
	assert.Equal(t, map[string]string{"items": "items", "tags": "tags", RelationTable: RelationTable}, result.Sheets)

	data, err := afero.ReadFile(fs, "/out/details.csv")
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"amount", "contract_code", "contract_number", "relation"}, rows[0])
	assert.Equal(t, []string{"1000", "", "C1"}, rows[1][:3])
	assert.Contains(t, rows[1][3], `"relation_key":"k1"`)
	assert.Equal(t, []string{"12.5", "C2", "", ""}, rows[2])

	r, err := fs.Open("/out/source.xlsx")
	require.NoError(t, err)
	defer r.Close()
	f, err := excelize.OpenReader(r)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"details", "items", "tags", RelationTable}, f.GetSheetList())

	items, err := f.GetRows("items")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"contract_number", "qty", "sku"}, {"C1", "2", "A"}, {"C1", "", "B"}}, items)

	tags, err := f.GetRows("tags")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"contract_number", "value"}, {"C1", "x"}, {"C1", "y"}}, tags)

	rel, err := f.GetRows(RelationTable)
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", `["9"]`, "9", "P", "k1", "Parent"}, rel[1])
}

func TestConvert_Empty(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/records.jsonl", nil, 0o644))

	result, err := Convert(fs, Paths{Input: "/records.jsonl", CSV: "/details.csv", Excel: "/source.xlsx"}, Options{})
	require.NoError(t, err)
	assert.Zero(t, result.Records)

	data, err := afero.ReadFile(fs, "/details.csv")
	require.NoError(t, err)
	assert.Equal(t, []byte("\xef\xbb\xbf\n"), data)

	r, err := fs.Open("/source.xlsx")
	require.NoError(t, err)
	defer r.Close()
	f, err := excelize.OpenReader(r)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"details"}, f.GetSheetList())

	_, err = Convert(fs, Paths{Input: "/missing.jsonl", CSV: "/x.csv"}, Options{})
	assert.Error(t, err)
}
