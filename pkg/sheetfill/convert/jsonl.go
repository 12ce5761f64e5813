// Package convert flattens a JSONL record stream into the tabular source
// consumed by the fill engine: a details table plus one table per list field.
package convert

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

// Record is one decoded JSONL object.
type Record map[string]any

// ReadJSONL decodes one object per line. Blank lines, malformed lines and
// lines that are not JSON objects are skipped and counted.
func ReadJSONL(r io.Reader) ([]Record, int, error) {
	var (
		records []Record
		skipped int
	)
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			line = bytes.TrimSpace(line)
			if len(line) > 0 {
				var obj map[string]any
				if jerr := models.JSON.Unmarshal(line, &obj); jerr != nil || obj == nil {
					skipped++
				} else {
					records = append(records, Record(obj))
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return records, skipped, nil
		}
		if err != nil {
			return records, skipped, err
		}
	}
}

// SplitFields separates the field names of records into base fields and
// list fields, both sorted. A field is a list field when its name ends
// with "list" in any case, or when any record holds a list for it, either
// directly or as JSON text.
func SplitFields(records []Record) (base, lists []string) {
	all := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			all[k] = true
		}
	}
	for k := range all {
		if isListField(k, records) {
			lists = append(lists, k)
		} else {
			base = append(base, k)
		}
	}
	sort.Strings(base)
	sort.Strings(lists)
	return base, lists
}

func isListField(name string, records []Record) bool {
	if strings.HasSuffix(strings.ToLower(name), "list") {
		return true
	}
	for _, rec := range records {
		switch v := rec[name].(type) {
		case []any:
			return true
		case string:
			if parsed, ok := parseComposite(v); ok {
				if _, isList := parsed.([]any); isList {
					return true
				}
			}
		}
	}
	return false
}

// parseComposite decodes s when it is JSON text for an array or object.
func parseComposite(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return nil, false
	}
	if !(s[0] == '[' && s[len(s)-1] == ']') && !(s[0] == '{' && s[len(s)-1] == '}') {
		return nil, false
	}
	var v any
	if err := models.JSON.UnmarshalFromString(s, &v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case []any, map[string]any:
		return v, true
	}
	return nil, false
}

// CellText renders a decoded JSON value as cell text. Composites, and
// strings holding composite JSON, are encoded as canonical JSON.
func CellText(v any) string {
	if s, ok := v.(string); ok {
		if parsed, ok := parseComposite(s); ok {
			return models.FromInterface(parsed).CanonicalJSON()
		}
		return s
	}
	return models.FromInterface(v).Text()
}

// expand returns the composite a string field holds, or v unchanged.
func expand(v any) any {
	if s, ok := v.(string); ok {
		if parsed, ok := parseComposite(s); ok {
			return parsed
		}
	}
	return v
}
