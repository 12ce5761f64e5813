// Package lookup holds the named key→value dictionaries used by the dict
// and to_value_label transform steps.
package lookup

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

// Table maps a normalized key to its substitute value.
type Table map[string]models.Value

// Registry maps table names to dictionaries. It is populated while the
// mapping is loaded and read-only afterwards; its lifetime is one run.
type Registry struct {
	tables map[string]Table
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]Table)}
}

// Set stores t under name, replacing any previous table.
func (r *Registry) Set(name string, t Table) {
	r.tables[name] = t
}

// SetInline stores a dictionary declared inline in the mapping document.
// Keys are normalized to their text form.
func (r *Registry) SetInline(name string, entries map[any]any) {
	t := make(Table, len(entries))
	for k, v := range entries {
		t[KeyString(k)] = models.FromInterface(v)
	}
	r.tables[name] = t
}

// Has reports whether a table named name is loaded.
func (r *Registry) Has(name string) bool {
	_, ok := r.tables[name]
	return ok
}

// Len returns the number of entries of the named table.
func (r *Registry) Len(name string) int {
	return len(r.tables[name])
}

// Names returns the loaded table names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves key through the named table. Candidate keys are tried in
// the order returned by Candidates; the first hit wins.
func (r *Registry) Lookup(name string, key models.Value) (models.Value, bool) {
	t, ok := r.tables[name]
	if !ok {
		return models.Null, false
	}
	for _, k := range Candidates(key) {
		if v, hit := t[k]; hit {
			return v, true
		}
	}
	return models.Null, false
}

// Candidates returns the keys tried for a raw value: its text verbatim, then
// trimmed, then its integer form when it is numeric-looking and integral.
func Candidates(key models.Value) []string {
	var raw string
	switch key.Kind() {
	case models.KindString, models.KindNumber, models.KindBool, models.KindTime:
		raw = key.Text()
	default:
		return nil
	}

	out := []string{raw}
	add := func(k string) {
		for _, existing := range out {
			if existing == k {
				return
			}
		}
		out = append(out, k)
	}

	trimmed := strings.TrimSpace(raw)
	add(trimmed)

	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && math.Abs(f) < 1<<63 && f == math.Trunc(f) {
		add(strconv.FormatInt(int64(f), 10))
	}
	return out
}

// KeyString normalizes a dictionary key declared in YAML (string, int,
// float, bool) to its text form.
func KeyString(k any) string {
	switch t := k.(type) {
	case float64:
		return models.FormatNumber(t)
	case float32:
		return models.FormatNumber(float64(t))
	}
	return cast.ToString(k)
}
