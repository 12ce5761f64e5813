package transform

import (
	"errors"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/lookup"
	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

var errNoTable = errors.New("dictionary name is required")

// resolver substitutes values through one lookup table.
type resolver struct {
	lookups      *lookup.Registry
	table        string
	keepOriginal bool
	fallback     models.Value
}

func (r resolver) resolve(v models.Value) models.Value {
	if r.lookups != nil {
		if hit, ok := r.lookups.Lookup(r.table, v); ok {
			return hit
		}
	}
	if r.keepOriginal {
		return v
	}
	return r.fallback
}

func newResolver(table string, keepOriginal *bool, fallback any, env Env) (resolver, error) {
	if table == "" {
		return resolver{}, errNoTable
	}
	if env.Lookups == nil || !env.Lookups.Has(table) {
		env.logger().WithField("dict", table).Warn("dictionary not loaded; values fall back")
	}
	r := resolver{
		lookups:      env.Lookups,
		table:        table,
		keepOriginal: true,
		fallback:     models.FromInterface(fallback),
	}
	if keepOriginal != nil {
		r.keepOriginal = *keepOriginal
	}
	return r, nil
}

type dictParams struct {
	Name         string `mapstructure:"name"`
	Table        string `mapstructure:"table"`
	KeepOriginal *bool  `mapstructure:"keep_original"`
	Default      any    `mapstructure:"default"`
}

func buildDict(params any, env Env) (Func, error) {
	var p dictParams
	if s, ok := params.(string); ok {
		p.Name = s
	} else if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = p.Table
	}
	r, err := newResolver(p.Name, p.KeepOriginal, p.Default, env)
	if err != nil {
		return nil, err
	}
	return func(values []models.Value) []models.Value {
		return mapEach(values, func(v models.Value) models.Value {
			switch v.Kind() {
			case models.KindList:
				return models.List(mapEach(v.Items(), r.resolve))
			case models.KindRecord:
				return v
			}
			return r.resolve(v)
		})
	}, nil
}

type valueLabelParams struct {
	Dict         string `mapstructure:"dict"`
	Table        string `mapstructure:"table"`
	ValueField   string `mapstructure:"value_field"`
	LabelField   string `mapstructure:"label_field"`
	KeepOriginal *bool  `mapstructure:"keep_original"`
	Default      any    `mapstructure:"default"`
}

func buildValueLabel(params any, env Env) (Func, error) {
	p := valueLabelParams{ValueField: "value", LabelField: "label"}
	if s, ok := params.(string); ok {
		p.Dict = s
	} else if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Dict == "" {
		p.Dict = p.Table
	}
	r, err := newResolver(p.Dict, p.KeepOriginal, p.Default, env)
	if err != nil {
		return nil, err
	}
	return func(values []models.Value) []models.Value {
		var out []models.Value
		for _, v := range values {
			items := []models.Value{v}
			if v.Kind() == models.KindList {
				items = v.Items()
			}
			for _, item := range items {
				raw, label := item, item
				if item.Kind() == models.KindRecord {
					raw, _ = item.Field(p.ValueField)
					label, _ = item.Field(p.LabelField)
				}
				out = append(out, models.Record(map[string]models.Value{
					"value": r.resolve(raw),
					"label": label,
				}))
			}
		}
		return dedupe(out)
	}, nil
}
