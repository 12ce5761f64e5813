package transform

import (
	"errors"
	"strings"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

func buildTrim(_ any, _ Env) (Func, error) {
	return func(values []models.Value) []models.Value {
		return mapEach(values, func(v models.Value) models.Value {
			if s, ok := v.Str(); ok {
				return models.String(strings.TrimSpace(s))
			}
			return v
		})
	}, nil
}

func buildJSONParse(_ any, _ Env) (Func, error) {
	return func(values []models.Value) []models.Value {
		return mapEach(values, parseJSONValue)
	}, nil
}

// parseJSONValue decodes strings holding any JSON document, scalars
// included. Text that does not decode is returned unchanged.
func parseJSONValue(v models.Value) models.Value {
	s, ok := v.Str()
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return models.String("")
	}
	var decoded any
	if err := models.JSON.UnmarshalFromString(trimmed, &decoded); err != nil {
		return v
	}
	return models.FromInterface(decoded)
}

func buildJSONStringify(_ any, _ Env) (Func, error) {
	return func(values []models.Value) []models.Value {
		return []models.Value{models.String(models.List(values).CanonicalJSON())}
	}, nil
}

type formPickParams struct {
	Field      string   `mapstructure:"field"`
	FieldPairs []string `mapstructure:"field_pairs"`
	Unique     bool     `mapstructure:"unique"`
}

func buildFormPick(params any, _ Env) (Func, error) {
	p := formPickParams{Unique: true}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return p.apply, nil
}

func buildFormPickerNames(params any, _ Env) (Func, error) {
	p := formPickParams{Field: "name", Unique: true}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return p.apply, nil
}

func (p formPickParams) apply(values []models.Value) []models.Value {
	var out []models.Value
	for _, v := range values {
		items := []models.Value{v}
		if v.Kind() == models.KindList {
			items = v.Items()
		}
		for _, item := range items {
			out = append(out, p.pick(item))
		}
	}
	if p.Unique {
		out = dedupe(out)
	}
	return out
}

func (p formPickParams) pick(item models.Value) models.Value {
	if item.Kind() != models.KindRecord {
		return item
	}
	if len(p.FieldPairs) > 0 {
		fields := make(map[string]models.Value, len(p.FieldPairs))
		for _, name := range p.FieldPairs {
			f, _ := item.Field(name)
			fields[name] = f
		}
		return models.Record(fields)
	}
	if p.Field != "" {
		f, _ := item.Field(p.Field)
		return f
	}
	return item
}

// dedupe keeps the first occurrence of each structurally equal value.
func dedupe(values []models.Value) []models.Value {
	seen := make(map[string]struct{}, len(values))
	out := make([]models.Value, 0, len(values))
	for _, v := range values {
		key := v.Kind().String() + ":" + v.CanonicalJSON()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

type formatEachParams struct {
	Template string `mapstructure:"template"`
}

func buildFormatEach(params any, _ Env) (Func, error) {
	p := formatEachParams{Template: "{x}"}
	if s, ok := params.(string); ok {
		p.Template = s
	} else if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	return func(values []models.Value) []models.Value {
		return mapEach(values, func(v models.Value) models.Value {
			fields := map[string]string{}
			if v.Kind() == models.KindRecord {
				for _, k := range v.Keys() {
					f, _ := v.Field(k)
					fields[k] = f.Text()
				}
			} else {
				fields["x"] = v.Text()
			}
			s, err := renderTemplate(p.Template, fields)
			if err != nil {
				return models.String(v.Text())
			}
			return models.String(s)
		})
	}, nil
}

var errTemplate = errors.New("bad template")

// renderTemplate substitutes {name} placeholders. {{ and }} are literal
// braces; an unknown name or an unbalanced brace is an error.
func renderTemplate(tpl string, fields map[string]string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		switch c {
		case '{':
			if i+1 < len(tpl) && tpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tpl[i+1:], '}')
			if end < 0 {
				return "", errTemplate
			}
			name := tpl[i+1 : i+1+end]
			val, ok := fields[name]
			if !ok {
				return "", errTemplate
			}
			b.WriteString(val)
			i += end + 1
		case '}':
			if i+1 < len(tpl) && tpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", errTemplate
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

type joinAggParams struct {
	Sep    *string `mapstructure:"sep"`
	Unique bool    `mapstructure:"unique"`
}

func buildJoinAgg(params any, _ Env) (Func, error) {
	p := joinAggParams{Unique: true}
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	sep := ", "
	if p.Sep != nil {
		sep = *p.Sep
	}
	return func(values []models.Value) []models.Value {
		var flat []string
		for _, v := range values {
			if v.Kind() == models.KindList {
				for _, item := range v.Items() {
					flat = append(flat, item.Text())
				}
				continue
			}
			flat = append(flat, v.Text())
		}
		if p.Unique {
			seen := make(map[string]struct{}, len(flat))
			uniq := flat[:0]
			for _, s := range flat {
				if _, dup := seen[s]; dup {
					continue
				}
				seen[s] = struct{}{}
				uniq = append(uniq, s)
			}
			flat = uniq
		}
		parts := make([]string, 0, len(flat))
		for _, s := range flat {
			if s != "" {
				parts = append(parts, s)
			}
		}
		return []models.Value{models.String(strings.Join(parts, sep))}
	}, nil
}
