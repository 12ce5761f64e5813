package transform

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cast"
)

// decodeParams decodes a parameter map into out. Nil params leave out
// untouched so callers can preset defaults.
func decodeParams(params any, out any) error {
	if params == nil {
		return nil
	}
	if _, isMap := asMap(params); !isMap {
		return fmt.Errorf("expected a parameter map, got %T", params)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(params)
}

// shorthand returns the value of a step written with a scalar parameter
// ({round: 2}) or with one of keys in a parameter map ({round: {digits: 2}}).
func shorthand(params any, keys ...string) (any, bool) {
	if params == nil {
		return nil, false
	}
	m, isMap := asMap(params)
	if !isMap {
		return params, true
	}
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func asMap(params any) (map[string]any, bool) {
	switch params.(type) {
	case map[string]any, map[any]any:
		return cast.ToStringMap(params), true
	}
	return nil, false
}
