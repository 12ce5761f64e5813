package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

type numberParseParams struct {
	Thousands *string `mapstructure:"thousands"`
	Decimal   *string `mapstructure:"decimal"`
}

func buildNumberParse(params any, _ Env) (Func, error) {
	var p numberParseParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	thousands, decimal := ",", "."
	if p.Thousands != nil {
		thousands = *p.Thousands
	}
	if p.Decimal != nil && *p.Decimal != "" {
		decimal = *p.Decimal
	}
	return func(values []models.Value) []models.Value {
		return mapEach(values, func(v models.Value) models.Value {
			return parseNumber(v, thousands, decimal)
		})
	}, nil
}

// parseNumber converts v to a Number. Numbers pass through; blank or
// unparseable text and non-text values become Null.
func parseNumber(v models.Value, thousands, decimal string) models.Value {
	if _, ok := v.Num(); ok {
		return v
	}
	s, ok := v.Str()
	if !ok {
		return models.Null
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Null
	}
	if thousands != "" {
		s = strings.ReplaceAll(s, thousands, "")
	}
	if decimal != "." {
		s = strings.ReplaceAll(s, decimal, ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return models.Null
	}
	return models.Number(f)
}

func buildRound(params any, _ Env) (Func, error) {
	digits := 2
	if raw, ok := shorthand(params, "digits", ""); ok {
		n, err := cast.ToIntE(raw)
		if err != nil {
			return nil, fmt.Errorf("digits: %w", err)
		}
		digits = n
	}
	scale := math.Pow10(digits)
	return func(values []models.Value) []models.Value {
		return mapEach(values, func(v models.Value) models.Value {
			f, ok := v.Num()
			if !ok {
				return v
			}
			scaled := f * scale
			if math.IsInf(scaled, 0) || math.IsNaN(scaled) {
				return v
			}
			return models.Number(math.RoundToEven(scaled) / scale)
		})
	}, nil
}
