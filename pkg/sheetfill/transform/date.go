package transform

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/lestrrat-go/strftime"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

type dateParseParams struct {
	InputFormats []string `mapstructure:"input_formats"`
	Epoch        bool     `mapstructure:"epoch"`
	Timezone     string   `mapstructure:"timezone"`
}

type dateParser struct {
	layouts []string
	epoch   bool
	loc     *time.Location
}

func buildDateParse(params any, _ Env) (Func, error) {
	var p dateParseParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	loc := time.UTC
	if p.Timezone != "" {
		l, err := time.LoadLocation(p.Timezone)
		if err != nil {
			return nil, err
		}
		loc = l
	}
	dp := dateParser{epoch: p.Epoch, loc: loc}
	for _, f := range p.InputFormats {
		dp.layouts = append(dp.layouts, javaLayout(f))
	}
	return func(values []models.Value) []models.Value {
		return mapEach(values, dp.parse)
	}, nil
}

// parse returns a Time value or Null. Explicit layouts are tried in order
// before epoch detection and free-form parsing.
func (dp dateParser) parse(v models.Value) models.Value {
	if _, ok := v.Timestamp(); ok {
		return v
	}
	if v.IsComposite() {
		return models.Null
	}
	s := strings.TrimSpace(v.Text())
	if s == "" {
		return models.Null
	}
	for _, layout := range dp.layouts {
		if t, err := time.ParseInLocation(layout, s, dp.loc); err == nil {
			return models.Time(t)
		}
	}
	if isDigits(s) && len(s) >= 10 {
		if !dp.epoch {
			return models.Null
		}
		if t, ok := parseEpoch(s, dp.loc); ok {
			return models.Time(t)
		}
		return models.Null
	}
	t, err := dateparse.ParseIn(s, dp.loc)
	if err != nil {
		return models.Null
	}
	return models.Time(t)
}

// parseEpoch reads a Unix timestamp whose unit follows from its digit
// count: up to 10 seconds, 13 milliseconds, 16 microseconds, otherwise
// nanoseconds.
func parseEpoch(s string, loc *time.Location) (time.Time, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	var t time.Time
	switch {
	case len(s) <= 10:
		t = time.Unix(n, 0)
	case len(s) <= 13:
		t = time.UnixMilli(n)
	case len(s) <= 16:
		t = time.UnixMicro(n)
	default:
		t = time.Unix(0, n)
	}
	return t.In(loc), true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

var errPatternType = errors.New("pattern must be a string")

func buildDateFormat(params any, _ Env) (Func, error) {
	pattern := "yyyy-MM-dd"
	if raw, ok := shorthand(params, "", "pattern"); ok {
		s, isString := raw.(string)
		if !isString {
			return nil, errPatternType
		}
		pattern = s
	}
	f, err := newJavaFormatter(pattern)
	if err != nil {
		return nil, err
	}
	return func(values []models.Value) []models.Value {
		return mapEach(values, func(v models.Value) models.Value {
			return formatDate(f, v)
		})
	}, nil
}

// formatDate renders timestamps, re-parsing text when needed. Text that
// does not parse is returned as-is; Null and empty text render as "".
func formatDate(f *strftime.Strftime, v models.Value) models.Value {
	if t, ok := v.Timestamp(); ok {
		return models.String(f.FormatString(t))
	}
	if v.IsNull() {
		return models.String("")
	}
	s, ok := v.Str()
	if !ok {
		return v
	}
	if s == "" {
		return models.String("")
	}
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return v
	}
	return models.String(f.FormatString(t))
}
