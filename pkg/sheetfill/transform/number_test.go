package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ukaji3/sheetfill-go/pkg/sheetfill/models"
)

func TestNumberParse(t *testing.T) {
	tests := []struct {
		name   string
		params any
		in     models.Value
		want   models.Value
	}{
		{"thousands and decimal", nil, models.String("1,234.50"), models.Number(1234.5)},
		{"garbage", nil, models.String("abc"), models.Null},
		{"blank", nil, models.String("  "), models.Null},
		{"number passes", nil, models.Number(3), models.Number(3)},
		{"null", nil, models.Null, models.Null},
		{"bool", nil, models.Bool(true), models.Null},
		{"european", map[string]any{"thousands": ".", "decimal": ","}, models.String("1.234,5"), models.Number(1234.5)},
		{"no thousands", map[string]any{"thousands": ""}, models.String("1,5"), models.Null},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustCompile(t, models.StepSpec{Name: "number_parse", Params: tt.params}).Apply([]models.Value{tt.in})
			assert.True(t, tt.want.Equal(out[0]), "got %s %q", out[0].Kind(), out[0].Text())
		})
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		name   string
		params any
		in     models.Value
		want   models.Value
	}{
		{"default two digits", nil, models.Number(1.005001), models.Number(1.01)},
		{"int param", 0, models.Number(2.6), models.Number(3)},
		{"half to even zero", 0, models.Number(0.5), models.Number(0)},
		{"half to even down", 0, models.Number(2.5), models.Number(2)},
		{"half to even negative", 0, models.Number(-2.5), models.Number(-2)},
		{"half to even up", 0, models.Number(3.5), models.Number(4)},
		{"half to even digits", 2, models.Number(0.125), models.Number(0.12)},
		{"digits key", map[string]any{"digits": 1}, models.Number(1.26), models.Number(1.3)},
		{"empty key", map[string]any{"": "3"}, models.Number(1.23456), models.Number(1.235)},
		{"text passes", 2, models.String("1.234"), models.String("1.234")},
		{"null passes", 2, models.Null, models.Null},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustCompile(t, models.StepSpec{Name: "round", Params: tt.params}).Apply([]models.Value{tt.in})
			assert.True(t, tt.want.Equal(out[0]), "got %s %q", out[0].Kind(), out[0].Text())
		})
	}
}
