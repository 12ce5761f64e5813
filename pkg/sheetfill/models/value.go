// Package models defines data structures shared by the mapping engine.
package models

import (
	"math"
	"sort"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"
)

// JSON is the codec used wherever values cross a JSON boundary.
// Map keys are sorted so encoded composites are canonical.
var JSON = jsoniter.Config{
	EscapeHTML:             false,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

// TimeLayout is the text rendering of time values.
const TimeLayout = "2006-01-02 15:04:05"

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	// KindNull is an absent value.
	KindNull Kind = iota
	// KindString is a text value.
	KindString
	// KindNumber is a float64 value.
	KindNumber
	// KindBool is a boolean value.
	KindBool
	// KindTime is a timestamp.
	KindTime
	// KindList is an ordered sequence of values.
	KindList
	// KindRecord is a set of named fields.
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Value is a closed variant flowing through transform chains.
// The zero Value is Null.
type Value struct {
	kind Kind
	str  string
	num  float64
	flag bool
	ts   time.Time
	list []Value
	rec  map[string]Value
}

// Null is the absent value.
var Null = Value{}

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Time returns a timestamp value.
func Time(t time.Time) Value { return Value{kind: KindTime, ts: t} }

// List returns a list value holding items.
func List(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindList, list: items}
}

// Record returns a record value holding fields.
func Record(fields map[string]Value) Value {
	if fields == nil {
		fields = map[string]Value{}
	}
	return Value{kind: KindRecord, rec: fields}
}

// Kind returns the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is absent.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsComposite reports whether v is a list or a record.
func (v Value) IsComposite() bool { return v.kind == KindList || v.kind == KindRecord }

// Str returns the string held by v.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Num returns the number held by v.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Flag returns the boolean held by v.
func (v Value) Flag() (bool, bool) { return v.flag, v.kind == KindBool }

// Timestamp returns the time held by v.
func (v Value) Timestamp() (time.Time, bool) { return v.ts, v.kind == KindTime }

// Items returns the elements of a list, or nil for any other kind.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// Field returns a record field. Missing fields and non-records yield Null.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindRecord {
		return Null, false
	}
	f, ok := v.rec[name]
	return f, ok
}

// Keys returns the record field names in sorted order.
func (v Value) Keys() []string {
	if v.kind != KindRecord {
		return nil
	}
	keys := make([]string, 0, len(v.rec))
	for k := range v.rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Text renders v as cell text. Null renders as the empty string and
// composites render as canonical JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.str
	case KindNumber:
		return FormatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindTime:
		return v.ts.Format(TimeLayout)
	default:
		return v.CanonicalJSON()
	}
}

// Interface converts v into plain Go values (nil, string, float64, bool,
// []any, map[string]any). Times become their text rendering.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.flag
	case KindTime:
		return v.ts.Format(TimeLayout)
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindRecord:
		out := make(map[string]any, len(v.rec))
		for k, f := range v.rec {
			out[k] = f.Interface()
		}
		return out
	default:
		return nil
	}
}

// CanonicalJSON encodes v with sorted keys. It is the identity used for
// structural deduplication.
func (v Value) CanonicalJSON() string {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return FormatNumber(v.num)
	}
	s, err := JSON.MarshalToString(v.Interface())
	if err != nil {
		return v.kind.String()
	}
	return s
}

// Equal reports structural equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.flag == o.flag
	case KindTime:
		return v.ts.Equal(o.ts)
	default:
		return v.CanonicalJSON() == o.CanonicalJSON()
	}
}

// FromInterface converts decoded JSON or YAML data into a Value.
func FromInterface(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return Number(cast.ToFloat64(t))
	case time.Time:
		return Time(t)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromInterface(item)
		}
		return List(items)
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, f := range t {
			fields[k] = FromInterface(f)
		}
		return Record(fields)
	case map[any]any:
		fields := make(map[string]Value, len(t))
		for k, f := range t {
			fields[cast.ToString(k)] = FromInterface(f)
		}
		return Record(fields)
	default:
		return String(cast.ToString(t))
	}
}

// FormatNumber renders f without a trailing ".0" for integral values.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
