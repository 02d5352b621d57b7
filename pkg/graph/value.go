package graph

import (
	"encoding/json"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// entry is one key/value pair of an object-like value.
type entry struct {
	key string
	val any
}

// fields is a read-only view over an object-like value.
type fields interface {
	lookup(key string) (any, bool)
	entries() []entry
}

type objectFields struct{ o *Object }

func (f objectFields) lookup(key string) (any, bool) { return f.o.Get(key) }

func (f objectFields) entries() []entry {
	out := make([]entry, 0, f.o.Len())
	for k, v := range f.o.All() {
		out = append(out, entry{k, v})
	}
	return out
}

// mapFields adapts a Go map. Go maps are unordered, so entries come back
// sorted by key to keep results deterministic.
type mapFields map[string]any

func (f mapFields) lookup(key string) (any, bool) {
	v, ok := f[key]
	return v, ok
}

func (f mapFields) entries() []entry {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]entry, len(keys))
	for i, k := range keys {
		out[i] = entry{k, f[k]}
	}
	return out
}

// asFields returns an object view of v, or false if v is not object-like.
// Arrays are not objects here.
func asFields(v any) (fields, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case *Object:
		if t == nil {
			return nil, false
		}
		return objectFields{t}, true
	case Object:
		return objectFields{&t}, true
	case map[string]any:
		return mapFields(t), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	if rv.IsNil() {
		return nil, false
	}
	m := make(mapFields, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}

// asArray returns the elements of a slice or array value.
func asArray(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return nil, false
		}
	case reflect.Array:
	default:
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// firstPresent returns the value of the first key that is present with a
// non-null value.
func firstPresent(f fields, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := f.lookup(k); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// truthy follows JSON-value truthiness: null, false, 0, NaN and "" are false;
// every array and object is true.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	}
	if f, ok := toFloat(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	if rv := reflect.ValueOf(v); (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Map || rv.Kind() == reflect.Slice) && rv.IsNil() {
		return false
	}
	return true
}

// ensureArray coerces v to a list: falsy values give an empty list, arrays
// are returned as is, objects give their values in key order, and any other
// value is wrapped in a single-element list.
func ensureArray(v any) []any {
	if !truthy(v) {
		return nil
	}
	if arr, ok := asArray(v); ok {
		return arr
	}
	if f, ok := asFields(v); ok {
		es := f.entries()
		out := make([]any, len(es))
		for i, e := range es {
			out[i] = e.val
		}
		return out
	}
	return []any{v}
}

// toText coerces a scalar to its string form. Null, arrays and objects have
// no text form.
func toText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String(), true
		}
		return formatNumber(f), true
	}
	if f, ok := toFloat(v); ok {
		return formatNumber(f), true
	}
	return "", false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	}
	return 0, false
}

// formatNumber renders f the way JSON-producing tools print numbers:
// integers without a fraction, the shortest round-tripping decimal otherwise,
// and exponent notation outside [1e-6, 1e21).
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	if abs := math.Abs(f); abs < 1e-6 || abs >= 1e21 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + sign + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// describe names the JSON kind of v for error messages.
func describe(v any) string {
	if v == nil {
		return "null"
	}
	if _, ok := asFields(v); ok {
		return "object"
	}
	if _, ok := asArray(v); ok {
		return "array"
	}
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	if _, ok := toText(v); ok {
		return "number"
	}
	return reflect.TypeOf(v).String()
}
