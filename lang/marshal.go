package lang

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"reflect"
	"slices"

	"github.com/goccy/go-yaml"
)

// FromGo converts a native Go value into a [Value].
//
// Accepted types are nil, bool, every integer and float type, string, [Value],
// [*Record], slices and arrays of accepted types, maps with string keys
// (ordered by key), and [yaml.MapSlice] (which keeps its own order). Any other
// type is an [ErrTypeMismatch].
func FromGo(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case *Record:
		return RecordOf(v), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case int:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case uint64:
		return Number(float64(v)), nil
	case float64:
		return Number(v), nil
	case []any:
		return listFromGo(len(v), func(i int) any { return v[i] })
	case map[string]any:
		return recordFromGo(slices.Sorted(maps.Keys(v)), func(k string) any { return v[k] })
	case yaml.MapSlice:
		r := NewRecord()

		for _, item := range v {
			e, err := FromGo(item.Value)
			if err != nil {
				return Value{}, err
			}

			r.Set(fmt.Sprint(item.Key), e)
		}

		return RecordOf(r), nil
	}

	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int())), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint())), nil

	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil

	case reflect.Bool:
		return Bool(rv.Bool()), nil

	case reflect.String:
		return String(rv.String()), nil

	case reflect.Slice, reflect.Array:
		return listFromGo(rv.Len(), func(i int) any { return rv.Index(i).Interface() })

	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}

		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}

		slices.Sort(keys)

		return recordFromGo(keys, func(k string) any {
			return rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()
		})

	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}

		return FromGo(rv.Elem().Interface())
	}

	typ := "nil"
	if rv.IsValid() {
		typ = rv.Type().String()
	}

	return Value{}, ErrTypeMismatch.With(slog.String("go_type", typ))
}

func listFromGo(n int, at func(int) any) (Value, error) {
	elems := make([]Value, n)

	for i := range n {
		e, err := FromGo(at(i))
		if err != nil {
			return Value{}, err
		}

		elems[i] = e
	}

	return List(elems...), nil
}

func recordFromGo(keys []string, at func(string) any) (Value, error) {
	r := NewRecord()

	for _, k := range keys {
		e, err := FromGo(at(k))
		if err != nil {
			return Value{}, err
		}

		r.Set(k, e)
	}

	return RecordOf(r), nil
}

// ToNative converts v to a native Go value: nil, bool, int64 for integral
// numbers, float64, string, []any, or [yaml.MapSlice] for records so that
// field order survives encoding.
func (v Value) ToNative() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		if v.n == math.Trunc(v.n) && math.Abs(v.n) < 1<<53 {
			return int64(v.n)
		}

		return v.n
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.ToNative()
		}

		return out
	case KindRecord:
		out := make(yaml.MapSlice, 0, v.rec.Len())
		for k, e := range v.rec.All() {
			out = append(out, yaml.MapItem{Key: k, Value: e.ToNative()})
		}

		return out
	default:
		return nil
	}
}
