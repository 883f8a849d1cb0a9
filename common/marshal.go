package common

import (
	"reflect"

	"github.com/grafana/xk6-webdriver/api"
	"github.com/grafana/xk6-webdriver/wire"
)

// toWire returns v with every element replaced by its wire reference, at any
// depth of slices and string keyed maps. Scalars of named or sized types are
// converted to their basic type. Other values are returned as is.
//
//nolint:cyclop
func toWire(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case *Element:
		if v == nil {
			return nil
		}
		return wire.ElementRef(v.ID())
	case api.Element:
		return wire.ElementRef(v.ID())
	case []api.Element:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = toWire(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = toWire(m)
		}
		return out
	case *wire.Object:
		out := wire.NewObject()
		v.Range(func(k string, m any) bool {
			out.Set(k, toWire(m))
			return true
		})
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, m := range v {
			out[k] = toWire(m)
		}
		return out
	case string, bool, []byte, int, int32, int64, uint, uint32, uint64, float32, float64:
		return v
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() { //nolint:exhaustive
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = toWire(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = toWire(iter.Value().Interface())
		}
		return out
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	default:
		return v
	}
}

// fromWire returns v with every element reference replaced by an element
// built with newElement, at any depth. Objects keep their key order.
//
// Any object made only of reference markers is taken for a reference, even
// if the script meant it as plain data.
func fromWire(v any, newElement func(id string) api.Element) any {
	if id, ok := wire.ElementID(v); ok {
		return newElement(id)
	}

	switch v := v.(type) {
	case []any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = fromWire(m, newElement)
		}
		return out
	case *wire.Object:
		out := wire.NewObject()
		v.Range(func(k string, m any) bool {
			out.Set(k, fromWire(m, newElement))
			return true
		})
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, m := range v {
			out[k] = fromWire(m, newElement)
		}
		return out
	default:
		return v
	}
}
