package filtering

import (
	"reflect"
	"strings"
)

// Accessor resolves a named field of a record. ok is false when the record
// has no such field.
type Accessor[T any] func(record T, field string) (value any, ok bool)

// MapAccessor returns an Accessor backed by FieldOf.
func MapAccessor[T any]() Accessor[T] {
	return func(record T, field string) (any, bool) {
		return FieldOf(record, field)
	}
}

// FieldOf resolves field on maps with string keys and on structs (by field
// name or json tag). Primitives have no fields.
func FieldOf(record any, field string) (any, bool) {
	switch r := record.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := r[field]
		return v, ok
	case map[string]string:
		v, ok := r[field]
		return v, ok
	}

	rv := reflect.ValueOf(record)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(field).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			sf := rt.Field(i)
			if !sf.IsExported() {
				continue
			}
			tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
			if sf.Name == field || (tag != "" && tag == field) {
				return rv.Field(i).Interface(), true
			}
		}
	}
	return nil, false
}
