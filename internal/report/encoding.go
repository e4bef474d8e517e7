package report

import (
	"encoding/json"
	"reflect"
	"strings"
)

// encodeJSON produces byte-identical indented JSON for identical reports:
// struct fields become alphabetically ordered keys and nil values are omitted.
func encodeJSON(v any) ([]byte, error) {
	return json.MarshalIndent(normalizeValue(v), "", "  ")
}

func normalizeValue(v any) any {
	if v == nil {
		return nil
	}

	val := reflect.ValueOf(v)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Map:
		return normalizeMap(val)
	case reflect.Slice, reflect.Array:
		return normalizeSlice(val)
	case reflect.Struct:
		return normalizeStruct(val)
	case reflect.Interface:
		if val.IsNil() {
			return nil
		}
		return normalizeValue(val.Interface())
	case reflect.String:
		// named string types such as Mode
		return val.String()
	default:
		return val.Interface()
	}
}

func normalizeMap(val reflect.Value) map[string]any {
	if val.IsNil() {
		return nil
	}

	result := make(map[string]any)
	iter := val.MapRange()
	for iter.Next() {
		if value := normalizeValue(iter.Value().Interface()); value != nil {
			result[iter.Key().String()] = value
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func normalizeSlice(val reflect.Value) any {
	if val.Kind() == reflect.Slice && val.IsNil() {
		return nil
	}
	if val.Len() == 0 {
		return nil
	}

	result := make([]any, val.Len())
	for i := range result {
		result[i] = normalizeValue(val.Index(i).Interface())
	}
	return result
}

func normalizeStruct(val reflect.Value) map[string]any {
	result := make(map[string]any)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, omitEmpty := parseJSONTag(tag)
		if name == "" {
			name = field.Name
		}

		normalized := normalizeValue(val.Field(i).Interface())
		if omitEmpty && isZeroValue(normalized) {
			continue
		}
		if normalized != nil {
			result[name] = normalized
		}
	}
	return result
}

func parseJSONTag(tag string) (name string, omitEmpty bool) {
	if tag == "" {
		return "", false
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return parts[0], omitEmpty
}

func isZeroValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case int:
		return val == 0
	case string:
		return val == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
