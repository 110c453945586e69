package redact

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strings"

	"github.com/goliatone/go-confbind/optional"
	"github.com/tidwall/sjson"
)

var pathEscaper = strings.NewReplacer(`\`, `\\`, ".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`, ":", `\:`)

// JSON renders f as a JSON object with sensitive values masked. Nested
// Fields become nested objects.
func JSON(f Fields) (string, error) {
	if f == nil || isNilPointer(f) {
		return "null", nil
	}
	out := "{}"
	for _, field := range f.Fields() {
		path := pathEscaper.Replace(field.Name)

		if masked(field) {
			var err error
			if out, err = sjson.Set(out, path, Mask); err != nil {
				return "", fmt.Errorf("redact field %s: %w", field.Name, err)
			}
			continue
		}

		if nested, ok := nestedFields(field.Value); ok {
			raw, err := JSON(nested)
			if err != nil {
				return "", err
			}
			if out, err = sjson.SetRaw(out, path, raw); err != nil {
				return "", fmt.Errorf("redact field %s: %w", field.Name, err)
			}
			continue
		}

		var err error
		if out, err = sjson.Set(out, path, jsonValue(field.Value)); err != nil {
			return "", fmt.Errorf("redact field %s: %w", field.Name, err)
		}
	}
	return out, nil
}

func nestedFields(v any) (Fields, bool) {
	if w, ok := v.(optional.Wrapper); ok {
		content, set := w.Content()
		if !set {
			return nil, false
		}
		v = content
	}
	f, ok := v.(Fields)
	if !ok || isNilPointer(f) {
		return nil, false
	}
	return f, true
}

// jsonValue maps v onto values sjson encodes predictably.
func jsonValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case Fields:
		return Format(x)
	case optional.Wrapper:
		content, ok := x.Content()
		if !ok {
			return nil
		}
		return jsonValue(content)
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	case string, bool:
		return x
	case fmt.Stringer:
		if isNilPointer(x) {
			return nil
		}
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return jsonValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = jsonValue(rv.Index(i).Interface())
		}
		return out
	}
	return fmt.Sprint(v)
}
