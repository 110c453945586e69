// Package redact renders resolved configuration for humans and logs,
// masking sensitive values.
//
// A sensitive value is replaced by Mask unless it is absent. Masking an
// absent value would hide nothing and suggest a value exists, so absent
// values render as they are.
package redact

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strings"

	"github.com/goliatone/go-confbind/optional"
)

// Mask replaces sensitive values.
const Mask = "********"

// Field is one named entry of a resolved configuration.
type Field struct {
	Name      string
	Value     any
	Sensitive bool
	// Absent is set when neither a source nor a default supplied the value.
	Absent bool
}

// Fields is implemented by resolved configuration maps. Nested maps held as
// field values are rendered recursively.
type Fields interface {
	Fields() []Field
}

// Format renders f as {name=value, other=[1, 2]} in field order.
func Format(f Fields) string {
	if f == nil || isNilPointer(f) {
		return "null"
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, field := range f.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(field.Name)
		b.WriteByte('=')
		if masked(field) {
			b.WriteString(Mask)
			continue
		}
		b.WriteString(Value(field.Value))
	}
	b.WriteByte('}')
	return b.String()
}

// Value renders a single value without masking it. Nested Fields are still
// rendered through Format.
func Value(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case Fields:
		return Format(x)
	case optional.Wrapper:
		content, ok := x.Content()
		if !ok {
			return "<unset>"
		}
		return Value(content)
	case []byte:
		return base64.StdEncoding.EncodeToString(x)
	case string:
		return x
	case fmt.Stringer:
		if isNilPointer(x) {
			return "null"
		}
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
		return Value(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "null"
		}
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = Value(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}

func masked(f Field) bool {
	return f.Sensitive && !f.Absent
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
