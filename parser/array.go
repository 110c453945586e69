package parser

import (
	"fmt"
	"reflect"
	"strings"
)

// Split breaks raw on delim keeping trailing empty segments. An empty raw
// string has no segments.
func Split(raw, delim string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, delim)
}

func arrayFunc(t reflect.Type, elem Parser, delim string) Func {
	return func(raw string) (any, error) {
		parts := Split(raw, delim)

		var out reflect.Value
		if t.Kind() == reflect.Array {
			if len(parts) != t.Len() {
				return nil, fmt.Errorf("expected %d elements, got %d", t.Len(), len(parts))
			}
			out = reflect.New(t).Elem()
		} else {
			out = reflect.MakeSlice(t, len(parts), len(parts))
		}

		for i, part := range parts {
			v, err := elem.Parse(part)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			if err := assign(out.Index(i), v); err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
		}
		return out.Interface(), nil
	}
}
