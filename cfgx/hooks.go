package cfgx

import (
	"encoding"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-confbind/optional"
)

var (
	scannerType = reflect.TypeFor[optional.Scanner]()
	wrapperType = reflect.TypeFor[optional.Wrapper]()
)

// DefaultDecodeHooks returns the hooks every Build runs unless
// WithoutDefaultHooks is given.
func DefaultDecodeHooks() []mapstructure.DecodeHookFunc {
	return []mapstructure.DecodeHookFunc{
		OptionalHook(),
		DurationHook(),
		TextUnmarshalerHook(),
	}
}

// OptionalHook bridges optional values and plain fields. Data headed for an
// optional.Value[T] field is scanned into one; an optional.Value arriving at
// a plain field is unwrapped, an unset one leaving the field untouched.
func OptionalHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if data == nil {
			return nil, nil
		}

		if to == from {
			return data, nil
		}

		if reflect.PointerTo(to).Implements(scannerType) {
			return scanOptional(to, data)
		}

		if w, ok := data.(optional.Wrapper); ok && !to.Implements(wrapperType) {
			content, set := w.Content()
			if !set {
				return nil, nil
			}
			return content, nil
		}
		return data, nil
	}
}

func scanOptional(to reflect.Type, data any) (any, error) {
	if w, ok := data.(optional.Wrapper); ok {
		content, set := w.Content()
		if !set {
			return reflect.Zero(to).Interface(), nil
		}
		data = content
	}

	ptr := reflect.New(to)
	elem := optionalElem(ptr)
	if elem != nil {
		converted, err := convert(data, elem)
		if err != nil {
			return nil, err
		}
		data = converted
	}
	if err := ptr.Interface().(optional.Scanner).Scan(data); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

// optionalElem reports the T of an optional.Value[T], read off its Get
// method.
func optionalElem(ptr reflect.Value) reflect.Type {
	get := ptr.MethodByName("Get")
	if !get.IsValid() || get.Type().NumOut() != 1 {
		return nil
	}
	return get.Type().Out(0)
}

// convert coerces data into t, decoding through mapstructure when a plain
// conversion is not possible.
func convert(data any, t reflect.Type) (any, error) {
	v := reflect.ValueOf(data)
	switch {
	case v.Type().AssignableTo(t):
		return data, nil
	case v.Type().ConvertibleTo(t) && v.Kind() != reflect.String && t.Kind() != reflect.String:
		return v.Convert(t).Interface(), nil
	}

	out := reflect.New(t)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out.Interface(),
		TagName:          DefaultTagName,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			DurationHook(),
			TextUnmarshalerHook(),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("cfgx: cannot convert %T to %s: %w", data, t, err)
	}
	return out.Elem().Interface(), nil
}

// DurationHook converts strings such as "5s" into time.Duration.
func DurationHook() mapstructure.DecodeHookFunc {
	return mapstructure.StringToTimeDurationHookFunc()
}

// TextUnmarshalerHook decodes strings into encoding.TextUnmarshaler
// targets such as netip.Addr.
func TextUnmarshalerHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || from == to {
			return data, nil
		}
		result := reflect.New(to)
		unmarshaler, ok := result.Interface().(encoding.TextUnmarshaler)
		if !ok {
			return data, nil
		}
		if err := unmarshaler.UnmarshalText([]byte(reflect.ValueOf(data).String())); err != nil {
			return nil, err
		}
		return result.Elem().Interface(), nil
	}
}
