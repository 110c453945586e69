package parser

import (
	"encoding"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Char is a single character parsed from the first rune of the raw value.
type Char rune

func (c Char) String() string {
	return string(rune(c))
}

// NewDefaultBuilder returns a builder preloaded with parsers for strings,
// booleans, numbers, durations, periods, times, big numbers, decimals,
// UUIDs, network addresses, URLs, regular expressions and byte slices,
// plus the encoding.TextUnmarshaler and named basic type factories.
func NewDefaultBuilder() *Builder {
	b := NewBuilder()

	for kind, fn := range kindParsers {
		b.Register(basicTypes[kind], fn)
	}

	RegisterType(b, ParseChar)
	RegisterType(b, ParseBytes)
	RegisterType(b, ParseDuration)
	RegisterType(b, ParsePeriod)
	RegisterType(b, func(raw string) (time.Time, error) {
		return time.Parse(time.RFC3339, raw)
	})
	RegisterType(b, ParseBigInt)
	RegisterType(b, ParseBigFloat)
	RegisterType(b, decimal.NewFromString)
	RegisterType(b, uuid.Parse)
	RegisterType(b, ParseIP)
	RegisterType(b, ParseIPNet)
	RegisterType(b, ParseSocketAddress)
	RegisterType(b, url.Parse)
	RegisterType(b, regexp.Compile)

	b.RegisterFactory(TextUnmarshalerFactory())
	b.RegisterFactory(BasicKindFactory())
	return b
}

// Default builds a registry from NewDefaultBuilder.
func Default() *Registry {
	return NewDefaultBuilder().Build()
}

var basicTypes = map[reflect.Kind]reflect.Type{
	reflect.String:  reflect.TypeFor[string](),
	reflect.Bool:    reflect.TypeFor[bool](),
	reflect.Int:     reflect.TypeFor[int](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Uint:    reflect.TypeFor[uint](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Uint16:  reflect.TypeFor[uint16](),
	reflect.Uint32:  reflect.TypeFor[uint32](),
	reflect.Uint64:  reflect.TypeFor[uint64](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
}

var kindParsers = map[reflect.Kind]Func{
	reflect.String: func(raw string) (any, error) { return raw, nil },
	reflect.Bool:   func(raw string) (any, error) { return ParseBool(raw) },
	reflect.Int:    intParser[int](strconv.IntSize),
	reflect.Int8:   intParser[int8](8),
	reflect.Int16:  intParser[int16](16),
	reflect.Int32:  intParser[int32](32),
	reflect.Int64:  intParser[int64](64),
	reflect.Uint:   uintParser[uint](strconv.IntSize),
	reflect.Uint8:  uintParser[uint8](8),
	reflect.Uint16: uintParser[uint16](16),
	reflect.Uint32: uintParser[uint32](32),
	reflect.Uint64: uintParser[uint64](64),
	reflect.Float32: func(raw string) (any, error) {
		v, err := strconv.ParseFloat(raw, 32)
		return float32(v), err
	},
	reflect.Float64: func(raw string) (any, error) {
		return strconv.ParseFloat(raw, 64)
	},
}

func intParser[T ~int | ~int8 | ~int16 | ~int32 | ~int64](bits int) Func {
	return func(raw string) (any, error) {
		v, err := strconv.ParseInt(raw, 10, bits)
		if err != nil {
			return nil, err
		}
		return T(v), nil
	}
}

func uintParser[T ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](bits int) Func {
	return func(raw string) (any, error) {
		v, err := strconv.ParseUint(raw, 10, bits)
		if err != nil {
			return nil, err
		}
		return T(v), nil
	}
}

var boolValues = map[string]bool{
	"true":  true,
	"false": false,
	"yes":   true,
	"no":    false,
	"y":     true,
	"n":     false,
	"on":    true,
	"off":   false,
}

// ParseBool accepts true/false, yes/no, y/n and on/off in any case.
func ParseBool(raw string) (bool, error) {
	v, ok := boolValues[strings.ToLower(raw)]
	if !ok {
		return false, fmt.Errorf("no registered boolean value for %q", raw)
	}
	return v, nil
}

// ParseChar returns the first character of raw.
func ParseChar(raw string) (Char, error) {
	if raw == "" {
		return 0, errors.New("cannot parse character from empty value")
	}
	r, _ := utf8.DecodeRuneInString(raw)
	return Char(r), nil
}

// ParseBytes decodes base64 input. Standard encoding is used when raw
// contains '+' or '/', URL encoding otherwise.
func ParseBytes(raw string) ([]byte, error) {
	enc := base64.URLEncoding
	if strings.ContainsAny(raw, "+/") {
		enc = base64.StdEncoding
	}
	return enc.DecodeString(raw)
}

func ParseBigInt(raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", raw)
	}
	return v, nil
}

func ParseBigFloat(raw string) (*big.Float, error) {
	v, _, err := big.ParseFloat(raw, 10, 0, big.ToNearestEven)
	return v, err
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// TextUnmarshalerFactory builds parsers for types whose pointer implements
// encoding.TextUnmarshaler, such as netip.Addr or slog.Level.
func TextUnmarshalerFactory() Factory {
	return func(t reflect.Type) (Func, bool) {
		if t.Kind() == reflect.Pointer {
			if !t.Implements(textUnmarshalerType) {
				return nil, false
			}
			return func(raw string) (any, error) {
				ptr := reflect.New(t.Elem())
				if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
					return nil, err
				}
				return ptr.Interface(), nil
			}, true
		}

		if !reflect.PointerTo(t).Implements(textUnmarshalerType) {
			return nil, false
		}
		return func(raw string) (any, error) {
			ptr := reflect.New(t)
			if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
				return nil, err
			}
			return ptr.Elem().Interface(), nil
		}, true
	}
}

// BasicKindFactory handles named types over a basic kind, e.g.
// `type Mode string`, by parsing the underlying kind and converting.
func BasicKindFactory() Factory {
	return func(t reflect.Type) (Func, bool) {
		fn, ok := kindParsers[t.Kind()]
		if !ok {
			return nil, false
		}
		return func(raw string) (any, error) {
			v, err := fn(raw)
			if err != nil {
				return nil, err
			}
			return reflect.ValueOf(v).Convert(t).Interface(), nil
		}, true
	}
}
