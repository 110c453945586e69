// Package parser turns raw configuration strings into typed values.
//
// A Registry is assembled with a Builder and is read-only afterwards, so a
// single Registry can serve concurrent extractions. Resolution for a target
// type tries, in order:
//   - an exact registration (a pointer type falls back to its element type)
//   - a registered enum, matched by constant name
//   - slices and arrays, split on the delimiter and parsed element-wise
//   - registered factories, such as the encoding.TextUnmarshaler factory
package parser

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// DefaultDelimiter separates array elements.
const DefaultDelimiter = ","

// Func parses one raw value.
type Func func(raw string) (any, error)

// Parser is a resolved parse function along with the type it produces.
type Parser struct {
	Type  reflect.Type
	Parse Func
}

// Factory synthesizes a parse function for t, or reports false when it
// cannot handle t.
type Factory func(t reflect.Type) (Func, bool)

type enumSet struct {
	byName map[string]any
}

type Builder struct {
	parsers   map[reflect.Type]Func
	enums     map[reflect.Type]enumSet
	factories []Factory
	delimiter string
}

// NewBuilder returns an empty builder. Use NewDefaultBuilder for one
// preloaded with the standard parsers.
func NewBuilder() *Builder {
	return &Builder{
		parsers:   make(map[reflect.Type]Func),
		enums:     make(map[reflect.Type]enumSet),
		delimiter: DefaultDelimiter,
	}
}

// Register adds or replaces the exact parser for t.
func (b *Builder) Register(t reflect.Type, fn Func) *Builder {
	if t == nil || fn == nil {
		return b
	}
	b.parsers[t] = fn
	return b
}

// RegisterType is the typed form of Register.
func RegisterType[T any](b *Builder, fn func(raw string) (T, error)) *Builder {
	if fn == nil {
		return b
	}
	return b.Register(reflect.TypeFor[T](), func(raw string) (any, error) {
		v, err := fn(raw)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

// RegisterEnum declares T as an enumeration whose constants are values.
// Constant names come from fmt.Sprint, so T usually implements Stringer.
// Matching is case sensitive.
func RegisterEnum[T comparable](b *Builder, values ...T) *Builder {
	set := enumSet{byName: make(map[string]any, len(values))}
	for _, v := range values {
		set.byName[fmt.Sprint(v)] = v
	}
	b.enums[reflect.TypeFor[T]()] = set
	return b
}

// RegisterFactory appends a factory consulted after exact, enum and array
// resolution fail.
func (b *Builder) RegisterFactory(f Factory) *Builder {
	if f != nil {
		b.factories = append(b.factories, f)
	}
	return b
}

// WithDelimiter changes the array element delimiter.
func (b *Builder) WithDelimiter(delim string) *Builder {
	if delim != "" {
		b.delimiter = delim
	}
	return b
}

// Build freezes the builder state into a Registry. Later changes to the
// builder do not affect registries already built.
func (b *Builder) Build() *Registry {
	return &Registry{
		parsers:   maps.Clone(b.parsers),
		enums:     maps.Clone(b.enums),
		factories: slices.Clone(b.factories),
		delimiter: b.delimiter,
	}
}

// Registry maps target types to parsers. It is immutable.
type Registry struct {
	parsers   map[reflect.Type]Func
	enums     map[reflect.Type]enumSet
	factories []Factory
	delimiter string
}

// Delimiter returns the array element delimiter.
func (r *Registry) Delimiter() string {
	return r.delimiter
}

// Resolve finds or synthesizes the parser for t.
func (r *Registry) Resolve(t reflect.Type) (Parser, error) {
	return r.resolve(t, true)
}

// Supports reports whether Resolve would succeed for t.
func (r *Registry) Supports(t reflect.Type) bool {
	_, err := r.Resolve(t)
	return err == nil
}

// Parse resolves the parser for t and applies it to raw.
func (r *Registry) Parse(t reflect.Type, raw string) (any, error) {
	p, err := r.Resolve(t)
	if err != nil {
		return nil, err
	}
	return p.Parse(raw)
}

func (r *Registry) resolve(t reflect.Type, allowArray bool) (Parser, error) {
	if t == nil {
		return Parser{}, unsupported(t, "nil type")
	}

	if fn, ok := r.parsers[t]; ok {
		return newParser(t, fn), nil
	}

	if t.Kind() == reflect.Pointer {
		if inner, err := r.resolve(t.Elem(), allowArray); err == nil {
			return pointerParser(t, inner), nil
		}
	}

	if set, ok := r.enums[t]; ok {
		return newParser(t, enumFunc(t, set)), nil
	}

	if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		if !allowArray {
			return Parser{}, unsupported(t, "nested arrays are not supported")
		}
		elem, err := r.resolve(t.Elem(), false)
		if err != nil {
			return Parser{}, err
		}
		return newParser(t, arrayFunc(t, elem, r.delimiter)), nil
	}

	for _, factory := range r.factories {
		if fn, ok := factory(t); ok && fn != nil {
			return newParser(t, fn), nil
		}
	}

	return Parser{}, unsupported(t, "")
}

func newParser(t reflect.Type, fn Func) Parser {
	return Parser{
		Type: t,
		Parse: func(raw string) (any, error) {
			v, err := fn(raw)
			if err != nil {
				return nil, parseError(t, raw, err)
			}
			return v, nil
		},
	}
}

func pointerParser(t reflect.Type, inner Parser) Parser {
	return Parser{
		Type: t,
		Parse: func(raw string) (any, error) {
			v, err := inner.Parse(raw)
			if err != nil {
				return nil, err
			}
			ptr := reflect.New(t.Elem())
			if err := assign(ptr.Elem(), v); err != nil {
				return nil, parseError(t, raw, err)
			}
			return ptr.Interface(), nil
		},
	}
}

func enumFunc(t reflect.Type, set enumSet) Func {
	return func(raw string) (any, error) {
		v, ok := set.byName[raw]
		if !ok {
			return nil, fmt.Errorf("%w: no constant %q for enum %s", ErrUnknownConstant, raw, t)
		}
		return v, nil
	}
}

// assign stores v into dst, converting between compatible types.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.SetZero()
		return nil
	}
	val := reflect.ValueOf(v)
	switch {
	case val.Type().AssignableTo(dst.Type()):
		dst.Set(val)
	case val.Type().ConvertibleTo(dst.Type()):
		dst.Set(val.Convert(dst.Type()))
	default:
		return fmt.Errorf("parsed %s is not assignable to %s", val.Type(), dst.Type())
	}
	return nil
}
