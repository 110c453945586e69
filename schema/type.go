package schema

import (
	"fmt"
	"reflect"

	"github.com/goliatone/go-confbind/optional"
	"github.com/goliatone/go-confbind/resolved"
)

// Kind tags the variant held by a Type.
type Kind uint8

const (
	// KindInvalid is the zero Type. A property declared with it is
	// malformed, the equivalent of an accessor returning nothing.
	KindInvalid Kind = iota
	KindScalar
	KindOptional
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindOptional:
		return "optional"
	case KindGroup:
		return "group"
	default:
		return "invalid"
	}
}

// Type describes what a property resolves to: a scalar parsed from a raw
// string, a nested group, or an optional wrapper around either.
type Type struct {
	kind   Kind
	scalar reflect.Type
	group  *Schema
	inner  *Type
	elem   reflect.Type
	wrap   func(v any) any
}

// Scalar declares a value parsed by the registry parser for t.
func Scalar(t reflect.Type) Type {
	if t == nil {
		return Type{}
	}
	return Type{kind: KindScalar, scalar: t}
}

// ScalarOf is the typed form of Scalar.
func ScalarOf[T any]() Type {
	return Scalar(reflect.TypeFor[T]())
}

// Group declares a nested schema.
func Group(s *Schema) Type {
	if s == nil {
		return Type{}
	}
	return Type{kind: KindGroup, group: s}
}

// Optional wraps inner in optional.Value[T]. T must be the type inner
// resolves to: the scalar type, or *resolved.Map for a group.
func Optional[T any](inner Type) Type {
	return Type{
		kind:  KindOptional,
		inner: &inner,
		elem:  reflect.TypeFor[T](),
		wrap: func(v any) any {
			if v == nil {
				return optional.Empty[T]()
			}
			return optional.Of(v.(T))
		},
	}
}

// OptionalOf declares an optional scalar of type T.
func OptionalOf[T any]() Type {
	return Optional[T](ScalarOf[T]())
}

// OptionalGroup declares an optional nested schema.
func OptionalGroup(s *Schema) Type {
	return Optional[*resolved.Map](Group(s))
}

func (t Type) Kind() Kind {
	return t.kind
}

func (t Type) IsValid() bool {
	return t.kind != KindInvalid
}

// ScalarType returns the parse target of a scalar, nil otherwise.
func (t Type) ScalarType() reflect.Type {
	return t.scalar
}

// Schema returns the nested schema of a group, nil otherwise.
func (t Type) Schema() *Schema {
	return t.group
}

// Inner returns the wrapped type of an optional. It is the zero Type for
// other kinds.
func (t Type) Inner() Type {
	if t.inner == nil {
		return Type{}
	}
	return *t.inner
}

// Wrap boxes a value resolved for Inner. A nil value yields an empty
// wrapper. Non optional types return v unchanged.
func (t Type) Wrap(v any) any {
	if t.wrap == nil {
		return v
	}
	return t.wrap(v)
}

// IsPrimitive reports whether t is a scalar of a basic bool or numeric
// kind. Primitives have no absent state and are always mandatory.
func (t Type) IsPrimitive() bool {
	if t.kind != KindScalar {
		return false
	}
	switch t.scalar.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

func (t Type) String() string {
	switch t.kind {
	case KindScalar:
		return t.scalar.String()
	case KindGroup:
		return t.group.Name()
	case KindOptional:
		return fmt.Sprintf("optional[%s]", t.Inner())
	default:
		return "<invalid>"
	}
}

// check reports why t cannot be resolved, or "" when it is well formed.
func (t Type) check() string {
	switch t.kind {
	case KindInvalid:
		return "property has no type"
	case KindOptional:
		inner := t.Inner()
		switch inner.kind {
		case KindScalar:
			if inner.scalar != t.elem {
				return fmt.Sprintf("optional of %s wraps %s", t.elem, inner.scalar)
			}
		case KindGroup:
			if t.elem != reflect.TypeFor[*resolved.Map]() {
				return fmt.Sprintf("optional of %s wraps group %s", t.elem, inner.group.Name())
			}
		case KindOptional:
			return "optional of optional is not supported"
		default:
			return "optional wraps no type"
		}
	}
	return ""
}
