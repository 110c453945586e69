// Package optional provides Value, the wrapper used for properties declared
// as optional. An unset Value means no provider and no default supplied the
// property.
package optional

import (
	"encoding/json"
	"fmt"
)

// Value carries two states: unset, or set to a value of T.
// The zero value is unset.
type Value[T any] struct {
	value T
	set   bool
}

// Of returns a set Value holding v.
func Of[T any](v T) Value[T] {
	return Value[T]{value: v, set: true}
}

// Empty returns an unset Value.
func Empty[T any]() Value[T] {
	return Value[T]{}
}

// IsSet reports whether a value is present.
func (o Value[T]) IsSet() bool {
	return o.set
}

// Get returns the stored value, or the zero T when unset.
func (o Value[T]) Get() T {
	return o.value
}

// GetOK returns the stored value along with the IsSet flag.
func (o Value[T]) GetOK() (T, bool) {
	return o.value, o.set
}

// Or returns the stored value when set, otherwise def.
func (o Value[T]) Or(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// Content exposes the payload without knowing T, for formatting and decode
// hooks.
func (o Value[T]) Content() (any, bool) {
	if !o.set {
		return nil, false
	}
	return o.value, true
}

func (o Value[T]) String() string {
	if !o.set {
		return "<unset>"
	}
	return fmt.Sprint(o.value)
}

// Scan sets o from src. A nil src unsets it. Decode hooks use it to fill
// optional fields of materialized structs.
func (o *Value[T]) Scan(src any) error {
	if src == nil {
		*o = Value[T]{}
		return nil
	}
	v, ok := src.(T)
	if !ok {
		return fmt.Errorf("optional: cannot assign %T to %T", src, o.value)
	}
	*o = Of(v)
	return nil
}

func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// Wrapper is implemented by every Value[T].
type Wrapper interface {
	IsSet() bool
	Content() (any, bool)
}

// Scanner is implemented by every *Value[T].
type Scanner interface {
	Scan(src any) error
}

var (
	_ Wrapper = Value[int]{}
	_ Scanner = (*Value[int])(nil)
)
