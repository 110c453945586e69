// Package resolved holds the output of an extraction: one Value per property
// of a schema, collected in an immutable Map.
package resolved

import (
	"hash/fnv"
	"maps"
	"reflect"
	"slices"

	"github.com/goliatone/go-confbind/optional"
	"github.com/goliatone/go-confbind/redact"
	"github.com/mitchellh/copystructure"
)

// Status records where a value came from.
type Status uint8

const (
	// Configured values came from a source.
	Configured Status = iota
	// Defaulted values came from a declared default literal.
	Defaulted
	// Missing values had neither. The payload is nil or an empty optional.
	Missing
)

func (s Status) String() string {
	switch s {
	case Configured:
		return "CONFIGURED"
	case Defaulted:
		return "DEFAULTED"
	case Missing:
		return "MISSING"
	}
	return "UNKNOWN"
}

// Value is the resolution of one property.
type Value struct {
	Value     any
	Status    Status
	Sensitive bool
}

// Map is the resolved configuration of one schema, keyed by property name.
// It is safe for concurrent reads.
type Map struct {
	schema string
	names  []string
	values map[string]Value
}

// NewMap copies values into a new Map for the named schema.
func NewMap(schema string, values map[string]Value) *Map {
	names := slices.Sorted(maps.Keys(values))
	return &Map{
		schema: schema,
		names:  names,
		values: maps.Clone(values),
	}
}

func (m *Map) Schema() string {
	return m.schema
}

// Names returns the property names in ascending order.
func (m *Map) Names() []string {
	return slices.Clone(m.names)
}

func (m *Map) Len() int {
	return len(m.names)
}

func (m *Map) Get(name string) (Value, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Lookup returns the payload for name, nil when the name is unknown.
func (m *Map) Lookup(name string) any {
	return m.values[name].Value
}

// Equal compares property names and payloads. Status and schema name do
// not take part.
func (m *Map) Equal(other *Map) bool {
	if m == nil || other == nil {
		return m == other
	}
	if !slices.Equal(m.names, other.names) {
		return false
	}
	for _, name := range m.names {
		if !reflect.DeepEqual(m.values[name].Value, other.values[name].Value) {
			return false
		}
	}
	return true
}

// Hash is consistent with Equal.
func (m *Map) Hash() uint64 {
	h := fnv.New64a()
	if m == nil {
		return h.Sum64()
	}
	for _, name := range m.names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(redact.Value(m.values[name].Value)))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// ToMap projects m onto plain Go values for decoding. Nested maps become
// map[string]any, optional wrappers are unwrapped with an unset wrapper
// becoming nil, and slices are deep copied.
func (m *Map) ToMap() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m.names))
	for _, name := range m.names {
		out[name] = plain(m.values[name].Value)
	}
	return out
}

func plain(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *Map:
		if x == nil {
			return nil
		}
		return x.ToMap()
	case optional.Wrapper:
		content, ok := x.Content()
		if !ok {
			return nil
		}
		return plain(content)
	}

	t := reflect.TypeOf(v)
	if t.Kind() != reflect.Slice {
		return v
	}
	if opaque(t.Elem()) {
		rv := reflect.ValueOf(v)
		dup := reflect.MakeSlice(t, rv.Len(), rv.Len())
		reflect.Copy(dup, rv)
		return dup.Interface()
	}
	if dup, err := copystructure.Copy(v); err == nil {
		return dup
	}
	return v
}

// opaque element types carry unexported state that a deep copy would drop.
// Their slices are copied shallowly.
func opaque(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Pointer, reflect.Interface:
		return true
	}
	return false
}

// Fields exposes the entries to the redact formatters.
func (m *Map) Fields() []redact.Field {
	if m == nil {
		return nil
	}
	out := make([]redact.Field, 0, len(m.names))
	for _, name := range m.names {
		v := m.values[name]
		out = append(out, redact.Field{
			Name:      name,
			Value:     v.Value,
			Sensitive: v.Sensitive,
			Absent:    v.Status == Missing,
		})
	}
	return out
}

// String renders m with sensitive values masked.
func (m *Map) String() string {
	return redact.Format(m)
}

var _ redact.Fields = (*Map)(nil)
