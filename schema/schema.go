// Package schema describes configuration schemas: named sets of typed
// property declarations that may nest other schemas and inherit from
// parent schemas.
//
// Schemas are built once, usually at package init, and are read-only while
// being extracted. A schema may reference itself through a group property:
//
//	node := schema.New("Node")
//	node.Add(
//		schema.Prop("value", schema.ScalarOf[string]()),
//		schema.Prop("next", schema.OptionalGroup(node)),
//	)
package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-confbind/param"
)

// reserved names collide with the identity and formatting contract of the
// materialized configuration.
var reserved = map[string]struct{}{
	"String":   {},
	"GoString": {},
	"Equal":    {},
	"Hash":     {},
	"toString": {},
	"equals":   {},
	"hashCode": {},
}

// Schema is a named set of property declarations.
type Schema struct {
	name    string
	prefix  string
	parents []*Schema
	props   []Property
}

func New(name string) *Schema {
	return &Schema{name: name}
}

// WithPrefix sets the group prefix applied to every member parameter when
// this schema is extracted at the top level.
func (s *Schema) WithPrefix(prefix string) *Schema {
	s.prefix = prefix
	return s
}

// Extends appends parent schemas. Earlier parents take precedence over
// later ones when both declare the same property.
func (s *Schema) Extends(parents ...*Schema) *Schema {
	for _, p := range parents {
		if p != nil {
			s.parents = append(s.parents, p)
		}
	}
	return s
}

// Add appends own property declarations.
func (s *Schema) Add(props ...Property) *Schema {
	s.props = append(s.props, props...)
	return s
}

func (s *Schema) Name() string {
	return s.name
}

// Prefix returns the parsed group prefix, the zero Parameter when unset.
func (s *Schema) Prefix() (param.Parameter, error) {
	if s.prefix == "" {
		return param.Parameter{}, nil
	}
	return param.New(s.prefix)
}

func (s *Schema) Parents() []*Schema {
	return slices.Clone(s.parents)
}

// Own returns the declarations made directly on s, in declaration order.
func (s *Schema) Own() []Property {
	return slices.Clone(s.props)
}

// Properties returns the merged declarations of s and its ancestors sorted
// by name. Own declarations win, then parents are consulted in order, depth
// first, and a name already merged is never replaced. A declaration with
// unset sensitivity takes the flag of the declaration it overrides.
func (s *Schema) Properties() []Property {
	merged := make(map[string]Property)
	s.merge(merged, nil)

	out := make([]Property, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Property) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (s *Schema) merge(into map[string]Property, path []*Schema) {
	if slices.Contains(path, s) {
		return
	}
	path = append(path, s)

	for _, p := range s.props {
		if _, ok := into[p.Name]; !ok {
			into[p.Name] = p
			continue
		}
		inherit(into, p)
	}
	for _, parent := range s.parents {
		parent.merge(into, path)
	}
}

func inherit(into map[string]Property, overridden Property) {
	current := into[overridden.Name]
	if current.Sensitive == SensitivityUnset {
		current.Sensitive = overridden.Sensitive
		into[overridden.Name] = current
	}
}

// Validate checks s, its ancestors and every schema reachable through group
// properties. It reports the first problem found.
func (s *Schema) Validate() error {
	return s.validate(make(map[*Schema]bool))
}

func (s *Schema) validate(seen map[*Schema]bool) error {
	if seen[s] {
		return nil
	}
	seen[s] = true

	if s.name == "" {
		return declarationError(CodeMalformedProperty, s.name, "", "schema has no name")
	}
	if _, err := s.Prefix(); err != nil {
		return declarationError(CodeInvalidGroupPrefix, s.name, "", fmt.Sprintf("invalid group prefix %q", s.prefix))
	}
	if s.inherits(s, nil) {
		return declarationError(CodeCyclicInheritance, s.name, "", "schema inherits from itself")
	}

	names := make(map[string]bool, len(s.props))
	for _, p := range s.props {
		if err := checkProperty(s, p); err != nil {
			return err
		}
		if names[p.Name] {
			return declarationError(CodeDuplicateProperty, s.name, p.Name, "property declared more than once")
		}
		names[p.Name] = true
	}

	for _, parent := range s.parents {
		if err := parent.validate(seen); err != nil {
			return err
		}
	}
	for _, p := range s.props {
		if g := groupOf(p.Type); g != nil {
			if err := g.validate(seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// inherits reports whether target is an ancestor of s.
func (s *Schema) inherits(target *Schema, path []*Schema) bool {
	if slices.Contains(path, s) {
		return false
	}
	path = append(path, s)
	for _, parent := range s.parents {
		if parent == target || parent.inherits(target, path) {
			return true
		}
	}
	return false
}

func checkProperty(s *Schema, p Property) error {
	if strings.TrimSpace(p.Name) == "" {
		return declarationError(CodeMalformedProperty, s.name, p.Name, "property has no name")
	}
	if _, ok := reserved[p.Name]; ok {
		return declarationError(CodeIllegalOverride, s.name, p.Name, "name is reserved")
	}
	if reason := p.Type.check(); reason != "" {
		return declarationError(CodeMalformedProperty, s.name, p.Name, reason)
	}
	if p.CustomName != "" {
		if _, err := param.New(p.CustomName); err != nil {
			return err
		}
	} else if _, err := param.Derive(p.Name); err != nil {
		return err
	}
	return nil
}

func groupOf(t Type) *Schema {
	switch t.Kind() {
	case KindGroup:
		return t.Schema()
	case KindOptional:
		return groupOf(t.Inner())
	}
	return nil
}
