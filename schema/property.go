package schema

// Sensitivity is the declared sensitive flag of a property. Unset inherits
// the flag of the declaration being overridden.
type Sensitivity uint8

const (
	SensitivityUnset Sensitivity = iota
	SensitivityOn
	SensitivityOff
)

// Property is one declaration in a schema.
type Property struct {
	Name string
	Type Type
	// CustomName replaces the parameter derived from Name.
	CustomName string
	// Default is the literal used when no source has a value.
	Default   *string
	Nullable  bool
	Sensitive Sensitivity
	// HasDefault marks a property the application can fill in itself, so
	// it is never mandatory.
	HasDefault bool
}

// PropertyOption configures a Property built with Prop.
type PropertyOption func(*Property)

// Prop declares a property.
func Prop(name string, t Type, opts ...PropertyOption) Property {
	p := Property{Name: name, Type: t}
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}
	return p
}

func CustomName(name string) PropertyOption {
	return func(p *Property) {
		p.CustomName = name
	}
}

func Default(literal string) PropertyOption {
	return func(p *Property) {
		p.Default = &literal
	}
}

func Nullable() PropertyOption {
	return func(p *Property) {
		p.Nullable = true
	}
}

func Sensitive() PropertyOption {
	return func(p *Property) {
		p.Sensitive = SensitivityOn
	}
}

// Insensitive clears a sensitive flag inherited from a parent schema.
func Insensitive() PropertyOption {
	return func(p *Property) {
		p.Sensitive = SensitivityOff
	}
}

func HasDefault() PropertyOption {
	return func(p *Property) {
		p.HasDefault = true
	}
}

// IsSensitive reports whether values of p are masked when formatted.
func (p Property) IsSensitive() bool {
	return p.Sensitive == SensitivityOn
}

// IsMandatory reports whether a missing value for p is an error.
// Primitives are mandatory even when nullable; optional wrappers and
// properties with a default implementation never are.
func (p Property) IsMandatory() bool {
	if p.Type.Kind() == KindOptional || p.HasDefault {
		return false
	}
	return p.Type.IsPrimitive() || !p.Nullable
}
