// Package extract walks a schema and resolves every property against a
// source, producing a resolved.Map.
//
// Each property is bound to a parameter derived from its name, or its
// custom name, joined to the prefix in effect. Scalars are looked up and
// parsed, groups are walked recursively with the group parameter as prefix,
// and optional wrappers resolve their inner type and box the result.
//
// Extraction is atomic: a call returns either the complete map or an error.
package extract

import (
	goerrors "errors"
	"slices"

	"github.com/goliatone/go-confbind/logger"
	"github.com/goliatone/go-confbind/param"
	"github.com/goliatone/go-confbind/parser"
	"github.com/goliatone/go-confbind/resolved"
	"github.com/goliatone/go-confbind/schema"
	"github.com/goliatone/go-confbind/source"
	"github.com/goliatone/go-errors"
)

// DefaultMaxDepth bounds group nesting.
const DefaultMaxDepth = 32

type Option func(*Extractor)

func WithLogger(l logger.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMaxDepth sets how many groups deep a walk may go before it fails with
// a CyclicSchemaError.
func WithMaxDepth(depth int) Option {
	return func(e *Extractor) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// Extractor resolves schemas against one registry and one source. It holds
// no per call state and may be shared between goroutines when its source
// is safe for concurrent lookups.
type Extractor struct {
	registry *parser.Registry
	source   source.Source
	logger   logger.Logger
	maxDepth int
}

// New returns an Extractor. A nil registry uses parser.Default and a nil
// source finds nothing.
func New(reg *parser.Registry, src source.Source, opts ...Option) *Extractor {
	if reg == nil {
		reg = parser.Default()
	}
	if src == nil {
		src = source.Chain()
	}
	e := &Extractor{
		registry: reg,
		source:   src,
		logger:   logger.Nop(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Extract resolves s. The schema prefix applies here only; nested schemas
// are prefixed by the parameter of the property that holds them.
func (e *Extractor) Extract(s *schema.Schema) (*resolved.Map, error) {
	if s == nil {
		return nil, errors.New("schema is nil", errors.CategoryBadInput).
			WithTextCode("NIL_SCHEMA")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	prefix, err := s.Prefix()
	if err != nil {
		return nil, err
	}

	m, err := e.extract(s, prefix, nil)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("schema extracted", "schema", s.Name(), "properties", m.Len())
	return m, nil
}

func (e *Extractor) extract(s *schema.Schema, prefix param.Parameter, path []*schema.Schema) (*resolved.Map, error) {
	path = append(path, s)

	props := s.Properties()
	values := make(map[string]resolved.Value, len(props))
	for _, prop := range props {
		p, err := parameterFor(prop, prefix)
		if err != nil {
			return nil, err
		}
		v, err := e.resolve(s, prop, prop.Type, p, path, prop.IsMandatory())
		if err != nil {
			return nil, err
		}
		values[prop.Name] = v
	}
	return resolved.NewMap(s.Name(), values), nil
}

func parameterFor(prop schema.Property, prefix param.Parameter) (param.Parameter, error) {
	var (
		leaf param.Parameter
		err  error
	)
	if prop.CustomName != "" {
		leaf, err = param.New(prop.CustomName)
	} else {
		leaf, err = param.Derive(prop.Name)
	}
	if err != nil {
		return param.Parameter{}, err
	}
	return param.Join(prefix, leaf), nil
}

func (e *Extractor) resolve(s *schema.Schema, prop schema.Property, t schema.Type, p param.Parameter, path []*schema.Schema, mandatory bool) (resolved.Value, error) {
	sensitive := prop.IsSensitive()

	switch t.Kind() {
	case schema.KindOptional:
		inner, err := e.resolve(s, prop, t.Inner(), p, path, false)
		if err != nil {
			return resolved.Value{}, err
		}
		return resolved.Value{Value: t.Wrap(inner.Value), Status: inner.Status, Sensitive: sensitive}, nil

	case schema.KindScalar:
		return e.resolveScalar(s, prop, t, p, mandatory)

	case schema.KindGroup:
		return e.resolveGroup(s, prop, t.Schema(), p, path, mandatory)
	}

	return resolved.Value{}, unsupportedType(s.Name(), prop.Name, t.String(), nil)
}

func (e *Extractor) resolveScalar(s *schema.Schema, prop schema.Property, t schema.Type, p param.Parameter, mandatory bool) (resolved.Value, error) {
	sensitive := prop.IsSensitive()

	parse, err := e.registry.Resolve(t.ScalarType())
	if err != nil {
		return resolved.Value{}, unsupportedType(s.Name(), prop.Name, t.String(), err)
	}

	raw, ok, err := source.Get(e.source, p)
	if err != nil {
		return resolved.Value{}, parseValue(s.Name(), prop.Name, p, err)
	}
	status := resolved.Configured
	if !ok {
		if prop.Default == nil {
			if mandatory {
				return resolved.Value{}, missingParameter(s.Name(), prop.Name, p)
			}
			e.logger.Debug("parameter missing", "schema", s.Name(), "property", prop.Name, "parameter", p)
			return resolved.Value{Status: resolved.Missing, Sensitive: sensitive}, nil
		}
		raw = *prop.Default
		status = resolved.Defaulted
		e.logger.Debug("parameter defaulted", "schema", s.Name(), "property", prop.Name, "parameter", p)
	}

	v, err := parse.Parse(raw)
	if err != nil {
		return resolved.Value{}, parseValue(s.Name(), prop.Name, p, err)
	}
	return resolved.Value{Value: v, Status: status, Sensitive: sensitive}, nil
}

func (e *Extractor) resolveGroup(s *schema.Schema, prop schema.Property, nested *schema.Schema, p param.Parameter, path []*schema.Schema, mandatory bool) (resolved.Value, error) {
	sensitive := prop.IsSensitive()
	missing := resolved.Value{Status: resolved.Missing, Sensitive: sensitive}

	if prop.Default != nil {
		return resolved.Value{}, nestedDefault(s.Name(), prop.Name)
	}

	if len(path) >= e.maxDepth {
		return resolved.Value{}, cyclicSchema(s.Name(), prop.Name, p, len(path), "maximum group nesting depth exceeded")
	}

	if slices.Contains(path, nested) {
		if found, known := source.HasPrefix(e.source, p); known && !found {
			if mandatory {
				return resolved.Value{}, cyclicSchema(s.Name(), prop.Name, p, len(path), "mandatory self reference has no configured values")
			}
			e.logger.Debug("self reference not configured", "schema", s.Name(), "property", prop.Name, "parameter", p)
			return missing, nil
		}
	}

	m, err := e.extract(nested, p, path)
	if err != nil {
		var mp *MissingParameterError
		if !mandatory && goerrors.As(err, &mp) {
			e.logger.Debug("group missing", "schema", s.Name(), "property", prop.Name, "parameter", p, "cause", mp.Parameter)
			return missing, nil
		}
		return resolved.Value{}, err
	}
	return resolved.Value{Value: m, Status: resolved.Configured, Sensitive: sensitive}, nil
}
