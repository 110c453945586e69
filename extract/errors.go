package extract

import (
	goerrors "errors"
	"fmt"

	"github.com/goliatone/go-confbind/param"
	"github.com/goliatone/go-confbind/parser"
	"github.com/goliatone/go-errors"
)

var (
	// ErrMissingParameter is matched by MissingParameterError.
	ErrMissingParameter = goerrors.New("extract: missing mandatory parameter")
	// ErrConfiguration is matched by ConfigurationError.
	ErrConfiguration = goerrors.New("extract: invalid configuration declaration")
	// ErrCyclicSchema is matched by CyclicSchemaError.
	ErrCyclicSchema = goerrors.New("extract: cyclic schema")
)

const (
	CodeMissingParameter = "MISSING_PARAMETER"
	CodeInvalidValue     = "INVALID_PARAMETER_VALUE"
	CodeNestedDefault    = "NESTED_DEFAULT"
	CodeCyclicSchema     = "CYCLIC_SCHEMA"
)

// MissingParameterError reports a mandatory property without a value or a
// default.
type MissingParameterError struct {
	Schema    string
	Property  string
	Parameter param.Parameter
	Err       *errors.Error
}

func (e *MissingParameterError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("missing mandatory parameter %s (%s.%s)", e.Parameter, e.Schema, e.Property)
}

func (e *MissingParameterError) Unwrap() error {
	if e == nil || e.Err == nil {
		return nil
	}
	return e.Err
}

func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// UnsupportedTypeError reports a property whose type has no parser and is
// not a group.
type UnsupportedTypeError struct {
	Schema   string
	Property string
	Type     string
	// Cause is the registry failure, when there was one.
	Cause error
	Err   *errors.Error
}

func (e *UnsupportedTypeError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("Cannot parse value of type %s (%s.%s)", e.Type, e.Schema, e.Property)
}

func (e *UnsupportedTypeError) Unwrap() error {
	if e == nil || e.Err == nil {
		return nil
	}
	return e.Err
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == parser.ErrUnsupportedType
}

// ParseValueError reports a raw value that does not parse as the declared
// type of its property, or that a string transformer rejected.
type ParseValueError struct {
	Schema    string
	Property  string
	Parameter param.Parameter
	Err       *errors.Error
}

func (e *ParseValueError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("invalid value for parameter %s (%s.%s)", e.Parameter, e.Schema, e.Property)
	}
	return fmt.Sprintf("invalid value for parameter %s (%s.%s): %v", e.Parameter, e.Schema, e.Property, e.Err.Source)
}

// Unwrap exposes the categorized error, whose source is the
// *parser.ParseError or the *source.TransformError.
func (e *ParseValueError) Unwrap() error {
	if e == nil || e.Err == nil {
		return nil
	}
	return e.Err
}

func (e *ParseValueError) Is(target error) bool {
	return target == parser.ErrParse
}

// ConfigurationError reports a declaration that can never be extracted,
// regardless of what the sources hold.
type ConfigurationError struct {
	Schema   string
	Property string
	Err      *errors.Error
}

func (e *ConfigurationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s.%s)", e.Err.Message, e.Schema, e.Property)
}

func (e *ConfigurationError) Unwrap() error {
	if e == nil || e.Err == nil {
		return nil
	}
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// CyclicSchemaError reports a self-referential schema whose walk cannot
// terminate: a mandatory back reference with nothing configured below it,
// or nesting deeper than the configured limit.
type CyclicSchemaError struct {
	Schema    string
	Property  string
	Parameter param.Parameter
	Depth     int
	Err       *errors.Error
}

func (e *CyclicSchemaError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s at %s (%s.%s, depth %d)", e.Err.Message, e.Parameter, e.Schema, e.Property, e.Depth)
}

func (e *CyclicSchemaError) Unwrap() error {
	if e == nil || e.Err == nil {
		return nil
	}
	return e.Err
}

func (e *CyclicSchemaError) Is(target error) bool {
	return target == ErrCyclicSchema
}

func missingParameter(schema, property string, p param.Parameter) *MissingParameterError {
	return &MissingParameterError{
		Schema:    schema,
		Property:  property,
		Parameter: p,
		Err: errors.New("missing mandatory parameter", errors.CategoryValidation).
			WithTextCode(CodeMissingParameter).
			WithMetadata(metadata(schema, property, p)),
	}
}

func unsupportedType(schema, property, typ string, cause error) *UnsupportedTypeError {
	return &UnsupportedTypeError{
		Schema:   schema,
		Property: property,
		Type:     typ,
		Cause:    cause,
		Err: errors.New("unsupported property type", errors.CategoryBadInput).
			WithTextCode(parser.CodeUnsupportedType).
			WithMetadata(map[string]any{
				"schema":   schema,
				"property": property,
				"type":     typ,
			}),
	}
}

func parseValue(schema, property string, p param.Parameter, cause error) *ParseValueError {
	return &ParseValueError{
		Schema:    schema,
		Property:  property,
		Parameter: p,
		Err: errors.Wrap(cause, errors.CategoryBadInput, "invalid parameter value").
			WithTextCode(CodeInvalidValue).
			WithMetadata(metadata(schema, property, p)),
	}
}

func nestedDefault(schema, property string) *ConfigurationError {
	return &ConfigurationError{
		Schema:   schema,
		Property: property,
		Err: errors.New("Default values are not applicable to nested configuration", errors.CategoryValidation).
			WithTextCode(CodeNestedDefault).
			WithMetadata(map[string]any{
				"schema":   schema,
				"property": property,
			}),
	}
}

func cyclicSchema(schema, property string, p param.Parameter, depth int, reason string) *CyclicSchemaError {
	md := metadata(schema, property, p)
	md["depth"] = depth
	return &CyclicSchemaError{
		Schema:    schema,
		Property:  property,
		Parameter: p,
		Depth:     depth,
		Err: errors.New(reason, errors.CategoryValidation).
			WithTextCode(CodeCyclicSchema).
			WithMetadata(md),
	}
}

func metadata(schema, property string, p param.Parameter) map[string]any {
	return map[string]any{
		"schema":    schema,
		"property":  property,
		"parameter": p.EnvName(),
	}
}
