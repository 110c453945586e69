package schema

import (
	goerrors "errors"
	"fmt"

	"github.com/goliatone/go-errors"
)

// ErrDeclaration is matched by every DeclarationError via errors.Is.
var ErrDeclaration = goerrors.New("schema: invalid declaration")

const (
	CodeIllegalOverride    = "ILLEGAL_OVERRIDE"
	CodeMalformedProperty  = "MALFORMED_PROPERTY"
	CodeDuplicateProperty  = "DUPLICATE_PROPERTY"
	CodeCyclicInheritance  = "CYCLIC_INHERITANCE"
	CodeInvalidGroupPrefix = "INVALID_GROUP_PREFIX"
)

// DeclarationError reports a schema that cannot be walked as declared.
type DeclarationError struct {
	Schema   string
	Property string
	Reason   string
	Err      *errors.Error
}

func (e *DeclarationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Property == "" {
		return fmt.Sprintf("schema %s: %s", e.Schema, e.Reason)
	}
	return fmt.Sprintf("schema %s: property %s: %s", e.Schema, e.Property, e.Reason)
}

func (e *DeclarationError) Unwrap() error {
	if e == nil || e.Err == nil {
		return nil
	}
	return e.Err
}

func (e *DeclarationError) Is(target error) bool {
	return target == ErrDeclaration
}

// Code returns the text code of the underlying categorized error.
func (e *DeclarationError) Code() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.TextCode
}

func declarationError(code, schema, property, reason string) *DeclarationError {
	return &DeclarationError{
		Schema:   schema,
		Property: property,
		Reason:   reason,
		Err: errors.New(reason, errors.CategoryValidation).
			WithTextCode(code).
			WithMetadata(map[string]any{
				"schema":   schema,
				"property": property,
			}),
	}
}
