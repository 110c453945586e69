package parser

import (
	goerrors "errors"
	"fmt"
	"reflect"

	"github.com/goliatone/go-errors"
)

var (
	// ErrUnsupportedType is matched by errors for types no parser can handle.
	ErrUnsupportedType = goerrors.New("parser: unsupported type")
	// ErrParse is matched by errors for raw values that do not parse.
	ErrParse = goerrors.New("parser: invalid value")
	// ErrUnknownConstant is wrapped by enum parse failures.
	ErrUnknownConstant = goerrors.New("unknown constant")
)

const CodeUnsupportedType = "UNSUPPORTED_TYPE"

// UnsupportedTypeError reports a type without an exact, enum, array or
// factory parser.
type UnsupportedTypeError struct {
	Type   reflect.Type
	Reason string
	Err    *errors.Error
}

func (e *UnsupportedTypeError) Error() string {
	if e == nil {
		return ""
	}
	if e.Reason != "" {
		return fmt.Sprintf("no parser for type %s: %s", typeName(e.Type), e.Reason)
	}
	return fmt.Sprintf("no parser for type %s", typeName(e.Type))
}

func (e *UnsupportedTypeError) Unwrap() error {
	if e == nil || e.Err == nil {
		return nil
	}
	return e.Err
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

func unsupported(t reflect.Type, reason string) *UnsupportedTypeError {
	return &UnsupportedTypeError{
		Type:   t,
		Reason: reason,
		Err: errors.New("unsupported type", errors.CategoryBadInput).
			WithTextCode(CodeUnsupportedType).
			WithMetadata(map[string]any{
				"type": typeName(t),
			}),
	}
}

// ParseError reports a raw string that is malformed for its target type.
type ParseError struct {
	Type reflect.Type
	Raw  string
	Err  error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("cannot parse %q as %s: %v", e.Raw, typeName(e.Type), e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func parseError(t reflect.Type, raw string, err error) error {
	var perr *ParseError
	if goerrors.As(err, &perr) {
		return err
	}
	return &ParseError{Type: t, Raw: raw, Err: err}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
