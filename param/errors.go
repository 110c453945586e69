package param

import (
	goerrors "errors"
	"fmt"

	"github.com/goliatone/go-errors"
)

// ErrNaming is matched by every NamingError via errors.Is.
var ErrNaming = goerrors.New("param: invalid name")

const (
	codeInvalidParameter = "INVALID_PARAMETER_NAME"
	codeMalformedName    = "MALFORMED_PROPERTY_NAME"
)

// NamingError reports a parameter or property name that cannot be turned
// into a Parameter.
type NamingError struct {
	Input  string
	Reason string
	Err    *errors.Error
}

func (e *NamingError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("invalid name %q: %s", e.Input, e.Reason)
}

// Unwrap exposes the categorized error so callers can read its text code.
func (e *NamingError) Unwrap() error {
	if e == nil || e.Err == nil {
		return nil
	}
	return e.Err
}

func (e *NamingError) Is(target error) bool {
	return target == ErrNaming
}

func namingError(code, input, reason string) *NamingError {
	return &NamingError{
		Input:  input,
		Reason: reason,
		Err: errors.New(reason, errors.CategoryValidation).
			WithTextCode(code).
			WithMetadata(map[string]any{
				"input": input,
			}),
	}
}
