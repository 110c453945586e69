package source

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-confbind/param"
)

// StringTransformer rewrites a raw value before it is parsed.
type StringTransformer func(string) (string, error)

func TrimSpace(value string) (string, error) {
	return strings.TrimSpace(value), nil
}

func ToLower(value string) (string, error) {
	return strings.ToLower(value), nil
}

func ToUpper(value string) (string, error) {
	return strings.ToUpper(value), nil
}

func EnsureLeadingSlash(value string) (string, error) {
	if value == "" || strings.HasPrefix(value, "/") {
		return value, nil
	}
	return "/" + value, nil
}

type transformed struct {
	src          Source
	transformers []StringTransformer
}

// TransformError reports a transformer that rejected the raw value of a
// parameter.
type TransformError struct {
	Parameter param.Parameter
	// Index is the position of the failing transformer.
	Index int
	Raw   string
	Err   error
}

func (e *TransformError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("transformer %d rejected %q for %s: %v", e.Index, e.Raw, e.Parameter, e.Err)
}

func (e *TransformError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Transform applies transformers, in order, to every value src finds. A
// transformer error is reported by Get as a *TransformError; plain Lookup
// reports it as a miss.
func Transform(src Source, transformers ...StringTransformer) Source {
	return &transformed{src: src, transformers: transformers}
}

func (t *transformed) Lookup(p param.Parameter) (string, bool) {
	v, ok, err := t.LookupChecked(p)
	return v, ok && err == nil
}

func (t *transformed) LookupChecked(p param.Parameter) (string, bool, error) {
	raw, ok, err := Get(t.src, p)
	if !ok || err != nil {
		return "", ok, err
	}
	v := raw
	for i, fn := range t.transformers {
		if fn == nil {
			continue
		}
		if v, err = fn(v); err != nil {
			return "", true, &TransformError{Parameter: p, Index: i, Raw: raw, Err: err}
		}
	}
	return v, true, nil
}

func (t *transformed) HasPrefix(prefix param.Parameter) bool {
	found, known := HasPrefix(t.src, prefix)
	return found || !known
}

var _ Checked = (*transformed)(nil)
