// Package param defines Parameter, the canonical identity of a configuration
// key, and derives parameters from property names.
//
// A Parameter is case and separator insensitive: "foo.bar", "FOO_BAR" and
// "Foo_Bar" are the same key. It renders in two styles, ENV_STYLE for
// environment lookups and dotted.style for property maps and files.
package param

import (
	"regexp"
	"strings"
)

var validName = regexp.MustCompile(`^[\p{L}\d]+([._][\p{L}\d]+)*$`)

// Parameter is an immutable, comparable configuration key.
type Parameter struct {
	env string
}

// New validates name against the parameter grammar.
func New(name string) (Parameter, error) {
	if !validName.MatchString(name) {
		return Parameter{}, namingError(codeInvalidParameter, name, "invalid name format")
	}
	return Parameter{env: toEnv(name)}, nil
}

// MustNew is like New but panics on an invalid name.
func MustNew(name string) Parameter {
	p, err := New(name)
	if err != nil {
		panic(err)
	}
	return p
}

// Join appends leaf to prefix. A zero prefix returns leaf unchanged.
func Join(prefix, leaf Parameter) Parameter {
	if prefix.IsZero() {
		return leaf
	}
	if leaf.IsZero() {
		return prefix
	}
	return Parameter{env: prefix.env + "_" + leaf.env}
}

// EnvName renders the parameter as FOO_BAR.
func (p Parameter) EnvName() string {
	return p.env
}

// Dotted renders the parameter as foo.bar.
func (p Parameter) Dotted() string {
	return strings.ReplaceAll(strings.ToLower(p.env), "_", ".")
}

// IsZero reports whether p is the empty parameter.
func (p Parameter) IsZero() bool {
	return p.env == ""
}

// Equal reports whether both parameters have the same environment name.
func (p Parameter) Equal(other Parameter) bool {
	return p.env == other.env
}

// HasPrefix reports whether p is prefix itself or lives below it.
func (p Parameter) HasPrefix(prefix Parameter) bool {
	if prefix.IsZero() {
		return true
	}
	return p.env == prefix.env || strings.HasPrefix(p.env, prefix.env+"_")
}

// String returns the environment variable name.
func (p Parameter) String() string {
	return p.env
}

func toEnv(name string) string {
	return strings.ReplaceAll(strings.ToUpper(name), ".", "_")
}
