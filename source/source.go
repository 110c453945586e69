// Package source provides the lookups an extraction reads raw values from.
//
// A Source answers one question: is there a raw string for this Parameter?
// Sources are combined with Chain, which consults them in order and returns
// the first hit. Sources backed by files or flag sets load everything up
// front and answer from an immutable snapshot.
package source

import (
	"github.com/goliatone/go-confbind/param"
)

// Source looks up the raw value of a parameter.
type Source interface {
	Lookup(p param.Parameter) (string, bool)
}

// Prefixed is implemented by sources that can tell whether any key lives at
// or below a parameter. Extraction uses it to stop walking self-referential
// schemas once nothing more is configured.
type Prefixed interface {
	HasPrefix(prefix param.Parameter) bool
}

// HasPrefix asks src whether any key lives at or below prefix. The second
// result is false when src cannot answer.
func HasPrefix(src Source, prefix param.Parameter) (found, known bool) {
	p, ok := src.(Prefixed)
	if !ok {
		return false, false
	}
	return p.HasPrefix(prefix), true
}

// Checked is implemented by sources whose lookups can fail after a value
// was found. The boolean is true when a raw value existed.
type Checked interface {
	LookupChecked(p param.Parameter) (string, bool, error)
}

// Get looks p up in src, reporting the failures of Checked sources that
// Lookup would hide.
func Get(src Source, p param.Parameter) (string, bool, error) {
	if c, ok := src.(Checked); ok {
		return c.LookupChecked(p)
	}
	v, ok := src.Lookup(p)
	return v, ok, nil
}

// Func adapts a function to Source.
type Func func(p param.Parameter) (string, bool)

func (f Func) Lookup(p param.Parameter) (string, bool) {
	return f(p)
}

type chain struct {
	sources []Source
}

// Chain returns a Source consulting srcs in order. Nil entries are skipped.
func Chain(srcs ...Source) Source {
	c := &chain{}
	for _, src := range srcs {
		if src != nil {
			c.sources = append(c.sources, src)
		}
	}
	return c
}

func (c *chain) Lookup(p param.Parameter) (string, bool) {
	v, ok, err := c.LookupChecked(p)
	return v, ok && err == nil
}

// LookupChecked stops at the first member that has a value, including one
// that failed to produce it.
func (c *chain) LookupChecked(p param.Parameter) (string, bool, error) {
	for _, src := range c.sources {
		if v, ok, err := Get(src, p); ok || err != nil {
			return v, ok, err
		}
	}
	return "", false, nil
}

// HasPrefix is true when any member reports a key under prefix. It is false
// only when every member can answer and none has one; a member that cannot
// answer makes the chain answer true so walking continues.
func (c *chain) HasPrefix(prefix param.Parameter) bool {
	for _, src := range c.sources {
		found, known := HasPrefix(src, prefix)
		if found || !known {
			return true
		}
	}
	return false
}
