package source

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/goliatone/go-confbind/param"
	"github.com/knadh/koanf/v2"
)

// Snapshot is an immutable set of raw values keyed by Parameter. File,
// flag, struct and map sources all answer from one.
type Snapshot struct {
	values map[param.Parameter]string
}

func (s *Snapshot) Lookup(p param.Parameter) (string, bool) {
	v, ok := s.values[p]
	return v, ok
}

func (s *Snapshot) HasPrefix(prefix param.Parameter) bool {
	for p := range s.values {
		if p.HasPrefix(prefix) {
			return true
		}
	}
	return false
}

// Parameters returns the snapshot keys in ENV_STYLE order.
func (s *Snapshot) Parameters() []param.Parameter {
	out := make([]param.Parameter, 0, len(s.values))
	for p := range s.values {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b param.Parameter) int {
		return strings.Compare(a.EnvName(), b.EnvName())
	})
	return out
}

func (s *Snapshot) Len() int {
	return len(s.values)
}

// Map returns a source over a property map. Keys are canonicalized, so
// "db.host", "DB_HOST" and "db_host" name the same parameter. Keys that
// are not valid parameters are ignored.
func Map(values map[string]string) *Snapshot {
	s := &Snapshot{values: make(map[param.Parameter]string, len(values))}
	for key, v := range values {
		if p, err := param.New(key); err == nil {
			s.values[p] = v
		}
	}
	return s
}

// Koanf snapshots the flattened keys of k. Dashes in keys are read as
// underscores, scalars are stringified and lists are joined with the
// array delimiter. Later changes to k are not seen.
func Koanf(k *koanf.Koanf, opts ...Option) *Snapshot {
	o := newOptions(opts...)
	return snapshotKoanf(k, o)
}

func snapshotKoanf(k *koanf.Koanf, o *options) *Snapshot {
	s := &Snapshot{values: make(map[param.Parameter]string)}
	if k == nil {
		return s
	}

	for key, v := range k.All() {
		name := strings.ReplaceAll(key, "-", "_")
		if delim := k.Delim(); delim != "." {
			name = strings.ReplaceAll(name, delim, ".")
		}
		p, err := param.New(name)
		if err != nil {
			o.logger.Debug("skipping key", "key", key, "error", err)
			continue
		}
		raw, ok := stringify(v, o.delimiter)
		if !ok {
			o.logger.Debug("skipping value", "key", key, "type", fmt.Sprintf("%T", v))
			continue
		}
		s.values[p] = raw
	}
	return s
}

// stringify renders a decoded config value the way it would have been
// written in an environment variable.
func stringify(v any, delim string) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case fmt.Stringer:
		return x.String(), true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())
		for i := range rv.Len() {
			part, ok := stringify(rv.Index(i).Interface(), delim)
			if !ok {
				return "", false
			}
			parts = append(parts, part)
		}
		return strings.Join(parts, delim), true
	case reflect.Map, reflect.Struct, reflect.Func, reflect.Chan:
		return "", false
	}
	return fmt.Sprint(v), true
}

var _ Prefixed = (*Snapshot)(nil)
