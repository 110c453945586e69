package source

import (
	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/spf13/pflag"
)

// Flags snapshots the flags of fs that were set on the command line. Flag
// names may use dots or dashes, so --db-host and --db.host both answer for
// db.host. Slice flags are joined with the array delimiter.
func Flags(fs *pflag.FlagSet, opts ...Option) (*Snapshot, error) {
	if fs == nil {
		return nil, errors.New("flagset cannot be nil", errors.CategoryBadInput).
			WithTextCode("NIL_FLAGSET")
	}
	o := newOptions(opts...)
	s, err := loadKoanf(posflag.Provider(fs, ".", nil), o, false,
		"FLAGS_LOAD_FAILED", "failed to load configuration from posix flags")
	if err != nil {
		return nil, err
	}
	o.logger.Debug("flags source loaded", "keys", s.Len())
	return s, nil
}

// Struct snapshots the fields of v, named by tag. Nested structs produce
// dotted keys.
func Struct(v any, tag string, opts ...Option) (*Snapshot, error) {
	if v == nil {
		return nil, errors.New("struct cannot be nil", errors.CategoryBadInput).
			WithTextCode("NIL_STRUCT")
	}
	if tag == "" {
		tag = "koanf"
	}
	o := newOptions(opts...)
	return loadKoanf(structs.Provider(v, tag), o, false,
		"STRUCT_LOAD_FAILED", "failed to load configuration from struct")
}

// Static snapshots a nested literal map. String values are interpolated
// like file contents.
func Static(values map[string]any, opts ...Option) (*Snapshot, error) {
	o := newOptions(opts...)
	return loadKoanf(confmap.Provider(values, "."), o, true,
		"DEFAULT_VALUES_LOAD_FAILED", "failed to load default values")
}
