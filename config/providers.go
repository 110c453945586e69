package config

import (
	"context"
	goerrors "errors"
	"os"
	"syscall"

	"github.com/goliatone/go-confbind/source"
	"github.com/goliatone/go-errors"
	"github.com/spf13/pflag"
)

type ProviderBuilder[C any] func(*Container[C]) (Provider, error)

type ProviderType string

// Provider opens one source of raw values for a Load. Providers with a
// higher priority are consulted first.
type Provider interface {
	Type() ProviderType
	Priority() int
	Validate() error
	Open(context.Context) (source.Source, error)
}

type Loader struct {
	order        int
	providerType ProviderType
	open         func(context.Context) (source.Source, error)
}

func (l *Loader) Priority() int {
	return l.order
}

func (l *Loader) Type() ProviderType {
	return l.providerType
}

func (l *Loader) Open(ctx context.Context) (source.Source, error) {
	return l.open(ctx)
}

func (l *Loader) Validate() error {
	return l.providerType.validate()
}

const (
	ProviderTypeDefault    ProviderType = "default"
	ProviderTypeLocalFile  ProviderType = "file"
	ProviderTypeDotenv     ProviderType = "dotenv"
	ProviderTypeEnv        ProviderType = "env"
	ProviderTypeProperties ProviderType = "properties"
	ProviderTypeFlag       ProviderType = "pflag"
	ProviderTypeStruct     ProviderType = "struct"
)

var validProviderTypes = []ProviderType{
	ProviderTypeDefault,
	ProviderTypeLocalFile,
	ProviderTypeDotenv,
	ProviderTypeEnv,
	ProviderTypeProperties,
	ProviderTypeFlag,
	ProviderTypeStruct,
}

type Priority int

// container.WithProvider(FileProvider[C]("config.json", PriorityConfig.WithOffset(-5))) // 15
// container.WithProvider(FileProvider[C]("local.json", PriorityConfig.WithOffset(5)))   // 25
func (p Priority) WithOffset(offset int) int {
	return int(p) + offset
}

var (
	PriorityDefaults   Priority = 0
	PriorityStruct     Priority = 10
	PriorityConfig     Priority = 20
	PriorityEnv        Priority = 30
	PriorityProperties Priority = 35
	PriorityFlags      Priority = 40
)

// DefaultEnvPrefix is prepended to variable names by the env provider the
// container falls back to. Schemas carry their own prefix, so it is empty.
var DefaultEnvPrefix = ""

func (p ProviderType) String() string {
	return string(p)
}

func (p ProviderType) validate() error {
	for _, valid := range validProviderTypes {
		if p == valid {
			return nil
		}
	}
	names := make([]string, 0, len(validProviderTypes))
	for _, valid := range validProviderTypes {
		names = append(names, string(valid))
	}
	return errors.New("invalid loader type", errors.CategoryValidation).
		WithTextCode("INVALID_LOADER_TYPE").
		WithMetadata(map[string]any{
			"loader_type": string(p),
			"valid_types": names,
		})
}

// DefaultValuesProvider serves a nested literal map, e.g.
// {"db": {"host": "localhost"}} answers for db.host.
func DefaultValuesProvider[C any](def map[string]any, order ...int) ProviderBuilder[C] {
	return func(c *Container[C]) (Provider, error) {
		return &Loader{
			providerType: ProviderTypeDefault,
			order:        getOrder(PriorityDefaults, order...),
			open: func(ctx context.Context) (source.Source, error) {
				s, err := source.Static(def, c.sourceOptions()...)
				if err != nil {
					return nil, err
				}
				c.logger.Debug("default values provider", "values_count", s.Len())
				return s, nil
			},
		}, nil
	}
}

// PropertiesProvider serves flat properties keyed in dotted or ENV_STYLE.
// It sits above env, the way JVM system properties override the
// environment.
func PropertiesProvider[C any](props map[string]string, order ...int) ProviderBuilder[C] {
	return func(c *Container[C]) (Provider, error) {
		return &Loader{
			providerType: ProviderTypeProperties,
			order:        getOrder(PriorityProperties, order...),
			open: func(ctx context.Context) (source.Source, error) {
				c.logger.Debug("properties provider", "values_count", len(props))
				return source.Map(props), nil
			},
		}, nil
	}
}

func FileProvider[C any](filepath string, order ...int) ProviderBuilder[C] {
	filetype := source.InferFileType(filepath)

	return func(c *Container[C]) (Provider, error) {
		if err := filetype.Valid(); err != nil {
			return nil, err
		}
		return &Loader{
			providerType: ProviderTypeLocalFile,
			order:        getOrder(PriorityConfig, order...),
			open: func(ctx context.Context) (source.Source, error) {
				c.logger.Debug("file provider", "filepath", filepath, "file_type", filetype)
				return source.File(filepath, c.sourceOptions()...)
			},
		}, nil
	}
}

// DotenvProvider reads a dotenv file. It ranks with config files, below
// the real environment.
func DotenvProvider[C any](filepath string, order ...int) ProviderBuilder[C] {
	return func(c *Container[C]) (Provider, error) {
		return &Loader{
			providerType: ProviderTypeDotenv,
			order:        getOrder(PriorityConfig, order...),
			open: func(ctx context.Context) (source.Source, error) {
				c.logger.Debug("dotenv provider", "filepath", filepath)
				return source.Dotenv(filepath, c.sourceOptions()...)
			},
		}, nil
	}
}

// EnvProvider looks parameters up in the environment as prefix+ENV_NAME,
// e.g. "APP_" finds db.host in APP_DB_HOST.
func EnvProvider[C any](prefix string, order ...int) ProviderBuilder[C] {
	return func(c *Container[C]) (Provider, error) {
		return &Loader{
			providerType: ProviderTypeEnv,
			order:        getOrder(PriorityEnv, order...),
			open: func(ctx context.Context) (source.Source, error) {
				c.logger.Debug("env provider", "prefix", prefix)
				return source.EnvWithPrefix(prefix), nil
			},
		}, nil
	}
}

// FlagsProvider serves the flags set on the command line. Flags left at
// their default are not reported, so lower priority providers still apply.
func FlagsProvider[C any](flagset *pflag.FlagSet, order ...int) ProviderBuilder[C] {
	return func(c *Container[C]) (Provider, error) {
		if flagset == nil {
			return &Loader{}, errors.New("flagset cannot be nil", errors.CategoryBadInput).
				WithTextCode("NIL_FLAGSET")
		}
		return &Loader{
			providerType: ProviderTypeFlag,
			order:        getOrder(PriorityFlags, order...),
			open: func(ctx context.Context) (source.Source, error) {
				c.logger.Debug("flags provider")
				return source.Flags(flagset, c.sourceOptions()...)
			},
		}, nil
	}
}

// StructProvider serves the fields of v, named by their koanf tags.
func StructProvider[C any](v any, order ...int) ProviderBuilder[C] {
	if v == nil {
		return func(c *Container[C]) (Provider, error) {
			return &Loader{}, errors.New("struct cannot be nil", errors.CategoryBadInput).
				WithTextCode("NIL_STRUCT")
		}
	}

	return func(c *Container[C]) (Provider, error) {
		return &Loader{
			providerType: ProviderTypeStruct,
			order:        getOrder(PriorityStruct, order...),
			open: func(ctx context.Context) (source.Source, error) {
				c.logger.Debug("struct provider")
				return source.Struct(v, "koanf", c.sourceOptions()...)
			},
		}, nil
	}
}

type ErrorFilter func(err error) bool

func DefaultErrorFilter(allowedErrors ...error) ErrorFilter {
	return func(err error) bool {
		if err == nil {
			return false
		}

		if len(allowedErrors) == 0 {
			// ignore absent files but surface other errors i.e. JSON parsing blow up
			return os.IsNotExist(err) || goerrors.Is(err, os.ErrNotExist) || goerrors.Is(err, syscall.ENOENT)
		}

		for _, allowed := range allowedErrors {
			if goerrors.Is(err, allowed) {
				return true
			}
		}
		return false
	}
}

// OptionalProvider wraps a provider so that errors accepted by the filter,
// by default a missing file, yield an empty source instead.
func OptionalProvider[C any](f ProviderBuilder[C], errIgnoreFuncs ...ErrorFilter) ProviderBuilder[C] {
	errIgnore := DefaultErrorFilter()
	if len(errIgnoreFuncs) > 0 && errIgnoreFuncs[0] != nil {
		errIgnore = errIgnoreFuncs[0]
	}

	return func(c *Container[C]) (Provider, error) {
		baseProvider, err := f(c)
		if err != nil {
			return &Loader{}, err
		}

		return &Loader{
			providerType: baseProvider.Type(),
			order:        baseProvider.Priority(),
			open: func(ctx context.Context) (source.Source, error) {
				src, err := baseProvider.Open(ctx)
				if err == nil {
					return src, nil
				}
				if !errIgnore(err) {
					return nil, err
				}
				if c != nil {
					c.logger.Debug("optional provider skipped", "source_type", baseProvider.Type(), "error", err)
				}
				return source.Map(nil), nil
			},
		}, nil
	}
}

func getOrder(defaultOrder Priority, orders ...int) int {
	if len(orders) > 0 {
		return orders[0]
	}
	return int(defaultOrder)
}
