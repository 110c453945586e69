package config

import (
	"context"
	goerrors "errors"
	"fmt"
	"io/fs"
	"reflect"
	"slices"
	"time"

	"github.com/goliatone/go-confbind/cfgx"
	"github.com/goliatone/go-confbind/extract"
	"github.com/goliatone/go-confbind/logger"
	"github.com/goliatone/go-confbind/parser"
	"github.com/goliatone/go-confbind/redact"
	"github.com/goliatone/go-confbind/resolved"
	"github.com/goliatone/go-confbind/schema"
	"github.com/goliatone/go-confbind/source"
	"github.com/goliatone/go-errors"
)

var (
	DefaultConfigFilepath = "config/app.json"
	DefaultLoadTimeout    = 30 * time.Second
	// DefaultTagName is the struct tag Load decodes through.
	DefaultTagName = cfgx.DefaultTagName
)

// Validator runs against the decoded struct after Load.
type Validator[C any] func(C) error

// Container binds a schema to a Go struct. Load opens the providers,
// extracts the schema against them and decodes the result into the base
// value given to New.
type Container[C any] struct {
	schema        *schema.Schema
	base          C
	values        *resolved.Map
	registry      *parser.Registry
	providers     []Provider
	loaders       []ProviderBuilder[C]
	transformers  []source.StringTransformer
	validators    []Validator[C]
	mustValidate  bool
	strictDecode  bool
	loadTimeout   time.Duration
	configPath    string
	maxDepth      int
	solverPasses  int
	solvers       []source.Solver
	customSolvers bool
	fsys          fs.FS
	logger        logger.Logger
}

// New returns a container for s. When base is a pointer, Load decodes into
// the value it points to.
func New[C any](s *schema.Schema, base C) *Container[C] {
	return &Container[C]{
		schema:       s,
		base:         base,
		registry:     parser.Default(),
		mustValidate: true,
		loadTimeout:  DefaultLoadTimeout,
		configPath:   DefaultConfigFilepath,
		maxDepth:     extract.DefaultMaxDepth,
		solverPasses: 1,
		logger:       logger.NewDefaultLogger("config"),
	}
}

// Apply runs opts in order, stopping at the first error.
func (c *Container[C]) Apply(opts ...Option[C]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// WithValidation toggles the Validate() error check on the decoded struct
// and the registered validators.
func (c *Container[C]) WithValidation(v bool) *Container[C] {
	c.mustValidate = v
	return c
}

// WithStrictDecode fails Load when a resolved property has no matching
// struct field.
func (c *Container[C]) WithStrictDecode(enabled bool) *Container[C] {
	c.strictDecode = enabled
	return c
}

func (c *Container[C]) WithValidator(validators ...Validator[C]) *Container[C] {
	for _, validator := range validators {
		if validator != nil {
			c.validators = append(c.validators, validator)
		}
	}
	return c
}

func (c *Container[C]) WithTimeout(timeout time.Duration) *Container[C] {
	c.loadTimeout = timeout
	return c
}

// WithConfigPath sets the file loaded when no provider is configured. An
// empty path disables it.
func (c *Container[C]) WithConfigPath(p string) *Container[C] {
	c.configPath = p
	return c
}

func (c *Container[C]) WithRegistry(reg *parser.Registry) *Container[C] {
	if reg != nil {
		c.registry = reg
	}
	return c
}

// WithMaxDepth bounds group nesting during extraction.
func (c *Container[C]) WithMaxDepth(depth int) *Container[C] {
	if depth > 0 {
		c.maxDepth = depth
	}
	return c
}

// WithSolvers replaces the interpolation solvers file and default value
// providers run. Passing none disables interpolation.
func (c *Container[C]) WithSolvers(slvrs ...source.Solver) *Container[C] {
	c.solvers = append([]source.Solver{}, slvrs...)
	c.customSolvers = true
	return c
}

// WithSolverPasses sets the maximum number of solver passes (minimum 1).
func (c *Container[C]) WithSolverPasses(passes int) *Container[C] {
	if passes < 1 {
		passes = 1
	}
	c.solverPasses = passes
	return c
}

// WithFS sets the file system @file:// references resolve against.
func (c *Container[C]) WithFS(fsys fs.FS) *Container[C] {
	c.fsys = fsys
	return c
}

// WithStringTransformers rewrites every raw value the providers return,
// before it is parsed.
func (c *Container[C]) WithStringTransformers(transformers ...source.StringTransformer) *Container[C] {
	c.transformers = append(c.transformers, transformers...)
	return c
}

func (c *Container[C]) WithLogger(l logger.Logger) *Container[C] {
	if l != nil {
		c.logger = l
	}
	return c
}

func (c *Container[C]) WithProvider(factories ...ProviderBuilder[C]) *Container[C] {
	for _, factory := range factories {
		if factory != nil {
			c.loaders = append(c.loaders, factory)
		}
	}
	return c
}

func (c *Container[C]) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
}

func (c *Container[C]) LoadWithDefaults() error {
	return c.Load(context.Background())
}

// Load resolves the schema and decodes it into the base value. Extraction
// failures are returned as the typed errors of package extract, so callers
// can match them with errors.As.
func (c *Container[C]) Load(ctx context.Context) error {
	if c.schema == nil {
		return errors.New("container has no schema", errors.CategoryBadInput).
			WithTextCode("NIL_SCHEMA")
	}

	ctx, cancel := context.WithTimeout(ctx, c.loadTimeout)
	defer cancel()

	if err := c.buildProviders(); err != nil {
		return err
	}

	src, err := c.open(ctx)
	if err != nil {
		return err
	}

	ex := extract.New(c.registry, src,
		extract.WithLogger(c.logger),
		extract.WithMaxDepth(c.maxDepth),
	)
	values, err := ex.Extract(c.schema)
	if err != nil {
		c.logger.Error("configuration extraction failed", "schema", c.schema.Name(), "error", err)
		return err
	}

	decoded, err := cfgx.Build[C](values, c.buildOptions()...)
	if err != nil {
		if goerrors.Is(err, cfgx.ErrValidate) {
			return errors.Wrap(err, errors.CategoryValidation, "configuration validation failed").
				WithTextCode("CONFIG_VALIDATION_FAILED").
				WithMetadata(map[string]any{"schema": c.schema.Name()})
		}
		return errors.Wrap(err, errors.CategoryOperation, "failed to unmarshal configuration data").
			WithTextCode("CONFIG_UNMARSHAL_FAILED").
			WithMetadata(map[string]any{
				"schema":   c.schema.Name(),
				"tag_name": DefaultTagName,
				"strict":   c.strictDecode,
			})
	}

	c.assignBase(decoded)
	c.values = values
	c.logger.Debug("configuration loaded", "schema", c.schema.Name(), "config", redact.Format(values))
	return nil
}

func (c *Container[C]) buildProviders() error {
	c.providers = nil
	for i, factory := range c.loaders {
		provider, err := factory(c)
		if err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "failed to create provider").
				WithTextCode("PROVIDER_CREATION_FAILED").
				WithMetadata(map[string]any{
					"factory_index":   i,
					"total_factories": len(c.loaders),
				})
		}
		c.providers = append(c.providers, provider)
	}

	if len(c.providers) > 0 {
		return nil
	}

	c.logger.Debug("no providers specified, loading default providers...")
	defaults := []ProviderBuilder[C]{EnvProvider[C](DefaultEnvPrefix)}
	if c.configPath != "" {
		defaults = append(defaults, OptionalProvider(FileProvider[C](c.configPath)))
	}
	for _, factory := range defaults {
		provider, err := factory(c)
		if err != nil {
			return errors.Wrap(err, errors.CategoryOperation, "failed to create default provider").
				WithTextCode("DEFAULT_PROVIDER_FAILED").
				WithMetadata(map[string]any{
					"config_path": c.configPath,
				})
		}
		c.providers = append(c.providers, provider)
	}
	return nil
}

// open validates and opens the providers, highest priority first, and
// chains the resulting sources.
func (c *Container[C]) open(ctx context.Context) (source.Source, error) {
	for i, p := range c.providers {
		if err := p.Validate(); err != nil {
			return nil, errors.Wrap(err, errors.CategoryValidation, "invalid provider source type").
				WithTextCode("INVALID_PROVIDER_TYPE").
				WithMetadata(map[string]any{
					"source_type":    string(p.Type()),
					"provider_index": i,
				})
		}
	}

	slices.SortStableFunc(c.providers, func(a, b Provider) int {
		return b.Priority() - a.Priority()
	})

	srcs := make([]source.Source, 0, len(c.providers))
	for i, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "configuration load cancelled").
				WithTextCode("CONFIG_LOAD_CANCELLED").
				WithMetadata(map[string]any{
					"source_index":  i,
					"total_sources": len(c.providers),
				})
		}
		c.logger.Debug("= opening source", "source_type", p.Type(), "priority", p.Priority())
		src, err := p.Open(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load configuration from source").
				WithTextCode("CONFIG_LOAD_FAILED").
				WithMetadata(map[string]any{
					"source_type":   string(p.Type()),
					"source_index":  i,
					"total_sources": len(c.providers),
				})
		}
		srcs = append(srcs, src)
	}

	chain := source.Chain(srcs...)
	if len(c.transformers) > 0 {
		chain = source.Transform(chain, c.transformers...)
	}
	return chain, nil
}

func (c *Container[C]) buildOptions() []cfgx.Option[C] {
	opts := []cfgx.Option[C]{
		cfgx.WithDefaults(c.base),
		cfgx.WithTagName[C](DefaultTagName),
		cfgx.WithSelfValidation[C](c.mustValidate),
	}
	if c.strictDecode {
		opts = append(opts, cfgx.WithStrictKeys[C]())
	}
	if c.mustValidate {
		for _, validate := range c.validators {
			opts = append(opts, cfgx.WithValidatorFunc[C](validate))
		}
	}
	return opts
}

// sourceOptions carries the container settings into the sources its
// providers open.
func (c *Container[C]) sourceOptions() []source.Option {
	opts := []source.Option{
		source.WithLogger(c.logger),
		source.WithArrayDelimiter(c.registry.Delimiter()),
		source.WithSolverPasses(c.solverPasses),
	}
	if c.fsys != nil {
		opts = append(opts, source.WithFS(c.fsys))
	}
	if c.customSolvers {
		opts = append(opts, source.WithSolvers(c.solvers...))
	}
	return opts
}

// Raw returns the decoded struct.
func (c *Container[C]) Raw() C {
	return c.base
}

// Values returns the resolved configuration of the last successful Load,
// or nil.
func (c *Container[C]) Values() *resolved.Map {
	return c.values
}

func (c *Container[C]) Schema() *schema.Schema {
	return c.schema
}

// String renders the resolved configuration with sensitive values masked.
func (c *Container[C]) String() string {
	return redact.Format(c.values)
}

// JSON renders the resolved configuration as a redacted JSON document.
func (c *Container[C]) JSON() (string, error) {
	if c.values == nil {
		return "null", nil
	}
	return redact.JSON(c.values)
}

func (c *Container[C]) assignBase(value C) {
	baseVal := reflect.ValueOf(&c.base).Elem()
	newVal := reflect.ValueOf(value)

	if baseVal.Kind() == reflect.Pointer && newVal.Kind() == reflect.Pointer && baseVal.Type() == newVal.Type() {
		if baseVal.IsNil() || newVal.IsNil() {
			baseVal.Set(newVal)
			return
		}
		baseVal.Elem().Set(newVal.Elem())
		return
	}
	baseVal.Set(newVal)
}
