package config

import (
	"time"

	"github.com/goliatone/go-confbind/logger"
	"github.com/goliatone/go-confbind/parser"
	"github.com/goliatone/go-confbind/source"
	"github.com/goliatone/go-errors"
)

type Option[C any] func(c *Container[C]) error

func WithValidation[C any](v bool) Option[C] {
	return func(c *Container[C]) error {
		c.WithValidation(v)
		return nil
	}
}

func WithStrictDecode[C any](v bool) Option[C] {
	return func(c *Container[C]) error {
		c.WithStrictDecode(v)
		return nil
	}
}

func WithConfigPath[C any](p string) Option[C] {
	return func(c *Container[C]) error {
		c.WithConfigPath(p)
		return nil
	}
}

func WithoutDefaultConfigPath[C any]() Option[C] {
	return WithConfigPath[C]("")
}

func WithTimeout[C any](timeout time.Duration) Option[C] {
	return func(c *Container[C]) error {
		if timeout <= 0 {
			return errors.New("load timeout must be positive", errors.CategoryBadInput).
				WithTextCode("INVALID_TIMEOUT").
				WithMetadata(map[string]any{"timeout": timeout.String()})
		}
		c.WithTimeout(timeout)
		return nil
	}
}

func WithRegistry[C any](reg *parser.Registry) Option[C] {
	return func(c *Container[C]) error {
		if reg == nil {
			return errors.New("registry cannot be nil", errors.CategoryBadInput).
				WithTextCode("NIL_REGISTRY")
		}
		c.WithRegistry(reg)
		return nil
	}
}

func WithMaxDepth[C any](depth int) Option[C] {
	return func(c *Container[C]) error {
		if depth < 1 {
			return errors.New("max depth must be at least 1", errors.CategoryBadInput).
				WithTextCode("INVALID_MAX_DEPTH").
				WithMetadata(map[string]any{"max_depth": depth})
		}
		c.WithMaxDepth(depth)
		return nil
	}
}

func WithSolvers[C any](slvrs ...source.Solver) Option[C] {
	return func(c *Container[C]) error {
		c.WithSolvers(slvrs...)
		return nil
	}
}

func WithProvider[C any](factories ...ProviderBuilder[C]) Option[C] {
	return func(c *Container[C]) error {
		c.WithProvider(factories...)
		return nil
	}
}

func WithLogger[C any](logger logger.Logger) Option[C] {
	return func(c *Container[C]) error {
		c.WithLogger(logger)
		return nil
	}
}
