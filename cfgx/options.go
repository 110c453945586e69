package cfgx

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Option configures a single Build call.
type Option[T any] func(*builder[T])

// Validator checks the decoded value in place.
type Validator[T any] func(*T) error

// WithDefaults starts decoding from a deep copy of value. Keys absent from
// the input keep the default.
func WithDefaults[T any](value T) Option[T] {
	return WithDefaultFunc(func() (T, error) { return value, nil })
}

// WithDefaultFunc computes the defaults when Build runs. An error fails
// the defaults stage.
func WithDefaultFunc[T any](fn func() (T, error)) Option[T] {
	return func(b *builder[T]) {
		b.defaults = fn
	}
}

func WithDecoder[T any](mutate func(*mapstructure.DecoderConfig)) Option[T] {
	return func(b *builder[T]) {
		if mutate != nil {
			mutate(&b.decoderConfig)
		}
	}
}

// WithDecodeHooks runs hooks after OptionalHook, DurationHook and
// TextUnmarshalerHook. Nil hooks are skipped.
func WithDecodeHooks[T any](hooks ...mapstructure.DecodeHookFunc) Option[T] {
	return func(b *builder[T]) {
		for _, hook := range hooks {
			if hook == nil {
				continue
			}
			b.decodeHooks = append(b.decodeHooks, hook)
		}
	}
}

// WithStrictKeys rejects input keys that no field consumes.
func WithStrictKeys[T any]() Option[T] {
	return WithDecoder[T](func(conf *mapstructure.DecoderConfig) {
		conf.ErrorUnused = true
	})
}

func WithWeakTyping[T any](enabled bool) Option[T] {
	return WithDecoder[T](func(conf *mapstructure.DecoderConfig) {
		conf.WeaklyTypedInput = enabled
	})
}

// WithTagName selects the struct tag fields are matched by. An empty tag
// keeps DefaultTagName.
func WithTagName[T any](tag string) Option[T] {
	return WithDecoder[T](func(conf *mapstructure.DecoderConfig) {
		if tag != "" {
			conf.TagName = tag
		}
	})
}

// WithValidator adds a validator. Validators run in registration order and
// the first error fails the validate stage.
func WithValidator[T any](validators ...Validator[T]) Option[T] {
	return func(b *builder[T]) {
		for _, validator := range validators {
			if validator != nil {
				b.validators = append(b.validators, validator)
			}
		}
	}
}

// WithValidatorFunc adds a validator that receives the value by copy.
func WithValidatorFunc[T any](validator func(T) error) Option[T] {
	if validator == nil {
		return nil
	}
	return WithValidator(func(cfg *T) error {
		return validator(*cfg)
	})
}

// WithSelfValidation calls Validate on the result when T or *T implements
// Validatable, after the registered validators.
func WithSelfValidation[T any](enabled bool) Option[T] {
	return func(b *builder[T]) {
		b.selfValidate = enabled
	}
}

func WithoutDefaultHooks[T any]() Option[T] {
	return func(b *builder[T]) {
		b.useHookSet = false
	}
}

// WithOptionError fails Build before any stage runs. Wrappers use it to
// report their own invalid configuration; the first error wins.
func WithOptionError[T any](err error) Option[T] {
	return func(b *builder[T]) {
		if err == nil || b.optionErr != nil {
			return
		}
		b.optionErr = fmt.Errorf("%w: %w", ErrOption, err)
	}
}
