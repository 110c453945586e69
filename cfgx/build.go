package cfgx

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-confbind/resolved"
	"github.com/mitchellh/copystructure"
)

// DefaultTagName is the struct tag consulted for field names.
const DefaultTagName = "config"

// Stage names one step of Build.
type Stage string

const (
	StageDefaults Stage = "defaults"
	StageProject  Stage = "project"
	StageDecode   Stage = "decode"
	StageValidate Stage = "validate"
)

// Sentinels matched by StageError.Is. ErrOption reports option state
// surfaced through WithOptionError.
var (
	ErrDefaults = errors.New("cfgx: defaults stage failed")
	ErrProject  = errors.New("cfgx: project stage failed")
	ErrDecode   = errors.New("cfgx: decode stage failed")
	ErrValidate = errors.New("cfgx: validate stage failed")
	ErrOption   = errors.New("cfgx: option configuration failed")
)

var stageSentinels = map[Stage]error{
	StageDefaults: ErrDefaults,
	StageProject:  ErrProject,
	StageDecode:   ErrDecode,
	StageValidate: ErrValidate,
}

// StageError is returned by Build. It matches the sentinel of its stage
// with errors.Is and unwraps to the underlying failure.
type StageError struct {
	Stage Stage
	Err   error
	Meta  map[string]any
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("cfgx %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *StageError) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	sentinel, ok := stageSentinels[e.Stage]
	return ok && target == sentinel
}

func fail(stage Stage, err error, meta map[string]any) *StageError {
	return &StageError{Stage: stage, Err: err, Meta: meta}
}

type builder[T any] struct {
	input         any
	defaults      func() (T, error)
	decodeHooks   []mapstructure.DecodeHookFunc
	decoderConfig mapstructure.DecoderConfig
	validators    []Validator[T]
	selfValidate  bool
	useHookSet    bool
	optionErr     error
}

func newBuilder[T any](input any) *builder[T] {
	return &builder[T]{
		input: input,
		decoderConfig: mapstructure.DecoderConfig{
			TagName:          DefaultTagName,
			WeaklyTypedInput: true,
		},
		useHookSet: true,
	}
}

// Build materializes input into a T. Input is usually a *resolved.Map,
// which is projected with ToMap; a map[string]any is decoded as is.
//
// Stages run in order: defaults, project, decode, validate. A failure is a
// *StageError matching the sentinel of its stage.
func Build[T any](input any, opts ...Option[T]) (T, error) {
	b := newBuilder[T](input)
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if b.optionErr != nil {
		var zero T
		return zero, b.optionErr
	}
	return b.build()
}

// pass carries intermediate state from one stage to the next.
type pass[T any] struct {
	result T
	data   any
}

func (b *builder[T]) build() (T, error) {
	steps := []func(*pass[T]) error{
		b.seed,
		b.project,
		b.decode,
		b.validate,
	}

	var p pass[T]
	for _, step := range steps {
		if err := step(&p); err != nil {
			var zero T
			return zero, err
		}
	}
	return p.result, nil
}

// seed starts the result from a deep copy of the defaults, so decoding
// never writes through to the caller's value.
func (b *builder[T]) seed(p *pass[T]) error {
	if b.defaults == nil {
		return nil
	}
	val, err := b.defaults()
	if err != nil {
		return fail(StageDefaults, err, nil)
	}
	dup, err := copystructure.Copy(val)
	if err != nil {
		return fail(StageDefaults, err, map[string]any{"reason": "clone"})
	}
	result, ok := dup.(T)
	if !ok {
		return fail(StageDefaults, fmt.Errorf("clone produced %T", dup), map[string]any{"reason": "clone"})
	}
	p.result = result
	return nil
}

func (b *builder[T]) project(p *pass[T]) error {
	switch in := b.input.(type) {
	case nil:
		p.data = map[string]any{}
	case *resolved.Map:
		if in == nil {
			p.data = map[string]any{}
			return nil
		}
		p.data = in.ToMap()
	case map[string]any:
		p.data = in
	default:
		return fail(StageProject, fmt.Errorf("unsupported input %T", b.input),
			map[string]any{"input_type": fmt.Sprintf("%T", b.input)})
	}
	return nil
}

func (b *builder[T]) decode(p *pass[T]) error {
	conf := b.decoderConfig
	conf.Result = decodeTarget(&p.result)
	conf.DecodeHook = b.composeDecodeHooks()

	decoder, err := mapstructure.NewDecoder(&conf)
	if err != nil {
		return fail(StageDecode, err, map[string]any{"reason": "decoder_config"})
	}
	if err := decoder.Decode(p.data); err != nil {
		return fail(StageDecode, err, map[string]any{"tag_name": conf.TagName})
	}
	return nil
}

func (b *builder[T]) composeDecodeHooks() mapstructure.DecodeHookFunc {
	var hooks []mapstructure.DecodeHookFunc
	if b.useHookSet {
		hooks = DefaultDecodeHooks()
	}
	hooks = append(hooks, b.decodeHooks...)
	switch len(hooks) {
	case 0:
		return nil
	case 1:
		return hooks[0]
	}
	return mapstructure.ComposeDecodeHookFunc(hooks...)
}

// decodeTarget allocates pointer targets so Build[*Config] works.
func decodeTarget[T any](result *T) any {
	val := reflect.ValueOf(result).Elem()
	if val.Kind() != reflect.Pointer {
		return result
	}
	if val.IsNil() {
		val.Set(reflect.New(val.Type().Elem()))
	}
	return val.Interface()
}

// Validatable is implemented by config structs that check themselves.
type Validatable interface {
	Validate() error
}

func (b *builder[T]) validate(p *pass[T]) error {
	for i, validator := range b.validators {
		if err := validator(&p.result); err != nil {
			return fail(StageValidate, err, map[string]any{"validator": i})
		}
	}
	if !b.selfValidate {
		return nil
	}
	if v, ok := selfValidator(&p.result); ok {
		if err := v.Validate(); err != nil {
			return fail(StageValidate, err, map[string]any{"validator": "self"})
		}
	}
	return nil
}

func selfValidator[T any](result *T) (Validatable, bool) {
	if v, ok := any(*result).(Validatable); ok {
		if rv := reflect.ValueOf(*result); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, false
		}
		return v, true
	}
	v, ok := any(result).(Validatable)
	return v, ok
}
