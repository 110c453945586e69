package source

import (
	"io/fs"
	"os"

	"github.com/goliatone/go-confbind/logger"
	"github.com/goliatone/go-confbind/parser"
)

// Option configures the koanf backed sources.
type Option func(*options)

type options struct {
	logger    logger.Logger
	delimiter string
	fsys      fs.FS
	passes    int
	solvers   []Solver
}

func newOptions(opts ...Option) *options {
	o := &options{
		logger:    logger.Nop(),
		delimiter: parser.DefaultDelimiter,
		passes:    1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.fsys == nil {
		o.fsys = os.DirFS(".")
	}
	if o.solvers == nil {
		o.solvers = DefaultSolvers(o.fsys)
	}
	return o
}

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithArrayDelimiter sets the separator used to join list values. It
// should match the delimiter of the parser registry.
func WithArrayDelimiter(delim string) Option {
	return func(o *options) {
		if delim != "" {
			o.delimiter = delim
		}
	}
}

// WithFS sets the file system @file:// references are read from.
func WithFS(fsys fs.FS) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

// WithSolverPasses sets the maximum number of interpolation passes
// (minimum 1). Passes stop early once the document stops changing.
func WithSolverPasses(passes int) Option {
	return func(o *options) {
		if passes < 1 {
			passes = 1
		}
		o.passes = passes
	}
}

// WithSolvers replaces the interpolation solvers. Passing none disables
// interpolation.
func WithSolvers(solvers ...Solver) Option {
	return func(o *options) {
		o.solvers = append([]Solver{}, solvers...)
	}
}
