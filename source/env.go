package source

import (
	"os"
	"strings"

	"github.com/goliatone/go-confbind/param"
)

type env struct {
	prefix  string
	lookup  func(string) (string, bool)
	environ func() []string
}

// Env looks parameters up in the process environment by their ENV_STYLE
// rendering.
func Env() Source {
	return EnvWithPrefix("")
}

// EnvWithPrefix is like Env but prepends prefix to every variable name,
// e.g. "APP_" finds DB_HOST in APP_DB_HOST.
func EnvWithPrefix(prefix string) Source {
	return &env{
		prefix:  prefix,
		lookup:  os.LookupEnv,
		environ: os.Environ,
	}
}

// EnvFrom looks parameters up with lookup, keyed by ENV_STYLE name.
func EnvFrom(lookup func(string) (string, bool)) Source {
	return Func(func(p param.Parameter) (string, bool) {
		return lookup(p.EnvName())
	})
}

func (e *env) Lookup(p param.Parameter) (string, bool) {
	return e.lookup(e.prefix + p.EnvName())
}

func (e *env) HasPrefix(prefix param.Parameter) bool {
	for _, kv := range e.environ() {
		name, _, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(name, e.prefix) {
			continue
		}
		p, err := param.New(strings.TrimPrefix(name, e.prefix))
		if err != nil {
			continue
		}
		if p.HasPrefix(prefix) {
			return true
		}
	}
	return false
}
