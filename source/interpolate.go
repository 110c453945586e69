package source

import (
	"encoding/base64"
	"fmt"
	"io/fs"
	"reflect"
	"strings"

	opts "github.com/goliatone/go-options"
	"github.com/knadh/koanf/v2"
	"github.com/mitchellh/copystructure"
)

// Solver rewrites string values of a loaded document in place.
type Solver interface {
	Solve(k *koanf.Koanf)
}

// DefaultSolvers returns the solvers file sources run unless told
// otherwise: ${path} references, @file:// and @base64:// URIs, then
// {{ expr }} expressions.
func DefaultSolvers(fsys fs.FS) []Solver {
	return []Solver{
		References("${", "}"),
		URIs("@", "://", fsys),
		Expressions("{{", "}}", nil),
	}
}

// Interpolate runs solvers over k until the document stops changing or
// passes are exhausted.
func Interpolate(k *koanf.Koanf, passes int, solvers ...Solver) {
	if k == nil || len(solvers) == 0 {
		return
	}
	if passes < 1 {
		passes = 1
	}
	for range passes {
		before, err := copystructure.Copy(k.Raw())
		for _, solver := range solvers {
			solver.Solve(k)
		}
		if err != nil {
			continue
		}
		if reflect.DeepEqual(before, k.Raw()) {
			return
		}
	}
}

type references struct {
	start, end string
}

// References replaces start+path+end with the value at path. A value that
// is exactly one reference takes the referenced value as is, otherwise the
// reference is replaced textually.
func References(start, end string) Solver {
	return &references{start: start, end: end}
}

func (s *references) Solve(k *koanf.Koanf) {
	for key, val := range k.All() {
		str, ok := val.(string)
		if !ok {
			continue
		}
		i := strings.Index(str, s.start)
		if i == -1 {
			continue
		}
		j := strings.Index(str[i+len(s.start):], s.end)
		if j == -1 {
			continue
		}
		j += i + len(s.start)

		path := str[i+len(s.start) : j]
		if path == "" || path == key || !k.Exists(path) {
			continue
		}

		ref := k.Get(path)
		if i == 0 && j+len(s.end) == len(str) {
			k.Set(key, ref)
			continue
		}
		k.Set(key, str[:i]+fmt.Sprint(ref)+str[j+len(s.end):])
	}
}

type uris struct {
	start, end string
	fsys       fs.FS
}

// URIs resolves values of the form start+scheme+end+target, e.g.
// @file://secrets/db.txt or @base64://c2VjcmV0. Unknown schemes and
// failures leave the value unchanged.
func URIs(start, end string, fsys fs.FS) Solver {
	return &uris{start: start, end: end, fsys: fsys}
}

func (s *uris) Solve(k *koanf.Koanf) {
	for key, val := range k.All() {
		str, ok := val.(string)
		if !ok || !strings.HasPrefix(str, s.start) {
			continue
		}
		scheme, target, ok := strings.Cut(str[len(s.start):], s.end)
		if !ok {
			continue
		}

		var (
			content string
			err     error
		)
		switch scheme {
		case "file":
			content, err = readFile(s.fsys, target)
		case "base64":
			content, err = decodeBase64(target)
		default:
			continue
		}
		if err == nil {
			k.Set(key, content)
		}
	}
}

func readFile(fsys fs.FS, name string) (string, error) {
	if fsys == nil {
		return "", fs.ErrNotExist
	}
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(b), "\n"), nil
}

func decodeBase64(s string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type expressions struct {
	start, end string
	evaluator  opts.Evaluator
}

// Expressions evaluates values wrapped entirely in start and end against
// the whole document. A nil evaluator uses the go-options expr evaluator.
// Values that fail to evaluate are left unchanged.
func Expressions(start, end string, evaluator opts.Evaluator) Solver {
	if evaluator == nil {
		evaluator = opts.NewExprEvaluator()
	}
	return &expressions{start: start, end: end, evaluator: evaluator}
}

func (s *expressions) Solve(k *koanf.Koanf) {
	for key, val := range k.All() {
		str, ok := val.(string)
		if !ok || !strings.HasPrefix(str, s.start) || !strings.HasSuffix(str, s.end) {
			continue
		}
		if len(str) < len(s.start)+len(s.end) {
			continue
		}
		expr := strings.TrimSpace(str[len(s.start) : len(str)-len(s.end)])
		result, err := s.evaluator.Evaluate(opts.RuleContext{Snapshot: k.Raw()}, expr)
		if err != nil {
			continue
		}
		k.Set(key, result)
	}
}
