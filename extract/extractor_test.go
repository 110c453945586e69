package extract

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-confbind/optional"
	"github.com/goliatone/go-confbind/param"
	"github.com/goliatone/go-confbind/parser"
	"github.com/goliatone/go-confbind/redact"
	"github.com/goliatone/go-confbind/resolved"
	"github.com/goliatone/go-confbind/schema"
	"github.com/goliatone/go-confbind/source"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extract(t *testing.T, s *schema.Schema, values map[string]string, opts ...Option) (*resolved.Map, error) {
	t.Helper()
	return New(nil, source.Map(values), opts...).Extract(s)
}

func mustExtract(t *testing.T, s *schema.Schema, values map[string]string, opts ...Option) *resolved.Map {
	t.Helper()
	m, err := extract(t, s, values, opts...)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}

func value(t *testing.T, m *resolved.Map, name string) resolved.Value {
	t.Helper()
	v, ok := m.Get(name)
	require.True(t, ok, "property %s not resolved", name)
	return v
}

func TestStatus(t *testing.T) {
	s := schema.New("Server").Add(
		schema.Prop("host", schema.ScalarOf[string]()),
		schema.Prop("port", schema.ScalarOf[int](), schema.Default("8080")),
		schema.Prop("timeout", schema.ScalarOf[time.Duration](), schema.Default("5s")),
		schema.Prop("proxy", schema.ScalarOf[string](), schema.Nullable()),
		schema.Prop("retries", schema.OptionalOf[int]()),
	)

	m := mustExtract(t, s, map[string]string{
		"HOST":    "localhost",
		"timeout": "250",
	})

	host := value(t, m, "host")
	assert.Equal(t, resolved.Configured, host.Status)
	assert.Equal(t, "localhost", host.Value)

	port := value(t, m, "port")
	assert.Equal(t, resolved.Defaulted, port.Status)
	assert.Equal(t, 8080, port.Value)

	timeout := value(t, m, "timeout")
	assert.Equal(t, resolved.Configured, timeout.Status)
	assert.Equal(t, 250*time.Millisecond, timeout.Value)

	proxy := value(t, m, "proxy")
	assert.Equal(t, resolved.Missing, proxy.Status)
	assert.Nil(t, proxy.Value)

	retries := value(t, m, "retries")
	assert.Equal(t, resolved.Missing, retries.Status)
	assert.Equal(t, optional.Empty[int](), retries.Value)

	assert.Equal(t, []string{"host", "port", "proxy", "retries", "timeout"}, m.Names())
	assert.Equal(t, "Server", m.Schema())
}

func TestConfiguredBeatsDefault(t *testing.T) {
	s := schema.New("Server").Add(
		schema.Prop("port", schema.ScalarOf[int](), schema.Default("8080")),
		schema.Prop("retries", schema.OptionalOf[int](), schema.Default("3")),
	)

	m := mustExtract(t, s, map[string]string{"port": "9090"})
	assert.Equal(t, resolved.Value{Value: 9090, Status: resolved.Configured}, value(t, m, "port"))
	assert.Equal(t, resolved.Value{Value: optional.Of(3), Status: resolved.Defaulted}, value(t, m, "retries"))
}

func TestProviderChainOrder(t *testing.T) {
	s := schema.New("Server").Add(schema.Prop("host", schema.ScalarOf[string]()))

	src := source.Chain(
		source.Map(map[string]string{}),
		source.Map(map[string]string{"host": "second"}),
		source.Map(map[string]string{"host": "third"}),
	)
	m, err := New(nil, src).Extract(s)
	require.NoError(t, err)
	assert.Equal(t, "second", m.Lookup("host"))
}

func TestLargeIntegersFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"max_bytes": 10000000, "port": 8080}`), 0o600))
	src, err := source.File(path)
	require.NoError(t, err)

	s := schema.New("App").Add(
		schema.Prop("maxBytes", schema.ScalarOf[int]()),
		schema.Prop("port", schema.ScalarOf[int]()),
	)
	m, err := New(nil, src).Extract(s)
	require.NoError(t, err)
	assert.Equal(t, resolved.Value{Value: 10000000, Status: resolved.Configured}, value(t, m, "maxBytes"))
	assert.Equal(t, 8080, m.Lookup("port"))
}

func TestMissingMandatoryParameter(t *testing.T) {
	s := schema.New("Database").WithPrefix("db").Add(
		schema.Prop("url", schema.ScalarOf[string]()),
		schema.Prop("maxConnections", schema.ScalarOf[int](), schema.Nullable()),
	)

	m, err := extract(t, s, map[string]string{"db.url": "postgres://"})
	require.Error(t, err)
	assert.Nil(t, m)

	var missing *MissingParameterError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "DB_MAX_CONNECTIONS", missing.Parameter.EnvName())
	assert.Equal(t, "Database", missing.Schema)
	assert.Equal(t, "maxConnections", missing.Property)
	assert.True(t, errors.Is(err, ErrMissingParameter))
	assert.Contains(t, err.Error(), "DB_MAX_CONNECTIONS")

	var gerr *goerrors.Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, CodeMissingParameter, gerr.TextCode)
	assert.Equal(t, goerrors.CategoryValidation, gerr.Category)
}

func TestNullableStringIsOptional(t *testing.T) {
	s := schema.New("App").Add(
		schema.Prop("name", schema.ScalarOf[string](), schema.Nullable()),
		schema.Prop("port", schema.ScalarOf[int](), schema.Nullable()),
	)

	_, err := extract(t, s, nil)
	var missing *MissingParameterError
	require.True(t, errors.As(err, &missing), "primitive properties stay mandatory when nullable")
	assert.Equal(t, "port", missing.Property)

	s = schema.New("App").Add(schema.Prop("name", schema.ScalarOf[string](), schema.Nullable()))
	m := mustExtract(t, s, nil)
	assert.Equal(t, resolved.Missing, value(t, m, "name").Status)
}

func TestNestedGroup(t *testing.T) {
	inner := schema.New("Inner").WithPrefix("ignored").Add(
		schema.Prop("bar", schema.ScalarOf[int]()),
		schema.Prop("baz", schema.ScalarOf[int]()),
	)
	outer := schema.New("Outer").WithPrefix("app").Add(
		schema.Prop("foo", schema.Group(inner)),
	)

	m := mustExtract(t, outer, map[string]string{
		"APP_FOO_BAR":     "1",
		"app.foo.baz":     "2",
		"ignored.foo.bar": "3",
	})

	foo := value(t, m, "foo")
	assert.Equal(t, resolved.Configured, foo.Status)
	nested, ok := foo.Value.(*resolved.Map)
	require.True(t, ok)
	assert.Equal(t, "Inner", nested.Schema())
	assert.Equal(t, 1, nested.Lookup("bar"))
	assert.Equal(t, 2, nested.Lookup("baz"))

	assert.Equal(t, map[string]any{
		"foo": map[string]any{"bar": 1, "baz": 2},
	}, m.ToMap())
}

func TestNestedOptionalPropagation(t *testing.T) {
	inner := schema.New("Inner").Add(
		schema.Prop("bar", schema.ScalarOf[int]()),
		schema.Prop("baz", schema.ScalarOf[int]()),
	)
	outer := schema.New("Outer").Add(
		schema.Prop("foo", schema.Group(inner), schema.Nullable()),
	)

	cases := []struct {
		name       string
		values     map[string]string
		status     resolved.Status
		configured bool
	}{
		{"none", nil, resolved.Missing, false},
		{"partial", map[string]string{"foo.bar": "1"}, resolved.Missing, false},
		{"other partial", map[string]string{"FOO_BAZ": "2"}, resolved.Missing, false},
		{"complete", map[string]string{"foo.bar": "1", "foo.baz": "2"}, resolved.Configured, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := mustExtract(t, outer, tc.values)
			foo := value(t, m, "foo")
			assert.Equal(t, tc.status, foo.Status)
			if !tc.configured {
				assert.Nil(t, foo.Value)
				return
			}
			nested := foo.Value.(*resolved.Map)
			assert.Equal(t, 1, nested.Lookup("bar"))
			assert.Equal(t, 2, nested.Lookup("baz"))
		})
	}
}

func TestOptionalGroupWrapper(t *testing.T) {
	inner := schema.New("Inner").Add(schema.Prop("bar", schema.ScalarOf[int]()))
	outer := schema.New("Outer").Add(schema.Prop("foo", schema.OptionalGroup(inner)))

	m := mustExtract(t, outer, nil)
	foo := value(t, m, "foo")
	assert.Equal(t, resolved.Missing, foo.Status)
	assert.Equal(t, optional.Empty[*resolved.Map](), foo.Value)

	m = mustExtract(t, outer, map[string]string{"foo.bar": "7"})
	foo = value(t, m, "foo")
	assert.Equal(t, resolved.Configured, foo.Status)
	wrapped, ok := foo.Value.(optional.Value[*resolved.Map])
	require.True(t, ok)
	require.True(t, wrapped.IsSet())
	assert.Equal(t, 7, wrapped.Get().Lookup("bar"))

	assert.Equal(t, map[string]any{"foo": map[string]any{"bar": 7}}, m.ToMap())
}

func TestMandatoryGroupPropagatesMissing(t *testing.T) {
	inner := schema.New("Inner").Add(schema.Prop("bar", schema.ScalarOf[int]()))
	outer := schema.New("Outer").Add(schema.Prop("foo", schema.Group(inner)))

	_, err := extract(t, outer, nil)
	var missing *MissingParameterError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "FOO_BAR", missing.Parameter.EnvName())
	assert.Equal(t, "Inner", missing.Schema)
}

func TestNestedErrorsAreNotDemoted(t *testing.T) {
	inner := schema.New("Inner").Add(schema.Prop("bar", schema.ScalarOf[int]()))
	outer := schema.New("Outer").Add(schema.Prop("foo", schema.Group(inner), schema.Nullable()))

	_, err := extract(t, outer, map[string]string{"foo.bar": "one"})
	assert.True(t, errors.Is(err, parser.ErrParse))
}

func TestDefaultOnNestedRejected(t *testing.T) {
	inner := schema.New("Inner").Add(schema.Prop("bar", schema.ScalarOf[int](), schema.Nullable()))
	cases := map[string]schema.Type{
		"group":          schema.Group(inner),
		"optional group": schema.OptionalGroup(inner),
	}

	for name, typ := range cases {
		t.Run(name, func(t *testing.T) {
			outer := schema.New("Outer").Add(schema.Prop("foo", typ, schema.Default("{}"), schema.Nullable()))

			for _, values := range []map[string]string{nil, {"foo.bar": "1"}} {
				m, err := extract(t, outer, values)
				require.Error(t, err)
				assert.Nil(t, m)

				var cfgErr *ConfigurationError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, "foo", cfgErr.Property)
				assert.True(t, errors.Is(err, ErrConfiguration))
				assert.Contains(t, err.Error(), "Default values are not applicable to nested configuration")
			}
		})
	}
}

func TestInheritedProperties(t *testing.T) {
	base := schema.New("Base").Add(
		schema.Prop("timeout", schema.ScalarOf[time.Duration](), schema.Default("5s")),
		schema.Prop("name", schema.ScalarOf[string](), schema.Default("base")),
	)
	child := schema.New("Child").Extends(base).WithPrefix("svc").Add(
		schema.Prop("name", schema.ScalarOf[string](), schema.Default("child")),
	)

	m := mustExtract(t, child, map[string]string{"svc.timeout": "1m"})
	assert.Equal(t, time.Minute, m.Lookup("timeout"))
	assert.Equal(t, resolved.Value{Value: "child", Status: resolved.Defaulted}, value(t, m, "name"))
	assert.Equal(t, "Child", m.Schema())
}

func TestCustomName(t *testing.T) {
	s := schema.New("Server").WithPrefix("app").Add(
		schema.Prop("getHost", schema.ScalarOf[string](), schema.CustomName("server.address")),
		schema.Prop("isEnabled", schema.ScalarOf[bool]()),
	)

	m := mustExtract(t, s, map[string]string{
		"APP_SERVER_ADDRESS": "example.com",
		"app.enabled":        "yes",
	})
	assert.Equal(t, "example.com", m.Lookup("getHost"))
	assert.Equal(t, true, m.Lookup("isEnabled"))
}

func TestArrays(t *testing.T) {
	s := schema.New("Cluster").Add(
		schema.Prop("nodes", schema.ScalarOf[[]string]()),
		schema.Prop("ports", schema.ScalarOf[[]int](), schema.Default("")),
	)

	m := mustExtract(t, s, map[string]string{"nodes": "a,b,c"})
	assert.Equal(t, []string{"a", "b", "c"}, m.Lookup("nodes"))
	assert.Equal(t, []int{}, m.Lookup("ports"))
}

type unsupported struct {
	A int
}

func TestUnsupportedType(t *testing.T) {
	s := schema.New("Odd").Add(schema.Prop("thing", schema.ScalarOf[unsupported](), schema.Nullable()))

	_, err := extract(t, s, map[string]string{"thing": "x"})
	require.Error(t, err)

	var unsupportedErr *UnsupportedTypeError
	require.True(t, errors.As(err, &unsupportedErr))
	assert.Equal(t, "thing", unsupportedErr.Property)
	assert.True(t, errors.Is(err, parser.ErrUnsupportedType))
	assert.True(t, strings.HasPrefix(err.Error(), "Cannot parse value of type"))
	assert.Error(t, unsupportedErr.Cause)

	reg := parser.RegisterType(parser.NewBuilder(), func(raw string) (unsupported, error) {
		return unsupported{A: len(raw)}, nil
	}).Build()
	m, err := New(reg, source.Map(map[string]string{"thing": "xyz"})).Extract(s)
	require.NoError(t, err)
	assert.Equal(t, unsupported{A: 3}, m.Lookup("thing"))
}

func TestParseValueError(t *testing.T) {
	s := schema.New("Server").Add(
		schema.Prop("port", schema.ScalarOf[int](), schema.Default("8080")),
	)

	cases := map[string]map[string]string{
		"configured": {"port": "http"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := extract(t, s, values)
			require.Error(t, err)

			var pv *ParseValueError
			require.True(t, errors.As(err, &pv))
			assert.Equal(t, "PORT", pv.Parameter.EnvName())
			assert.True(t, errors.Is(err, parser.ErrParse))

			var pe *parser.ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "http", pe.Raw)
			assert.Equal(t, reflect.TypeOf(0), pe.Type)

			var gerr *goerrors.Error
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, CodeInvalidValue, gerr.TextCode)
		})
	}

	bad := schema.New("Server").Add(schema.Prop("port", schema.ScalarOf[int](), schema.Default("eighty")))
	_, err := extract(t, bad, nil)
	assert.True(t, errors.Is(err, parser.ErrParse), "defaults are parsed like configured values")
}

func TestTransformFailureIsNotDefaulted(t *testing.T) {
	s := schema.New("Server").Add(
		schema.Prop("port", schema.ScalarOf[int](), schema.Default("80")),
		schema.Prop("proxy", schema.ScalarOf[string](), schema.Nullable()),
	)
	boom := errors.New("boom")
	failing := func(string) (string, error) { return "", boom }

	cases := []struct {
		name   string
		values map[string]string
		env    string
		raw    string
	}{
		{"defaulted", map[string]string{"port": "9090"}, "PORT", "9090"},
		{"nullable", map[string]string{"proxy": "localhost"}, "PROXY", "localhost"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := source.Transform(source.Map(tc.values), failing)
			m, err := New(nil, src).Extract(s)
			require.Error(t, err)
			assert.Nil(t, m)

			var pv *ParseValueError
			require.True(t, errors.As(err, &pv))
			assert.Equal(t, tc.env, pv.Parameter.EnvName())
			assert.ErrorIs(t, err, boom)

			var te *source.TransformError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tc.raw, te.Raw)

			var gerr *goerrors.Error
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, CodeInvalidValue, gerr.TextCode)
		})
	}

	m, err := New(nil, source.Transform(source.Map(nil), failing)).Extract(s)
	require.NoError(t, err, "transformers only run on configured values")
	assert.Equal(t, resolved.Value{Value: 80, Status: resolved.Defaulted}, value(t, m, "port"))
}

func TestSensitiveRedaction(t *testing.T) {
	s := schema.New("Credentials").Add(
		schema.Prop("username", schema.ScalarOf[string]()),
		schema.Prop("password", schema.ScalarOf[string](), schema.Sensitive()),
	)

	m := mustExtract(t, s, map[string]string{"username": "scott", "password": "tiger"})
	out := m.String()
	assert.Contains(t, out, "scott")
	assert.Contains(t, out, redact.Mask)
	assert.NotContains(t, out, "tiger")

	assert.Equal(t, "tiger", m.Lookup("password"), "typed access is not masked")
	assert.True(t, value(t, m, "password").Sensitive)

	js, err := redact.JSON(m)
	require.NoError(t, err)
	assert.NotContains(t, js, "tiger")
}

func TestSensitiveInheritedFromParent(t *testing.T) {
	base := schema.New("Base").Add(schema.Prop("token", schema.ScalarOf[string](), schema.Sensitive()))
	child := schema.New("Child").Extends(base).Add(schema.Prop("token", schema.ScalarOf[string]()))

	m := mustExtract(t, child, map[string]string{"token": "abc"})
	assert.True(t, value(t, m, "token").Sensitive)
	assert.NotContains(t, m.String(), "abc")
}

func node() *schema.Schema {
	n := schema.New("Node")
	n.Add(
		schema.Prop("value", schema.ScalarOf[int]()),
		schema.Prop("next", schema.Group(n), schema.Nullable()),
	)
	return n
}

func TestOptionalSelfReference(t *testing.T) {
	m := mustExtract(t, node(), map[string]string{
		"value":           "1",
		"next.value":      "2",
		"next.next.value": "3",
	})

	assert.Equal(t, 1, m.Lookup("value"))
	second := m.Lookup("next").(*resolved.Map)
	assert.Equal(t, 2, second.Lookup("value"))
	third := second.Lookup("next").(*resolved.Map)
	assert.Equal(t, 3, third.Lookup("value"))
	assert.Equal(t, resolved.Missing, value(t, third, "next").Status)
}

func TestMandatorySelfReference(t *testing.T) {
	n := schema.New("Node")
	n.Add(
		schema.Prop("value", schema.ScalarOf[int]()),
		schema.Prop("next", schema.Group(n)),
	)

	_, err := extract(t, n, map[string]string{"value": "1", "next.value": "2"})
	require.Error(t, err)

	var cyclic *CyclicSchemaError
	require.True(t, errors.As(err, &cyclic))
	assert.True(t, errors.Is(err, ErrCyclicSchema))
	assert.Equal(t, "NEXT_NEXT", cyclic.Parameter.EnvName())
	assert.Equal(t, 2, cyclic.Depth)
}

func TestMaxDepth(t *testing.T) {
	everything := source.Func(func(param.Parameter) (string, bool) {
		return "1", true
	})

	_, err := New(nil, everything, WithMaxDepth(4)).Extract(node())
	require.Error(t, err)

	var cyclic *CyclicSchemaError
	require.True(t, errors.As(err, &cyclic))
	assert.Equal(t, 4, cyclic.Depth)

	var gerr *goerrors.Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, CodeCyclicSchema, gerr.TextCode)
}

func TestDeepSchemaWithinLimit(t *testing.T) {
	leaf := schema.New("Leaf").Add(schema.Prop("value", schema.ScalarOf[int]()))
	mid := schema.New("Mid").Add(schema.Prop("leaf", schema.Group(leaf)))
	root := schema.New("Root").Add(schema.Prop("mid", schema.Group(mid)))

	m := mustExtract(t, root, map[string]string{"mid.leaf.value": "1"}, WithMaxDepth(3))
	assert.Equal(t, map[string]any{"mid": map[string]any{"leaf": map[string]any{"value": 1}}}, m.ToMap())

	_, err := extract(t, root, map[string]string{"mid.leaf.value": "1"}, WithMaxDepth(2))
	assert.True(t, errors.Is(err, ErrCyclicSchema))
}

func TestInvalidSchema(t *testing.T) {
	s := schema.New("Bad").Add(schema.Prop("String", schema.ScalarOf[string]()))
	m, err := extract(t, s, nil)
	require.Error(t, err)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, schema.ErrDeclaration))

	_, err = New(nil, nil).Extract(nil)
	assert.Error(t, err)
}

func TestExtractIsRepeatable(t *testing.T) {
	s := schema.New("Server").Add(
		schema.Prop("host", schema.ScalarOf[string]()),
		schema.Prop("ports", schema.ScalarOf[[]int]()),
	)
	e := New(nil, source.Map(map[string]string{"host": "a", "ports": "1,2"}))

	first, err := e.Extract(s)
	require.NoError(t, err)
	second, err := e.Extract(s)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, first.Hash(), second.Hash())
}
