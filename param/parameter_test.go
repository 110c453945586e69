package param

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAcceptsValidNames(t *testing.T) {
	cases := map[string]string{
		"foo":         "FOO",
		"FOO":         "FOO",
		"foo.bar":     "FOO_BAR",
		"FOO_BAR":     "FOO_BAR",
		"foo_bar.baz": "FOO_BAR_BAZ",
		"http11":      "HTTP11",
		"über.wert":   "ÜBER_WERT",
		"123":         "123",
	}
	for input, env := range cases {
		t.Run(input, func(t *testing.T) {
			p, err := New(input)
			require.NoError(t, err)
			assert.Equal(t, env, p.EnvName())
		})
	}
}

func TestNewRejectsInvalidNames(t *testing.T) {
	for _, input := range []string{"", " ", ".bar", "_BAR", "foo.", "FOO_", "foo..bar", "FOO__BAR", "foo._bar", "foo bar", "!foo", "foo-bar"} {
		t.Run(input, func(t *testing.T) {
			_, err := New(input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNaming))

			var nerr *NamingError
			require.True(t, errors.As(err, &nerr))
			assert.Equal(t, input, nerr.Input)

			var gerr *goerrors.Error
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, goerrors.CategoryValidation, gerr.Category)
			assert.Equal(t, codeInvalidParameter, gerr.TextCode)
		})
	}
}

func TestParameterEquivalence(t *testing.T) {
	dotted := MustNew("foo.bar")
	env := MustNew("FOO_BAR")
	mixed := MustNew("Foo_bar")

	assert.Equal(t, dotted, env)
	assert.True(t, dotted.Equal(mixed))
	assert.Equal(t, "FOO_BAR", dotted.EnvName())
	assert.Equal(t, "FOO_BAR", dotted.String())
	assert.Equal(t, "foo.bar", env.Dotted())

	seen := map[Parameter]bool{dotted: true}
	assert.True(t, seen[env])
}

func TestJoin(t *testing.T) {
	joined := Join(MustNew("db"), MustNew("pool.size"))
	assert.Equal(t, "DB_POOL_SIZE", joined.EnvName())
	assert.Equal(t, "db.pool.size", joined.Dotted())

	assert.Equal(t, MustNew("leaf"), Join(Parameter{}, MustNew("leaf")))
	assert.Equal(t, MustNew("root"), Join(MustNew("root"), Parameter{}))
}

func TestHasPrefix(t *testing.T) {
	p := MustNew("db.pool.size")
	assert.True(t, p.HasPrefix(MustNew("db")))
	assert.True(t, p.HasPrefix(MustNew("DB_POOL")))
	assert.True(t, p.HasPrefix(p))
	assert.True(t, p.HasPrefix(Parameter{}))
	assert.False(t, p.HasPrefix(MustNew("d")))
	assert.False(t, p.HasPrefix(MustNew("db.pool.size.max")))
}

func TestMustNewPanics(t *testing.T) {
	assert.Panics(t, func() { MustNew("foo..bar") })
}
