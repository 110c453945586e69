package parser

import (
	"errors"
	"math/big"
	"net"
	"net/url"
	"reflect"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBool(t *testing.T) {
	cases := map[string]bool{
		"true": true, "TRUE": true, "yes": true, "Y": true, "on": true,
		"false": false, "No": false, "n": false, "OFF": false,
	}
	for raw, expected := range cases {
		t.Run(raw, func(t *testing.T) {
			v, err := ParseBool(raw)
			require.NoError(t, err)
			assert.Equal(t, expected, v)
		})
	}

	_, err := ParseBool("1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no registered boolean value for "1"`)
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		raw      string
		expected time.Duration
	}{
		{"250", 250 * time.Millisecond},
		{"30s", 30 * time.Second},
		{"5 minutes", 5 * time.Minute},
		{"2d", 48 * time.Hour},
		{"1 hour", time.Hour},
		{"10us", 10 * time.Microsecond},
		{"3μs", 3 * time.Microsecond},
		{"-5ms", -5 * time.Millisecond},
		{"1h30m", 90 * time.Minute},
		{"106751d", 106751 * 24 * time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			d, err := ParseDuration(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, d)
		})
	}

	for _, raw := range []string{"", "5S", "abc", "5 fortnights", "200000d", "-200000d", "9223372036854776s"} {
		t.Run("invalid "+raw, func(t *testing.T) {
			_, err := ParseDuration(raw)
			assert.Error(t, err)
		})
	}
}

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		raw      string
		expected Period
	}{
		{"3", Period{Days: 3}},
		{"2w", Period{Days: 14}},
		{"6 months", Period{Months: 6}},
		{"1mo", Period{Months: 1}},
		{"4y", Period{Years: 4}},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			p, err := ParsePeriod(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, p)
		})
	}

	_, err := ParsePeriod("2 fortnights")
	assert.Error(t, err)
	_, err = ParsePeriod("P1D")
	assert.Error(t, err)
}

func TestPeriodString(t *testing.T) {
	assert.Equal(t, "P0D", Period{}.String())
	assert.Equal(t, "P1Y2M3D", Period{Years: 1, Months: 2, Days: 3}.String())
	assert.Equal(t, "P14D", Period{Days: 14}.String())

	start := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC), Period{Days: 14}.AddTo(start))
}

func TestParseChar(t *testing.T) {
	c, err := ParseChar("xyz")
	require.NoError(t, err)
	assert.Equal(t, Char('x'), c)
	assert.Equal(t, "x", c.String())

	c, err = ParseChar("é")
	require.NoError(t, err)
	assert.Equal(t, Char('é'), c)

	_, err = ParseChar("")
	assert.Error(t, err)
}

func TestParseBytes(t *testing.T) {
	b, err := ParseBytes("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), b)

	b, err = ParseBytes("-_8=")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfb, 0xff}, b)

	b, err = ParseBytes("+/8=")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfb, 0xff}, b)

	_, err = ParseBytes("***")
	assert.Error(t, err)
}

func TestParseSocketAddress(t *testing.T) {
	a, err := ParseSocketAddress("localhost:8080")
	require.NoError(t, err)
	assert.Equal(t, SocketAddress{Host: "localhost", Port: 8080}, a)
	assert.Equal(t, "localhost:8080", a.String())

	a, err = ParseSocketAddress("::1:443")
	require.NoError(t, err)
	assert.Equal(t, "::1", a.Host)
	assert.Equal(t, "[::1]:443", a.String())

	_, err = ParseSocketAddress("localhost")
	assert.Error(t, err)
	_, err = ParseSocketAddress("localhost:70000")
	assert.Error(t, err)
}

func TestParseIP(t *testing.T) {
	ip, err := ParseIP("192.168.1.10")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.10", ip.String())

	orig := lookupIP
	t.Cleanup(func() { lookupIP = orig })
	lookupIP = func(host string) ([]net.IP, error) {
		if host == "db.internal" {
			return []net.IP{net.ParseIP("10.1.2.3"), net.ParseIP("10.1.2.4")}, nil
		}
		return nil, errors.New("no such host")
	}

	ip, err = ParseIP("db.internal")
	require.NoError(t, err)
	assert.Equal(t, "10.1.2.3", ip.String())

	_, err = ParseIP("unknown.internal")
	assert.Error(t, err)
	_, err = ParseIP("")
	assert.Error(t, err)

	n, err := ParseIPNet("10.0.0.0/8")
	require.NoError(t, err)
	assert.True(t, n.Contains(net.ParseIP("10.200.0.1")))
}

func TestDefaultRegistryTypes(t *testing.T) {
	reg := Default()

	v, err := reg.Parse(reflect.TypeFor[decimal.Decimal](), "12.50")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(v.(decimal.Decimal)))

	v, err = reg.Parse(reflect.TypeFor[uuid.UUID](), "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), v)

	v, err = reg.Parse(reflect.TypeFor[*big.Int](), "123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", v.(*big.Int).String())

	v, err = reg.Parse(reflect.TypeFor[*url.URL](), "https://example.com/path")
	require.NoError(t, err)
	assert.Equal(t, "example.com", v.(*url.URL).Host)

	v, err = reg.Parse(reflect.TypeFor[*regexp.Regexp](), "^a+$")
	require.NoError(t, err)
	assert.True(t, v.(*regexp.Regexp).MatchString("aaa"))

	v, err = reg.Parse(reflect.TypeFor[time.Time](), "2024-05-01T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 2024, v.(time.Time).Year())

	v, err = reg.Parse(reflect.TypeFor[float32](), "1.5")
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), v)

	_, err = reg.Parse(reflect.TypeFor[int8](), "300")
	assert.True(t, errors.Is(err, ErrParse))

	_, err = reg.Parse(reflect.TypeFor[uint](), "-1")
	assert.True(t, errors.Is(err, ErrParse))

	var perr *ParseError
	_, err = reg.Parse(reflect.TypeFor[bool](), "maybe")
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "maybe", perr.Raw)
	assert.Equal(t, reflect.TypeFor[bool](), perr.Type)
}
