package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var amountWithUnit = regexp.MustCompile(`^([-+]?\d+)(\s*(\p{Ll}+))?$`)

var durationUnits = unitTable(map[time.Duration][]string{
	24 * time.Hour:   {"d", "day", "days"},
	time.Hour:        {"h", "hour", "hours"},
	time.Minute:      {"m", "min", "mins", "minute", "minutes"},
	time.Second:      {"s", "sec", "secs", "second", "seconds"},
	time.Millisecond: {"ms", "milli", "millis", "millisecond", "milliseconds"},
	time.Microsecond: {"us", "μs", "micro", "micros", "microsecond", "microseconds"},
	time.Nanosecond:  {"ns", "nano", "nanos", "nanosecond", "nanoseconds"},
})

// ParseDuration reads an integer amount followed by an optional unit label,
// e.g. "30s", "5 minutes" or "250" (milliseconds). Inputs in Go duration
// syntax such as "1h30m" are accepted as well.
func ParseDuration(raw string) (time.Duration, error) {
	m := amountWithUnit.FindStringSubmatch(raw)
	if m == nil {
		if d, err := time.ParseDuration(raw); err == nil {
			return d, nil
		}
		return 0, fmt.Errorf("invalid duration format: %s", raw)
	}

	amount, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration amount: %w", err)
	}

	unit := time.Millisecond
	if label := m[3]; label != "" {
		u, ok := durationUnits[label]
		if !ok {
			return 0, fmt.Errorf("invalid duration unit: %s", label)
		}
		unit = u
	}
	if limit := math.MaxInt64 / int64(unit); amount > limit || amount < -limit {
		return 0, fmt.Errorf("duration out of range: %s", raw)
	}
	return time.Duration(amount) * unit, nil
}

// Period is a date based amount of time.
type Period struct {
	Years  int
	Months int
	Days   int
}

// String renders the period in ISO-8601 form, e.g. P1Y2M3D. The zero
// period is P0D.
func (p Period) String() string {
	if p == (Period{}) {
		return "P0D"
	}
	var b strings.Builder
	b.WriteByte('P')
	if p.Years != 0 {
		fmt.Fprintf(&b, "%dY", p.Years)
	}
	if p.Months != 0 {
		fmt.Fprintf(&b, "%dM", p.Months)
	}
	if p.Days != 0 {
		fmt.Fprintf(&b, "%dD", p.Days)
	}
	return b.String()
}

// AddTo applies the period to t.
func (p Period) AddTo(t time.Time) time.Time {
	return t.AddDate(p.Years, p.Months, p.Days)
}

type periodUnit int

const (
	periodDays periodUnit = iota
	periodWeeks
	periodMonths
	periodYears
)

var periodUnits = unitTable(map[periodUnit][]string{
	periodDays:   {"d", "day", "days"},
	periodWeeks:  {"w", "week", "weeks"},
	periodMonths: {"m", "mo", "month", "months"},
	periodYears:  {"y", "year", "years"},
})

// ParsePeriod reads an integer amount followed by an optional unit label,
// e.g. "2w", "6 months" or "10" (days).
func ParsePeriod(raw string) (Period, error) {
	m := amountWithUnit.FindStringSubmatch(raw)
	if m == nil {
		return Period{}, fmt.Errorf("invalid period format: %s", raw)
	}

	amount, err := strconv.ParseInt(m[1], 10, 32)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period amount: %w", err)
	}
	n := int(amount)

	unit := periodDays
	if label := m[3]; label != "" {
		u, ok := periodUnits[label]
		if !ok {
			return Period{}, fmt.Errorf("invalid period unit: %s", label)
		}
		unit = u
	}

	switch unit {
	case periodWeeks:
		return Period{Days: 7 * n}, nil
	case periodMonths:
		return Period{Months: n}, nil
	case periodYears:
		return Period{Years: n}, nil
	default:
		return Period{Days: n}, nil
	}
}

func unitTable[U comparable](labels map[U][]string) map[string]U {
	out := make(map[string]U)
	for unit, names := range labels {
		for _, name := range names {
			out[name] = unit
		}
	}
	return out
}
