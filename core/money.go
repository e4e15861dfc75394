package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Money is a two-decimal currency amount, stored in cents.
type Money int64

// MaxMoney is the largest representable amount.
const MaxMoney = Money(math.MaxInt64)

var errInvalidAmount = errors.New("invalid amount")

// ParseMoney parses a decimal amount with at most two decimals ("100", "99.5", "12.34"),
// optionally preceded by a single sign.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	raw := s
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	units, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		units, frac = s[:i], s[i+1:]
	}
	if len(frac) > 2 || (units == "" && frac == "") || !isDigits(units) || !isDigits(frac) {
		return 0, errors.Wrapf(errInvalidAmount, "%q", raw)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if units == "" {
		units = "0"
	}
	u, err := strconv.ParseInt(units, 10, 64)
	if err != nil || u > (math.MaxInt64-99)/100 {
		return 0, errors.Wrapf(errInvalidAmount, "%q: out of range", raw)
	}
	f, _ := strconv.ParseInt(frac, 10, 64)
	m := Money(u*100 + f)
	if neg {
		m = -m
	}
	return m, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Cents() int64     { return int64(m) }
func (m Money) Float64() float64 { return float64(m) / 100 }

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		*m = 0
		return nil
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
