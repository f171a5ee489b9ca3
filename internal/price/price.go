// Package price handles price values from prediction market APIs
// without losing precision.
package price

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Price is a probability price in millionths (0.5 == 500_000).
type Price int64

// Size is an order size in millionths of a share.
type Size int64

var (
	_ json.Unmarshaler = (*Price)(nil)
	_ json.Unmarshaler = (*Size)(nil)
	_ json.Unmarshaler = (*OptPrice)(nil)
)

const PriceScale int64 = 1_000_000

func (p *Price) UnmarshalJSON(data []byte) error {
	v, err := parseFixed(unquote(data))
	if err != nil {
		return err
	}
	*p = Price(v)
	return nil
}

func (s *Size) UnmarshalJSON(data []byte) error {
	v, err := parseFixed(unquote(data))
	if err != nil {
		return err
	}
	*s = Size(v)
	return nil
}

// OptPrice is a Price that may be missing from a payload. null, empty and
// malformed values decode without error and leave Valid false.
type OptPrice struct {
	Price Price
	Valid bool
}

func (p *OptPrice) UnmarshalJSON(data []byte) error {
	*p = OptPrice{}
	v, err := parseFixed(unquote(bytes.TrimSpace(data)))
	if err != nil {
		return nil
	}
	*p = OptPrice{Price: Price(v), Valid: true}
	return nil
}

// Parse converts a decimal string such as "0.52" into a Price.
func Parse(s string) (Price, error) {
	v, err := parseFixed([]byte(strings.TrimSpace(s)))
	if err != nil {
		return 0, err
	}
	return Price(v), nil
}

// ParseSize converts a decimal string such as "125.5" into a Size.
func ParseSize(s string) (Size, error) {
	v, err := parseFixed([]byte(strings.TrimSpace(s)))
	if err != nil {
		return 0, err
	}
	return Size(v), nil
}

func (p Price) Float64() float64 {
	return float64(p) / float64(PriceScale)
}

func (p Price) String() string {
	return strconv.FormatFloat(p.Float64(), 'f', -1, 64)
}

func (s Size) Float64() float64 {
	return float64(s) / float64(PriceScale)
}

// ParseFloat converts a quote string to float64. Empty, null, non-numeric and
// non-finite inputs yield NaN instead of an error.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN()
	}
	return f
}

func unquote(data []byte) []byte {
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		return data[1 : len(data)-1]
	}
	// Else we assume that it is a raw number.
	return data
}

// parseFixed reads an unsigned decimal into millionths, truncating digits
// past the sixth fractional place. Values that do not fit in int64 are an
// error.
func parseFixed(data []byte) (int64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty price")
	}

	var res int64
	i := 0
	digits := 0

	for i < len(data) && data[i] != '.' {
		if data[i] < '0' || data[i] > '9' {
			return 0, fmt.Errorf("invalid price %q", data)
		}
		d := int64(data[i]-'0') * PriceScale
		if res > (math.MaxInt64-d)/10 {
			return 0, fmt.Errorf("price %q out of range", data)
		}
		res = res*10 + d
		digits++
		i++
	}

	if i < len(data) && data[i] == '.' {
		i++
		mult := PriceScale
		for i < len(data) {
			if data[i] < '0' || data[i] > '9' {
				return 0, fmt.Errorf("invalid price %q", data)
			}
			mult /= 10
			d := int64(data[i]-'0') * mult
			if res > math.MaxInt64-d {
				return 0, fmt.Errorf("price %q out of range", data)
			}
			res += d
			digits++
			i++
		}
	}

	if digits == 0 {
		return 0, fmt.Errorf("invalid price %q", data)
	}

	return res, nil
}
