package price

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Amount is a USD quantity such as volume or liquidity. The APIs send these
// as JSON numbers or numeric strings; anything unparseable decodes to zero.
type Amount struct {
	decimal.Decimal
}

var _ json.Unmarshaler = (*Amount)(nil)

func NewAmount(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return Amount{d}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(unquote(bytes.TrimSpace(data)))
	if len(data) == 0 || string(data) == "null" {
		a.Decimal = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		a.Decimal = decimal.Zero
		return nil
	}
	a.Decimal = d
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return a.Decimal.MarshalJSON()
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{a.Decimal.Add(b.Decimal)}
}

// USD formats the amount with two decimals and thousands separators.
func (a Amount) USD() string {
	s := a.Decimal.StringFixed(2)
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	whole, frac := s[:len(s)-3], s[len(s)-3:]

	var b []byte
	for i := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b = append(b, ',')
		}
		b = append(b, whole[i])
	}
	if neg {
		return "-$" + string(b) + frac
	}
	return "$" + string(b) + frac
}
