// Package jsontype holds lenient JSON field types for Polymarket payloads.
// The APIs are inconsistent about encodings (booleans as strings, ids as
// numbers, arrays as JSON-encoded strings), so each type accepts every
// encoding seen in the wild and falls back to its zero value otherwise.
package jsontype

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var (
	_ json.Unmarshaler = (*Bool)(nil)
	_ json.Unmarshaler = (*OptString)(nil)
	_ json.Unmarshaler = (*Float)(nil)
	_ json.Unmarshaler = (*StringList)(nil)
)

// Bool decodes from a JSON bool, a string ("true", "1", "yes"), or a number.
// null and anything else decode to false.
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*b = false
		return nil
	}
	switch t := v.(type) {
	case bool:
		*b = Bool(t)
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		*b = Bool(s == "true" || s == "1" || s == "yes")
	case float64:
		*b = Bool(t != 0)
	default:
		*b = false
	}
	return nil
}

// OptString is a string that may be absent. Numbers are kept in their JSON
// text form so large token ids keep every digit.
type OptString struct {
	Value string
	Valid bool
}

func (s *OptString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = OptString{}
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return nil
		}
		*s = OptString{Value: v, Valid: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	*s = OptString{Value: n.String(), Valid: true}
	return nil
}

func (s OptString) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

func (s OptString) String() string {
	return s.Value
}

// Float decodes from a JSON number or numeric string. Anything else is NaN.
type Float float64

func (f *Float) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*f = Float(math.NaN())
		return nil
	}
	*f = Float(v)
	return nil
}

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// Valid reports whether f holds a finite number.
func (f Float) Valid() bool {
	v := float64(f)
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// StringList decodes from a JSON array, from a string holding a JSON-encoded
// array (the Gamma API double-encodes outcomes and token ids), or from a
// plain string, which becomes a single element.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*l = nil
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		inner := strings.TrimSpace(s)
		if strings.HasPrefix(inner, "[") {
			var nested StringList
			if err := nested.UnmarshalJSON([]byte(inner)); err == nil && nested != nil {
				*l = nested
				return nil
			}
		}
		if inner != "" {
			*l = StringList{s}
		}
		return nil
	}
	var raws []OptString
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil
	}
	out := make(StringList, 0, len(raws))
	for _, r := range raws {
		if r.Valid {
			out = append(out, r.Value)
		}
	}
	*l = out
	return nil
}

// DecodeEach decodes every raw element into T independently and returns the
// ones that decoded along with the number skipped, so one malformed record
// never discards its neighbours. null elements count as skipped.
func DecodeEach[T any](raws []json.RawMessage) ([]T, int) {
	out := make([]T, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		if t := bytes.TrimSpace(raw); len(t) == 0 || string(t) == "null" {
			skipped++
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			skipped++
			continue
		}
		out = append(out, v)
	}
	return out, skipped
}
