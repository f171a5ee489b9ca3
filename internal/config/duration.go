// Package config holds field types shared by the command configs.
package config

import (
	"fmt"
	"time"
)

// Duration is a time.Duration written in YAML as a Go duration string such
// as "500ms" or "20s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	err := unmarshal(&s)
	if err != nil {
		return err
	}

	duration, err := ParseDuration(s)
	if err != nil {
		return err
	}

	*d = duration
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// ParseDuration parses s and rejects negative values.
func ParseDuration(s string) (Duration, error) {
	duration, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("couldn't parse duration: %w", err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("duration %s is negative", s)
	}
	return Duration(duration), nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
