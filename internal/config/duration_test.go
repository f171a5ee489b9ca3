package config

import (
	"testing"
	"time"

	"go.yaml.in/yaml/v4"
)

func TestDurationUnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"milliseconds", "delay: 500ms", 500 * time.Millisecond, false},
		{"seconds", "delay: 20s", 20 * time.Second, false},
		{"compound", "delay: 1m30s", 90 * time.Second, false},
		{"zero", "delay: 0s", 0, false},
		{"negative", "delay: -1s", 0, true},
		{"no unit", "delay: 20", 0, true},
		{"garbage", "delay: soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg struct {
				Delay Duration `yaml:"delay"`
			}
			err := yaml.Unmarshal([]byte(tt.input), &cfg)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Unmarshal(%q) expected error, got %v", tt.input, cfg.Delay)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal(%q) unexpected error: %v", tt.input, err)
			}
			if cfg.Delay.Duration() != tt.want {
				t.Errorf("Unmarshal(%q) = %v, want %v", tt.input, cfg.Delay.Duration(), tt.want)
			}
		})
	}
}

func TestDurationMarshalYAML(t *testing.T) {
	in := struct {
		Delay Duration `yaml:"delay"`
	}{Delay: Duration(1500 * time.Millisecond)}
	out, err := yaml.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "delay: 1.5s\n" {
		t.Errorf("Marshal = %q, want %q", out, "delay: 1.5s\n")
	}
}
