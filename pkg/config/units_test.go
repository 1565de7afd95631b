package config

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "500ms", want: 500 * time.Millisecond},
		{in: "30s", want: 30 * time.Second},
		{in: "5m", want: 5 * time.Minute},
		{in: "1h", want: time.Hour},
		{in: "1d", want: 24 * time.Hour},
		{in: "2w", want: 14 * 24 * time.Hour},
		{in: "1d2h", want: 26 * time.Hour},
		{in: "1.5d", want: 36 * time.Hour},
		{in: "bogus", wantErr: true},
		{in: "10x", wantErr: true},
		{in: "3d4x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDurationYAML(t *testing.T) {
	var d Duration
	if err := yaml.Unmarshal([]byte(`"45s"`), &d); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if d.Std() != 45*time.Second {
		t.Errorf("unmarshalled = %v, want 45s", d.Std())
	}

	if err := yaml.Unmarshal([]byte(`"1d"`), &d); err != nil {
		t.Fatalf("Unmarshal(1d) error = %v", err)
	}
	if d.Std() != 24*time.Hour {
		t.Errorf("unmarshalled = %v, want 24h", d.Std())
	}

	out, err := yaml.Marshal(Duration(90 * time.Minute))
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(out) != "1h30m0s\n" {
		t.Errorf("marshalled = %q, want %q", string(out), "1h30m0s\n")
	}

	if err := yaml.Unmarshal([]byte(`"nonsense"`), &d); err == nil {
		t.Error("expected error for invalid duration")
	}
}
