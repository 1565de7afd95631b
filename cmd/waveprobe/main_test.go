package main

import "testing"

func TestFormatDistance(t *testing.T) {
	tests := []struct {
		meters float64
		want   string
	}{
		{0, "0m"},
		{999, "999m"},
		{1000, "1.0km"},
		{15400, "15.4km"},
	}

	for _, tt := range tests {
		if got := formatDistance(tt.meters); got != tt.want {
			t.Errorf("formatDistance(%v) = %q, want %q", tt.meters, got, tt.want)
		}
	}
}

func TestFormatInterval(t *testing.T) {
	ms := func(v int64) *int64 { return &v }

	tests := []struct {
		name string
		in   *int64
		want string
	}{
		{"Infinite", nil, "-"},
		{"Critical", ms(50), "50ms"},
		{"Near", ms(1000), "1s"},
		{"Distant", ms(3600000), "1h0m0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatInterval(tt.in); got != tt.want {
				t.Errorf("formatInterval = %q, want %q", got, tt.want)
			}
		})
	}
}
