package format

import "testing"

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantSeconds int64
		wantString  string
	}{
		{"full token", "1d2h3m4s", 93784, "1d 2h 3m 4s"},
		{"hours minutes", "2h30m", 9000, "2h 30m"},
		{"seconds only", "45s", 45, "45s"},
		{"days only", "3d", 259200, "3d"},
		{"minutes seconds", "5m10s", 310, "5m 10s"},
		{"out of order", "4s1d", 86404, "1d 4s"},
		{"zero components dropped", "0d5h0m", 18000, "5h"},
		{"all zero", "0h0m", 0, "0h 0m"},
		{"empty", "", 0, "0h 0m"},
		{"garbage", "soon", 0, "0h 0m"},
		{"trailing digits", "1h30", 0, "0h 0m"},
		{"unknown unit", "2w", 0, "0h 0m"},
		{"repeated unit", "1h2h", 0, "0h 0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseDuration(tt.input)
			if got := d.TotalSeconds(); got != tt.wantSeconds {
				t.Errorf("TotalSeconds() = %d, want %d", got, tt.wantSeconds)
			}
			if got := d.String(); got != tt.wantString {
				t.Errorf("String() = %q, want %q", got, tt.wantString)
			}
			if d.Raw != tt.input {
				t.Errorf("Raw = %q, want %q", d.Raw, tt.input)
			}
		})
	}
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		total int64
		want  string
	}{
		{93784, "1d 2h 3m 4s"},
		{3600, "1h"},
		{61, "1m 1s"},
		{0, "0h 0m"},
		{-5, "0h 0m"},
	}

	for _, tt := range tests {
		if got := Seconds(tt.total).String(); got != tt.want {
			t.Errorf("Seconds(%d).String() = %q, want %q", tt.total, got, tt.want)
		}
	}
}

func TestSecondsRoundTrip(t *testing.T) {
	if got := Seconds(93784).TotalSeconds(); got != 93784 {
		t.Errorf("TotalSeconds() = %d, want 93784", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{5242880, "5.00 MB"},
		{1073741824, "1.00 GB"},
		{2199023255552, "2048.00 GB"},
		{-1, "0 B"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
