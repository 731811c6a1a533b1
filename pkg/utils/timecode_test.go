package utils

import "testing"

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{61.9, "00:01:01"},
		{3661, "01:01:01"},
		{7325, "02:02:05"},
		{-5, "00:00:00"},
	}

	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.want {
			t.Errorf("FormatTimestamp(%v) = %s, want %s", tt.seconds, got, tt.want)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00:00", 0},
		{"01:01:01", 3661},
		{"12:34", 754},
		{"90", 90},
		{" 00:10:00 ", 600},
		{"abc", 0},
		{"1:xx:00", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := ParseTimestamp(tt.in); got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	for _, seconds := range []int{0, 59, 61, 3599, 3600, 86399} {
		formatted := FormatTimestamp(float64(seconds))
		if got := ParseTimestamp(formatted); got != seconds {
			t.Errorf("往返转换失败: %d -> %s -> %d", seconds, formatted, got)
		}
	}
}
