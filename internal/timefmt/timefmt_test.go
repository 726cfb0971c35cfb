package timefmt

import "testing"

// TestFormatClock verifies live-clock rendering at rep boundaries and
// mid-rep tenths.
func TestFormatClock(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "00:00.0"},
		{100, "00:00.1"},
		{9990, "00:09.9"},
		{60000, "01:00.0"},
		{83450, "01:23.4"},
		{-500, "00:00.0"},
	}
	for _, c := range cases {
		if got := FormatClock(c.ms); got != c.want {
			t.Errorf("FormatClock(%d) = %q, want %q", c.ms, got, c.want)
		}
	}
}

// TestFormatSeconds verifies the result-cell format: one decimal always
// present, seconds zero-padded, minutes unbounded.
func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		sec  float64
		want string
	}{
		{0, "0:00.0"},
		{12.3, "0:12.3"},
		{15, "0:15.0"},
		{59.95, "1:00.0"},
		{94.5, "1:34.5"},
		{600, "10:00.0"},
		{3601.2, "60:01.2"},
	}
	for _, c := range cases {
		if got := FormatSeconds(c.sec); got != c.want {
			t.Errorf("FormatSeconds(%v) = %q, want %q", c.sec, got, c.want)
		}
	}
}

// TestParseSecondsForms verifies the three accepted input forms round-trip
// to tenths.
func TestParseSecondsForms(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"2:34.5", 154.5},
		{"0:12", 12},
		{"94.5", 94.5},
		{"94", 94},
		{" 1:05 ", 65},
		{"12.34", 12.3},
	}
	for _, c := range cases {
		got, err := ParseSeconds(c.in)
		if err != nil {
			t.Fatalf("ParseSeconds(%q) error: %v", c.in, err)
		}
		if got == nil || *got != c.want {
			t.Errorf("ParseSeconds(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

// TestParseSecondsEmpty verifies an empty entry means "clear the cell".
func TestParseSecondsEmpty(t *testing.T) {
	got, err := ParseSeconds("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", *got)
	}
}

// TestParseSecondsInvalid verifies malformed input is rejected rather than
// silently coerced.
func TestParseSecondsInvalid(t *testing.T) {
	for _, in := range []string{"1:75", "abc", "-5", "1:2:3", "1:"} {
		if _, err := ParseSeconds(in); err == nil {
			t.Errorf("ParseSeconds(%q): expected error", in)
		}
	}
}
