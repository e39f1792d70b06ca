package ui

import (
	"testing"
	"time"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   int64 // seconds
		want string
	}{
		{"negative", -5, "now"},
		{"subsecond", 0, "now"},
		{"seconds", 12, "12s"},
		{"minutes", 61, "1m"},
		{"hours_only", 2*60*60 + 10, "2h"},
		{"hours_minutes", 2*60*60 + 3*60, "2h 3m"},
		{"days", 24 * 60 * 60, "1d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := humanizeDuration(timeSeconds(tc.in))
			if got != tc.want {
				t.Fatalf("humanizeDuration(%d) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTruncateMiddle(t *testing.T) {
	if got := truncateMiddle("  ", 10); got != "" {
		t.Fatalf("truncateMiddle blank = %q, want empty", got)
	}
	if got := truncateMiddle("abcd", 2); got != "ab" {
		t.Fatalf("truncateMiddle limit<=3 = %q, want ab", got)
	}
	got := truncateMiddle("/Library/Managed Installs/Logs", 9)
	if got != "/Lib…Logs" {
		t.Fatalf("truncateMiddle = %q, want /Lib…Logs", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("jamf", 7); got != "jamf   " {
		t.Fatalf("padRight = %q, want %q", got, "jamf   ")
	}
	if got := padRight("anything", 0); got != "" {
		t.Fatalf("padRight zero width = %q, want empty", got)
	}
	if got := padRight("ManagedSoftwareUpdate", 8); len([]rune(got)) != 8 {
		t.Fatalf("padRight = %q (%d runes), want 8", got, len([]rune(got)))
	}
}

func timeSeconds(sec int64) time.Duration {
	return time.Duration(sec) * time.Second
}
