package validation

import (
	"testing"
	"time"
)

func TestIsValidMobile(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"9876543210", true},
		{"6000000000", true},
		{"5876543210", false}, // must start 6-9
		{"987654321", false},  // 9 digits
		{"98765432100", false},
		{"98765a3210", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidMobile(tt.input); got != tt.want {
			t.Errorf("IsValidMobile(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsValidNationalID(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"123456789012", true},
		{"12345678901", false},
		{"1234567890123", false},
		{"12345678901a", false},
	}
	for _, tt := range tests {
		if got := IsValidNationalID(tt.input); got != tt.want {
			t.Errorf("IsValidNationalID(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsValidVoterCode(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"ABC1234567", true},
		{"abc1234567", false},
		{"AB12345678", false},
		{"ABC123456", false},
		{"ABCD123456", false},
	}
	for _, tt := range tests {
		if got := IsValidVoterCode(tt.input); got != tt.want {
			t.Errorf("IsValidVoterCode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeMobile(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"9876543210", "9876543210"},
		{" 9876543210 ", "9876543210"},
		{"+91 98765 43210", "9876543210"},
		{"+919876543210", "9876543210"},
		{"098765 43210", "9876543210"},
		{"+1 415 555 2671", "+1 415 555 2671"}, // foreign numbers are left alone
		{"not a number", "not a number"},
	}
	for _, tt := range tests {
		if got := NormalizeMobile(tt.input); got != tt.want {
			t.Errorf("NormalizeMobile(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAgeAt(t *testing.T) {
	dob := time.Date(2006, time.June, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"day before 18th birthday", time.Date(2024, time.June, 14, 12, 0, 0, 0, time.UTC), 17},
		{"on 18th birthday", time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), 18},
		{"earlier month", time.Date(2024, time.May, 30, 0, 0, 0, 0, time.UTC), 17},
		{"later month", time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), 18},
		{"before birth", time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeAt(dob, tt.now); got != tt.want {
				t.Errorf("AgeAt = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsAdultAt(t *testing.T) {
	now := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	if IsAdultAt(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), now) {
		t.Error("expected someone born in 2010 to be underage in 2024")
	}
	if !IsAdultAt(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), now) {
		t.Error("expected someone born in 2000 to be an adult in 2024")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("1990-01-31")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if d.Year() != 1990 || d.Month() != time.January || d.Day() != 31 {
		t.Errorf("unexpected date %v", d)
	}

	if _, err := ParseDate("31/01/1990"); err == nil {
		t.Error("expected error for wrong layout")
	}
}
