package statement

import (
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"currency and thousands", "$1,200.50", "1200.5", false},
		{"parenthesized negative", "(500.00)", "500", false},
		{"debit suffix", "500.00 Dr", "500", false},
		{"credit suffix", "50.00 Cr", "50", false},
		{"bare negative", "-500", "500", false},
		{"plain", "42.07", "42.07", false},
		{"rupee symbol", "₹2,300.00", "2300", false},
		{"empty", "", "", true},
		{"words only", "pending", "", true},
		{"lone minus", "-", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseAmount(%q) = %s, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseAmount(%q): %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("parseAmount(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"iso", "2024-05-04", time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)},
		{"day first wins ambiguity", "04/05/2024", time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)},
		{"unambiguous month first", "12/25/2024", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)},
		{"dotted", "04.05.2024", time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)},
		{"month name", "04 May 2024", time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC)},
		{"iso with time", "2024-05-04 13:45:00", time.Date(2024, 5, 4, 13, 45, 0, 0, time.UTC)},
		{"excel serial", "45234", time.Date(2023, 11, 4, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.in)
			if err != nil {
				t.Fatalf("parseDate(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if _, err := parseDate("not a date"); err == nil {
		t.Error("parseDate accepted garbage")
	}
}

func TestCleanMerchant(t *testing.T) {
	got := cleanMerchant("  AMAZON\nMARKETPLACE   LLC ")
	if got != "AMAZON MARKETPLACE LLC" {
		t.Errorf("cleanMerchant = %q", got)
	}
}
