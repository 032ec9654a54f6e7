package statement

import (
	"testing"
	"time"
)

func TestTextCandidatesCombinedRegex(t *testing.T) {
	text := `ACME BANK Statement Page 1
Period 01/05/2024 - 31/05/2024

02/05/2024 STARBUCKS COFFEE #441 $5.75
03/05/2024 Opening Balance 1,500.00
04/05/2024 AMAZON MARKETPLACE (42.99)
05/05/2024 UBER TRIP HELSINKI 1,200.50 Dr
`
	report := &Report{}
	cands := textCandidates(text, 1, report)
	if len(cands) != 3 {
		t.Fatalf("got %d candidates: %+v", len(cands), cands)
	}
	if cands[0].Merchant != "STARBUCKS COFFEE #441" || cands[0].Amount.String() != "5.75" {
		t.Errorf("first candidate = %+v", cands[0])
	}
	if !cands[0].Date.Equal(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first candidate date = %v", cands[0].Date)
	}
	if cands[1].Merchant != "AMAZON MARKETPLACE" || cands[1].Amount.String() != "42.99" {
		t.Errorf("second candidate = %+v", cands[1])
	}
	if len(report.RowErrors) != 1 {
		t.Errorf("row errors = %v, want the boilerplate drop only", report.RowErrors)
	}
}

func TestMatchPositional(t *testing.T) {
	tests := []struct {
		name         string
		line         string
		wantOK       bool
		wantMerchant string
		wantAmount   string
	}{
		{"debit and balance columns", "02/05/2024  GROCERY OUTLET  54.20  1,445.80", true, "  GROCERY OUTLET  54.20  ", "1,445.80"},
		{"no date", "GROCERY OUTLET 54.20", false, "", ""},
		{"no amount", "02/05/2024 GROCERY OUTLET", false, "", ""},
		{"amount before date", "54.20 on 02/05/2024", false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, merchant, amount, ok := matchPositional(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("matchPositional(%q) ok = %v, want %v", tt.line, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if merchant != tt.wantMerchant || amount != tt.wantAmount {
				t.Errorf("got merchant %q amount %q, want %q %q", merchant, amount, tt.wantMerchant, tt.wantAmount)
			}
		})
	}
}
