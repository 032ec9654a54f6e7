package statement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTableCandidates(t *testing.T) {
	rows := []RawRow{
		{Cells: []string{"Date", "Particulars", "Amount"}, Line: 0, Page: 1},
		{Cells: []string{"2024-03-05", "STARBUCKS COFFEE 441", "$5.75"}, Line: 1, Page: 1},
		{Cells: []string{"2024-03-06", "AMAZON\nMARKETPLACE", "42.99"}, Line: 2, Page: 1},
		{Cells: []string{"Total", "", "48.74"}, Line: 3, Page: 1},
		{Cells: []string{"2024-03-07", "Closing Balance", "1000.00"}, Line: 4, Page: 1},
		{Cells: []string{"2024-03-08", "UBER TRIP", "not a number"}, Line: 5, Page: 1},
	}

	report := &Report{}
	cands := tableCandidates(rows, report)

	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(cands), cands)
	}
	wantDate := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if !cands[0].Date.Equal(wantDate) || cands[0].Merchant != "STARBUCKS COFFEE 441" {
		t.Errorf("first candidate = %v %q", cands[0].Date, cands[0].Merchant)
	}
	if !cands[0].Amount.Equal(decimal.RequireFromString("5.75")) {
		t.Errorf("first amount = %s, want 5.75", cands[0].Amount)
	}
	// Embedded newlines in a cell collapse to a single space.
	if cands[1].Merchant != "AMAZON MARKETPLACE" {
		t.Errorf("second merchant = %q, want %q", cands[1].Merchant, "AMAZON MARKETPLACE")
	}

	// The totals row is skipped silently; the boilerplate merchant and
	// the unparseable amount are counted as dropped rows.
	if len(report.RowErrors) != 2 {
		t.Fatalf("got %d row errors, want 2: %+v", len(report.RowErrors), report.RowErrors)
	}
	for _, re := range report.RowErrors {
		if re.Page != 1 {
			t.Errorf("row error missing page: %+v", re)
		}
	}
}

func TestTableCandidatesNoHeader(t *testing.T) {
	rows := []RawRow{
		{Cells: []string{"Account Statement"}, Line: 0, Page: 1},
		{Cells: []string{"2024-03-05", "STARBUCKS COFFEE 441", "5.75"}, Line: 1, Page: 1},
	}
	report := &Report{}
	if cands := tableCandidates(rows, report); cands != nil {
		t.Fatalf("got %+v, want nil without a header row", cands)
	}
	if len(report.RowErrors) != 0 {
		t.Fatalf("headerless page must not record row errors, got %+v", report.RowErrors)
	}
}

func TestIsTotalsRow(t *testing.T) {
	tests := []struct {
		cells []string
		want  bool
	}{
		{[]string{"Total", "", "48.74"}, true},
		{[]string{"  SUBTOTAL"}, true},
		{[]string{"Balance carried forward"}, true},
		{[]string{"Grand Total", "99.00"}, true},
		{[]string{"2024-03-05", "STARBUCKS", "5.75"}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := isTotalsRow(tt.cells); got != tt.want {
			t.Errorf("isTotalsRow(%v) = %v, want %v", tt.cells, got, tt.want)
		}
	}
}
