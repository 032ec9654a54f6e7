package statement

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const sampleCSV = `Account Statement
Account Number,1234567890
Period,2024-05-01 to 2024-05-31

Date,Description,Amount
2024-05-02,STARBUCKS COFFEE #441,5.75
2024-05-03,Opening Balance,1500.00
2024-05-04,AMAZON MARKETPLACE,(42.99)
2024-05-05,UBER TRIP HELSINKI,"1,200.50 Dr"
2024-05-06,99,10.00
2024-05-07,TX,10.00
2024-05-08,WIRE,9000.00
not-a-date,SOMETHING VALID HERE,25.00
2024-05-09,PAYROLL DEPOSIT,0.00
`

func TestParseDelimited(t *testing.T) {
	cands, report, err := Parse([]byte(sampleCSV), KindDelimited)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []Candidate{
		{Date: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("5.75"), Merchant: "STARBUCKS COFFEE #441"},
		{Date: time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("42.99"), Merchant: "AMAZON MARKETPLACE"},
		{Date: time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("1200.50"), Merchant: "UBER TRIP HELSINKI"},
	}
	if len(cands) != len(want) {
		t.Fatalf("got %d candidates, want %d: %+v", len(cands), len(want), cands)
	}
	for i := range want {
		if !cands[i].Date.Equal(want[i].Date) || !cands[i].Amount.Equal(want[i].Amount) || cands[i].Merchant != want[i].Merchant {
			t.Errorf("candidate %d = %+v, want %+v", i, cands[i], want[i])
		}
	}

	// One row per dropped data line: boilerplate, numeric merchant, short
	// merchant, large-amount short-merchant, bad date, zero amount.
	if len(report.RowErrors) != 6 {
		t.Errorf("got %d row errors, want 6: %v", len(report.RowErrors), report.RowErrors)
	}
}

func TestParseDeterministic(t *testing.T) {
	first, _, err := Parse([]byte(sampleCSV), KindDelimited)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := Parse([]byte(sampleCSV), KindDelimited)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("same bytes produced different candidates")
	}
}

func TestParseFailureModes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty file", "", ErrNoRowsFound},
		{"no header", "alpha,beta\n1,2\n", ErrNoHeaderFound},
		{"header only", "Date,Merchant,Amount\n", ErrNoRowsFound},
		{"no valid rows", "Date,Merchant,Amount\n2024-05-01,Opening Balance,100.00\n", ErrNoTransactionsFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.in), KindDelimited)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseWindows1252(t *testing.T) {
	// 0xE9 is é in Windows-1252 and invalid as a standalone UTF-8 byte.
	csv := []byte("Date,Description,Amount\n2024-05-02,CAF\xe9 DU MONDE,12.50\n")
	cands, _, err := Parse(csv, KindDelimited)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cands) != 1 || cands[0].Merchant != "CAFé DU MONDE" {
		t.Errorf("got %+v", cands)
	}
}

func TestHeaderBeyondScanLimit(t *testing.T) {
	var in string
	for i := 0; i < headerScanLimit; i++ {
		in += "metadata,line\n"
	}
	in += "Date,Merchant,Amount\n2024-05-02,STARBUCKS,5.75\n"
	_, _, err := Parse([]byte(in), KindDelimited)
	if !errors.Is(err, ErrNoHeaderFound) {
		t.Errorf("Parse error = %v, want ErrNoHeaderFound", err)
	}
}

func TestValidateCandidate(t *testing.T) {
	base := func() Candidate {
		return Candidate{
			Date:     time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			Amount:   decimal.RequireFromString("20.00"),
			Merchant: "STARBUCKS COFFEE",
		}
	}
	tests := []struct {
		name   string
		mutate func(*Candidate)
		wantOK bool
	}{
		{"valid", func(c *Candidate) {}, true},
		{"missing date", func(c *Candidate) { c.Date = time.Time{} }, false},
		{"missing merchant", func(c *Candidate) { c.Merchant = "" }, false},
		{"boilerplate", func(c *Candidate) { c.Merchant = "Total Available Credit" }, false},
		{"short merchant", func(c *Candidate) { c.Merchant = "AB" }, false},
		{"numeric merchant", func(c *Candidate) { c.Merchant = "123 456" }, false},
		{"zero amount", func(c *Candidate) { c.Amount = decimal.Zero }, false},
		{"large amount short merchant", func(c *Candidate) {
			c.Amount = decimal.RequireFromString("5000.01")
			c.Merchant = "ACME CO"
		}, false},
		{"large amount long merchant", func(c *Candidate) {
			c.Amount = decimal.RequireFromString("5000.01")
			c.Merchant = "ACME INDUSTRIAL SUPPLY"
		}, true},
		{"exactly at cutoff", func(c *Candidate) {
			c.Amount = decimal.RequireFromString("5000.00")
			c.Merchant = "ACME CO"
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			reason := validateCandidate(c)
			if (reason == "") != tt.wantOK {
				t.Errorf("validateCandidate(%+v) = %q, want ok=%v", c, reason, tt.wantOK)
			}
		})
	}
}
