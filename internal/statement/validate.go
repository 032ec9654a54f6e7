package statement

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// boilerplateKeywords mark rows that are statement furniture rather than
// transactions: balances, limits, payment summaries. A merchant cell
// containing any of these is dropped outright.
var boilerplateKeywords = []string{
	"opening balance",
	"closing balance",
	"minimum payment",
	"credit limit",
	"statement",
	"summary",
	"total",
	"available credit",
	"payment received",
	"auto payment",
	"amount due",
}

var (
	largeAmountCutoff  = decimal.NewFromInt(5000)
	shortMerchantLimit = 10
)

// validateCandidate applies the acceptance policy to a fully normalized
// candidate. It returns the empty string when the candidate is accepted,
// otherwise the reason it was dropped.
func validateCandidate(c Candidate) string {
	if c.Date.IsZero() {
		return "missing date"
	}
	merchant := strings.ToLower(c.Merchant)
	if merchant == "" {
		return "missing merchant"
	}
	for _, kw := range boilerplateKeywords {
		if strings.Contains(merchant, kw) {
			return "boilerplate row: " + kw
		}
	}
	if len(merchant) < 3 {
		return "merchant too short"
	}
	if isNumericOnly(merchant) {
		return "merchant is numeric"
	}
	if !c.Amount.IsPositive() {
		return "non-positive amount"
	}
	// A huge amount paired with a near-anonymous merchant is almost
	// always a balance figure that slipped past the header keywords.
	if c.Amount.GreaterThan(largeAmountCutoff) && len(merchant) < shortMerchantLimit {
		return "suspicious large amount with short merchant"
	}
	return ""
}

func isNumericOnly(s string) bool {
	seen := false
	for _, r := range s {
		if unicode.IsDigit(r) {
			seen = true
			continue
		}
		if r == '.' || r == '-' || r == ' ' || r == ',' {
			continue
		}
		return false
	}
	return seen
}
