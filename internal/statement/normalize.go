package statement

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts is ordered: day-first layouts come before month-first so
// that ambiguous values like 04/05/2024 resolve as 4 May, which is what
// bank statements in the supported regions use. First successful parse
// wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"01-02-2006",
	"02.01.2006",
	"02/01/06",
	"02 Jan 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"Jan 02, 2006",
	"January 2, 2006",
}

var errBadDate = errors.New("unparseable date")

// parseDate tries every known layout in order. It also accepts Excel
// serial date numbers, which xls/xlsx tokenizers emit for date-formatted
// cells.
func parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errBadDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	// Excel serial date (days since 1899-12-30).
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 25569 && serial < 80000 {
		epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
		return epoch.AddDate(0, 0, int(serial)), nil
	}
	return time.Time{}, errBadDate
}

var amountKeepRe = regexp.MustCompile(`[^0-9.\-]`)

var errBadAmount = errors.New("unparseable amount")

// parseAmount normalizes a raw amount cell into an absolute decimal.
// Handles currency symbols, thousands separators, parenthesized
// negatives and Dr/Cr suffixes; the sign is always discarded.
func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, errBadAmount
	}
	// (500.00) means a negative on card statements; the magnitude is
	// what we keep.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	upper := strings.ToUpper(s)
	for _, suffix := range []string{" DR", " CR", "DR", "CR"} {
		if strings.HasSuffix(upper, suffix) && len(s) > len(suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
			break
		}
	}
	s = amountKeepRe.ReplaceAllString(s, "")
	if s == "" || s == "-" || s == "." {
		return decimal.Zero, errBadAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errBadAmount
	}
	return d.Abs(), nil
}

var merchantSpaceRe = regexp.MustCompile(`\s+`)

// cleanMerchant collapses whitespace and strips embedded newlines that
// document table extraction leaves inside cells.
func cleanMerchant(raw string) string {
	s := strings.ReplaceAll(raw, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(merchantSpaceRe.ReplaceAllString(s, " "))
}

func allEmptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
