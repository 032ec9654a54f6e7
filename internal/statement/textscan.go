package statement

import (
	"regexp"
	"strings"
)

// txnLineRe matches a full transaction line in extracted statement text:
// a leading date, merchant text, and a trailing amount which may carry a
// currency symbol, parentheses or a Dr/Cr suffix.
var txnLineRe = regexp.MustCompile(`(?i)^(\d{4}-\d{2}-\d{2}|\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}|\d{1,2} [A-Za-z]{3} \d{4})\s+(.+?)\s+\(?-?[$€£₹]?([\d,]+(?:\.\d{1,2})?)\)?\s*(?:dr|cr)?$`)

var (
	dateTokenRe   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4}`)
	amountTokenRe = regexp.MustCompile(`[$€£₹]?[\d,]+\.\d{2}\b`)
)

// textCandidates scans a page's plain-text layer for transaction lines.
// The combined regex handles the common one-line-per-transaction layout;
// if it matches nothing, a looser positional pass pairs the first date
// token and the last amount token on each line and treats the text in
// between as the merchant.
func textCandidates(text string, pageNum int, report *Report) []Candidate {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(text, "\n")

	out := scanLines(lines, pageNum, report, matchTxnLine)
	if len(out) == 0 {
		out = scanLines(lines, pageNum, report, matchPositional)
	}
	return out
}

type lineMatch func(line string) (date, merchant, amount string, ok bool)

func scanLines(lines []string, pageNum int, report *Report, match lineMatch) []Candidate {
	var out []Candidate
	for i, line := range lines {
		date, merchant, amount, ok := match(strings.TrimSpace(line))
		if !ok {
			continue
		}
		cand, reason := buildTextCandidate(date, merchant, amount)
		if reason != "" {
			report.RowErrors = append(report.RowErrors, RowError{Line: i, Page: pageNum, Reason: reason})
			continue
		}
		out = append(out, cand)
	}
	return out
}

func matchTxnLine(line string) (string, string, string, bool) {
	m := txnLineRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

// matchPositional is the loose fallback for layouts the combined regex
// misses, such as amounts in a debit column left of a balance column.
// It takes the first date-like token and the last amount-like token and
// requires the merchant to sit between them.
func matchPositional(line string) (string, string, string, bool) {
	dateLoc := dateTokenRe.FindStringIndex(line)
	if dateLoc == nil {
		return "", "", "", false
	}
	amountLocs := amountTokenRe.FindAllStringIndex(line, -1)
	if len(amountLocs) == 0 {
		return "", "", "", false
	}
	amountLoc := amountLocs[len(amountLocs)-1]
	if amountLoc[0] <= dateLoc[1] {
		return "", "", "", false
	}
	date := line[dateLoc[0]:dateLoc[1]]
	merchant := line[dateLoc[1]:amountLoc[0]]
	amount := line[amountLoc[0]:amountLoc[1]]
	return date, merchant, amount, true
}

func buildTextCandidate(rawDate, rawMerchant, rawAmount string) (Candidate, string) {
	date, err := parseDate(rawDate)
	if err != nil {
		return Candidate{}, "unparseable date"
	}
	amount, err := parseAmount(rawAmount)
	if err != nil {
		return Candidate{}, "unparseable amount"
	}
	cand := Candidate{Date: date, Amount: amount, Merchant: cleanMerchant(rawMerchant)}
	if reason := validateCandidate(cand); reason != "" {
		return Candidate{}, reason
	}
	return cand, ""
}
