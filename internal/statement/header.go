package statement

import "strings"

// headerScanLimit bounds how deep we look for the header row. Statements
// put account metadata above the table, but never this much of it.
const headerScanLimit = 20

var (
	dateAliases = []string{
		"transaction date", "posting date", "value date", "txn date",
		"trans date", "date",
	}
	amountAliases = []string{
		"transaction amount", "debit", "credit", "withdrawal", "deposit",
		"value", "amount",
	}
	merchantAliases = []string{
		"merchant", "payee", "description", "particulars", "narration",
		"remarks", "details", "transaction details",
	}
	descriptionAliases = []string{
		"memo", "reference", "ref no", "notes", "remarks", "narration",
	}
)

func matchAlias(cell string, aliases []string) bool {
	c := strings.ToLower(strings.TrimSpace(cell))
	if c == "" {
		return false
	}
	for _, a := range aliases {
		if strings.Contains(c, a) {
			return true
		}
	}
	return false
}

// isHeaderRow reports whether a row looks like the transaction table
// header: it must name both a date-like and an amount-like column.
func isHeaderRow(cells []string) bool {
	hasDate, hasAmount := false, false
	for _, cell := range cells {
		if matchAlias(cell, dateAliases) {
			hasDate = true
		}
		if matchAlias(cell, amountAliases) {
			hasAmount = true
		}
	}
	return hasDate && hasAmount
}

// resolveHeader maps header cells to field columns. Date and Amount are
// mandatory; when no merchant column resolves it defaults to the column
// right after the date, which is where statements without an explicit
// payee header put the narration.
func resolveHeader(cells []string) (HeaderMap, bool) {
	hm := HeaderMap{Date: -1, Amount: -1, Merchant: -1, Description: -1}
	for i, cell := range cells {
		switch {
		case hm.Date < 0 && matchAlias(cell, dateAliases):
			hm.Date = i
		case hm.Amount < 0 && matchAlias(cell, amountAliases):
			hm.Amount = i
		case hm.Merchant < 0 && matchAlias(cell, merchantAliases):
			hm.Merchant = i
		case hm.Description < 0 && matchAlias(cell, descriptionAliases):
			hm.Description = i
		}
	}
	if hm.Date < 0 || hm.Amount < 0 {
		return hm, false
	}
	if hm.Merchant < 0 {
		candidate := hm.Date + 1
		if candidate < len(cells) && candidate != hm.Amount {
			hm.Merchant = candidate
		}
	}
	return hm, true
}

// findHeader scans the first headerScanLimit rows for the header row and
// returns its resolved map plus its index.
func findHeader(rows []RawRow) (HeaderMap, int, bool) {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	for i := 0; i < limit; i++ {
		if !isHeaderRow(rows[i].Cells) {
			continue
		}
		if hm, ok := resolveHeader(rows[i].Cells); ok {
			return hm, i, true
		}
	}
	return HeaderMap{Date: -1, Amount: -1, Merchant: -1, Description: -1}, -1, false
}
