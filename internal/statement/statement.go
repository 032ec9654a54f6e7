package statement

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the declared format of an uploaded statement file.
type Kind string

const (
	// KindDelimited is plain delimited text (CSV and friends).
	KindDelimited Kind = "delimited"
	// KindSpreadsheet is an Excel workbook (xlsx or legacy xls); rows are
	// extracted and then run through the same header/row pipeline as
	// delimited text.
	KindSpreadsheet Kind = "spreadsheet"
	// KindTabularDocument is a page-structured document (PDF) whose pages
	// may carry zero or more extractable tables plus a text layer.
	KindTabularDocument Kind = "tabular-document"
)

// Sentinel errors for document-level parse failures. Row-level problems
// are never fatal; they surface as RowError values in the parse report.
var (
	ErrNoHeaderFound       = errors.New("transaction header row not found in statement")
	ErrNoRowsFound         = errors.New("no data rows found after the transaction header")
	ErrNoTransactionsFound = errors.New("no valid transactions found in statement")
)

// Candidate is a parsed-but-not-yet-persisted transaction. The amount is
// always the absolute value; sign semantics (debit vs credit) are a
// presentation concern and are not stored here.
type Candidate struct {
	Date        time.Time
	Amount      decimal.Decimal
	Merchant    string
	Description *string
}

// RawRow is one tokenized row of the source document. Ephemeral; it never
// leaves the parser.
type RawRow struct {
	Cells []string
	// Line is the 0-based row index within the source (or within the page
	// for tabular documents). Used for diagnostics only.
	Line int
	// Page is the 1-based page number for tabular documents, 0 otherwise.
	Page int
}

// HeaderMap maps the semantic statement fields to column indices. A value
// of -1 means the field was not resolved. Date and Amount are mandatory;
// Merchant may be defaulted to the column following Date.
type HeaderMap struct {
	Date        int
	Amount      int
	Merchant    int
	Description int
}

// RowError records why a single row was dropped. Dropping a row is policy,
// not failure: statements interleave summary and metadata rows with real
// transactions, and a false accept is worse than a false drop.
type RowError struct {
	Line   int
	Page   int
	Reason string
}

func (e RowError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("page %d row %d skipped: %s", e.Page, e.Line, e.Reason)
	}
	return fmt.Sprintf("row %d skipped: %s", e.Line, e.Reason)
}

// Report carries the non-fatal leftovers of a parse: every dropped row and
// the per-page counts, for audit logging by the caller.
type Report struct {
	TotalRows   int
	Kept        int
	RowErrors   []RowError
	PagesParsed int
}

// Parse extracts candidate transactions from raw statement bytes.
// It is deterministic: the same bytes always yield the same candidates.
// Duplicate suppression against already-persisted transactions is the
// caller's responsibility, not the parser's.
func Parse(data []byte, kind Kind) ([]Candidate, *Report, error) {
	switch kind {
	case KindDelimited:
		return parseDelimited(data)
	case KindSpreadsheet:
		rows, err := spreadsheetRows(data)
		if err != nil {
			return nil, nil, fmt.Errorf("read spreadsheet: %w", err)
		}
		return parseRows(rows)
	case KindTabularDocument:
		return parseDocument(data)
	default:
		return nil, nil, fmt.Errorf("unsupported statement kind %q", kind)
	}
}
