package statement

import (
	"encoding/csv"
	"io"
	"strings"
)

// parseDelimited handles CSV-like statement text. Decode never fails;
// the csv reader is lenient about ragged rows so that trailing metadata
// lines do not abort the read.
func parseDelimited(data []byte) ([]Candidate, *Report, error) {
	text := decodeText(data)
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows []RawRow
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A single unreadable line is no reason to abandon the file.
			line++
			continue
		}
		rows = append(rows, RawRow{Cells: record, Line: line})
		line++
	}
	return parseRows(rows)
}

// parseRows is the shared pipeline for delimited and spreadsheet input:
// locate the header, map columns, normalize and validate every data row.
func parseRows(rows []RawRow) ([]Candidate, *Report, error) {
	report := &Report{TotalRows: len(rows)}
	if len(rows) == 0 {
		return nil, report, ErrNoRowsFound
	}
	hm, headerIdx, ok := findHeader(rows)
	if !ok {
		return nil, report, ErrNoHeaderFound
	}
	dataRows := rows[headerIdx+1:]
	if len(dataRows) == 0 {
		return nil, report, ErrNoRowsFound
	}

	var out []Candidate
	for _, row := range dataRows {
		if allEmptyRow(row.Cells) {
			continue
		}
		cand, reason := buildCandidate(row, hm)
		if reason != "" {
			report.RowErrors = append(report.RowErrors, RowError{Line: row.Line, Page: row.Page, Reason: reason})
			continue
		}
		out = append(out, cand)
	}
	report.Kept = len(out)
	if len(out) == 0 {
		return nil, report, ErrNoTransactionsFound
	}
	return out, report, nil
}

// buildCandidate normalizes one mapped row. The returned reason is empty
// on success.
func buildCandidate(row RawRow, hm HeaderMap) (Candidate, string) {
	date, err := parseDate(cellAt(row.Cells, hm.Date))
	if err != nil {
		return Candidate{}, "unparseable date"
	}
	amount, err := parseAmount(cellAt(row.Cells, hm.Amount))
	if err != nil {
		return Candidate{}, "unparseable amount"
	}
	cand := Candidate{
		Date:     date,
		Amount:   amount,
		Merchant: cleanMerchant(cellAt(row.Cells, hm.Merchant)),
	}
	if desc := cleanMerchant(cellAt(row.Cells, hm.Description)); desc != "" && hm.Description != hm.Merchant {
		cand.Description = &desc
	}
	if reason := validateCandidate(cand); reason != "" {
		return Candidate{}, reason
	}
	return cand, ""
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}
