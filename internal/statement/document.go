package statement

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// cellGap is the horizontal distance, in PDF units, that separates two
// words into different table cells. Tuned against statement layouts
// where intra-cell word spacing stays well under this.
const cellGap = 15.0

// tableSkipPrefixes mark table rows that are running totals rather than
// transactions.
var tableSkipPrefixes = []string{"total", "subtotal", "balance", "grand total"}

// parseDocument handles page-structured documents. Per page it tries
// table extraction first; a page with no usable table rows falls back to
// its text layer and the line scanner. Results from all pages are
// aggregated.
func parseDocument(data []byte) (cands []Candidate, report *Report, err error) {
	defer func() {
		// The pdf library panics on some malformed cross-reference
		// tables; a broken upload must surface as an error, not a crash.
		if r := recover(); r != nil {
			cands, report = nil, nil
			err = fmt.Errorf("read document: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("read document: %w", err)
	}
	numPages := reader.NumPage()
	if numPages == 0 {
		return nil, nil, ErrNoRowsFound
	}

	report = &Report{}
	var out []Candidate
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		report.PagesParsed++

		rows := pageTableRows(page, i)
		report.TotalRows += len(rows)
		pageCands := tableCandidates(rows, report)
		if len(pageCands) == 0 {
			pageCands = textCandidates(pageText(page), i, report)
		}
		out = append(out, pageCands...)
	}

	report.Kept = len(out)
	if len(out) == 0 {
		return nil, report, ErrNoTransactionsFound
	}
	return out, report, nil
}

// pageTableRows reconstructs table rows for one page from positioned
// words: words on the same text row are split into cells wherever a
// horizontal gap larger than cellGap appears.
func pageTableRows(page pdf.Page, pageNum int) []RawRow {
	textRows, err := page.GetTextByRow()
	if err != nil {
		return nil
	}
	var rows []RawRow
	for line, tr := range textRows {
		var cells []string
		var cell strings.Builder
		var prevEnd float64
		for i, word := range tr.Content {
			if i > 0 && word.X-prevEnd > cellGap {
				cells = append(cells, cell.String())
				cell.Reset()
			} else if i > 0 {
				cell.WriteByte(' ')
			}
			cell.WriteString(word.S)
			prevEnd = word.X + word.W
		}
		if cell.Len() > 0 {
			cells = append(cells, cell.String())
		}
		if allEmptyRow(cells) {
			continue
		}
		rows = append(rows, RawRow{Cells: cells, Line: line, Page: pageNum})
	}
	return rows
}

// tableCandidates runs the shared header/row pipeline over one page's
// table rows, with the extra skip for running-total rows. Failure to
// find a header on a page is not an error; the caller falls back to the
// text layer.
func tableCandidates(rows []RawRow, report *Report) []Candidate {
	hm, headerIdx, ok := findHeader(rows)
	if !ok {
		return nil
	}
	var out []Candidate
	for _, row := range rows[headerIdx+1:] {
		if isTotalsRow(row.Cells) {
			continue
		}
		cand, reason := buildCandidate(row, hm)
		if reason != "" {
			report.RowErrors = append(report.RowErrors, RowError{Line: row.Line, Page: row.Page, Reason: reason})
			continue
		}
		out = append(out, cand)
	}
	return out
}

func isTotalsRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(cells[0]))
	for _, p := range tableSkipPrefixes {
		if strings.HasPrefix(first, p) {
			return true
		}
	}
	return false
}

// pageText returns the plain-text layer of a page with its fonts
// resolved, empty string when extraction fails.
func pageText(page pdf.Page) string {
	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}
	text, err := page.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return text
}
