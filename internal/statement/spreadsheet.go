package statement

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// xlsSignature is the OLE compound-file magic that opens every legacy
// .xls workbook. Modern .xlsx files are zip archives ("PK").
var xlsSignature = []byte{0xD0, 0xCF, 0x11, 0xE0}

const maxSpreadsheetRows = 10000

// spreadsheetRows extracts every cell of the first sheet as strings. The
// container format is sniffed from the bytes so a mislabelled extension
// does not matter.
func spreadsheetRows(data []byte) ([]RawRow, error) {
	if bytes.HasPrefix(data, xlsSignature) {
		return xlsRows(data)
	}
	return xlsxRows(data)
}

func xlsxRows(data []byte) ([]RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx workbook has no sheets")
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	rows := make([]RawRow, 0, len(cells))
	for i, record := range cells {
		rows = append(rows, RawRow{Cells: record, Line: i})
	}
	return rows, nil
}

func xlsRows(data []byte) ([]RawRow, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("xls workbook has no sheets")
	}
	cells := wb.ReadAllCells(maxSpreadsheetRows)
	rows := make([]RawRow, 0, len(cells))
	for i, record := range cells {
		rows = append(rows, RawRow{Cells: record, Line: i})
	}
	return rows, nil
}
