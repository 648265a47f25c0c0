package question

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readWorkbookRows returns the rows of the first sheet. The first row is the
// header, the same as a CSV file.
func readWorkbookRows(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWorkbook, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: no sheets", ErrMalformedWorkbook)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read rows: %v", ErrMalformedWorkbook, err)
	}
	return rows, nil
}

// ExportColumns is the canonical column order of exported banks.
var ExportColumns = []Field{
	FieldID,
	FieldQuestion,
	FieldChoiceA,
	FieldChoiceB,
	FieldChoiceC,
	FieldChoiceD,
	FieldChoiceE,
	FieldCorrectChoice,
	FieldCategory,
	FieldDifficulty,
	FieldReference,
	FieldFillInBlank,
	FieldFillAnswer,
	FieldOpenBook,
}

// WriteWorkbook renders records as a single-sheet workbook that ParseBank can
// read back.
func WriteWorkbook(records []Record) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, col := range ExportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, string(col))
	}
	for i, rec := range records {
		row := i + 2
		for col, field := range ExportColumns {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellStr(sheet, cell, rec[field])
		}
	}
	_ = f.SetColWidth(sheet, "A", "N", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
