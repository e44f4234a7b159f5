package dataset

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads the grade dataset from an Excel workbook.
type XLSXSource struct {
	Path  string
	Sheet string // empty selects the first sheet
}

// Describe identifies the source for logs and dataset metadata.
func (s *XLSXSource) Describe() string {
	if s.Sheet != "" {
		return "xlsx:" + s.Path + "#" + s.Sheet
	}
	return "xlsx:" + s.Path
}

// Rows reads the sheet into raw rows through the same decoding path as the
// CSV source.
func (s *XLSXSource) Rows(ctx context.Context) ([]Row, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &SchemaError{Column: "*", Reason: "workbook has no sheets"}
		}
		sheet = sheets[0]
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(cells) == 0 {
		return nil, &SchemaError{Column: "*", Reason: fmt.Sprintf("sheet %q has no header row", sheet)}
	}
	return decodeCells(cells[0], cells[1:])
}
