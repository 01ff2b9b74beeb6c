package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Executives"

// WriteXLSX writes all succeeded executive records to an xlsx workbook at
// path and reports how many rows it wrote.
func WriteXLSX(ctx context.Context, ledger RowSource, path string) (int, error) {
	rows, err := ledger.ExportRows(ctx)
	if err != nil {
		return 0, fmt.Errorf("list export rows: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return 0, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := setRow(f, 1, header); err != nil {
		return 0, err
	}
	for i, row := range rows {
		if err := setRow(f, i+2, flatten(row)); err != nil {
			return 0, err
		}
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("save workbook: %w", err)
	}
	return len(rows), nil
}

func setRow(f *excelize.File, rowIndex int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIndex)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", rowIndex, err)
	}
	if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", rowIndex, err)
	}
	return nil
}
