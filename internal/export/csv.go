package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shaneholloman/edgar/internal/core/domain"
)

// RowSource is the slice of the ledger the exporters need.
type RowSource interface {
	ExportRows(ctx context.Context) ([]domain.ExportRow, error)
}

// WriteCSV streams all succeeded executive records to w and reports how many
// rows it wrote.
func WriteCSV(ctx context.Context, ledger RowSource, w io.Writer) (int, error) {
	rows, err := ledger.ExportRows(ctx)
	if err != nil {
		return 0, fmt.Errorf("list export rows: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, 0, len(columns))
		for _, cell := range flatten(row) {
			record = append(record, cellString(cell))
		}
		if err := writer.Write(record); err != nil {
			return 0, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("flush csv: %w", err)
	}
	return len(rows), nil
}
