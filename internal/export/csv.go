// Package export renders a user's transactions to external destinations:
// CSV files on disk and Google Sheets.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"
)

var csvHeader = []string{"Date", "Amount", "Description", "Category", "Type"}

// CSVExporter writes one CSV file per export under a base directory.
type CSVExporter struct {
	dir string
}

func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{dir: dir}
}

// Export writes the transactions to a timestamped CSV file and returns its
// path. Dates render as YYYY-MM-DD, amounts with decimal.String precision.
func (e *CSVExporter) Export(ctx context.Context, userID string, txs []core.Transaction) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	name := fmt.Sprintf("transactions_%s_%s.csv", userID, time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(e.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	for _, t := range txs {
		record := []string{
			t.Date.Format("2006-01-02"),
			t.Amount.String(),
			t.Description,
			t.Category,
			string(t.Type),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return path, nil
}
