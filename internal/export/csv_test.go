package export

import (
	"context"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestCSVExport(t *testing.T) {
	exporter := NewCSVExporter(t.TempDir())
	txs := []core.Transaction{
		{
			UserID:      "user-1",
			Amount:      decimal.RequireFromString("12.50"),
			Description: "lunch",
			Category:    "food",
			Type:        core.Expense,
			Date:        time.Date(2024, time.March, 10, 14, 30, 0, 0, time.UTC),
		},
		{
			UserID:   "user-1",
			Amount:   decimal.RequireFromString("1000"),
			Category: "salary",
			Type:     core.Income,
			Date:     time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	path, err := exporter.Export(context.Background(), "user-1", txs)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"Date", "Amount", "Description", "Category", "Type"}, records[0])
	assert.Equal(t, []string{"2024-03-10", "12.5", "lunch", "food", "expense"}, records[1])
	assert.Equal(t, []string{"2024-03-01", "1000", "", "salary", "income"}, records[2])
}

func TestCSVExportEmptyLedger(t *testing.T) {
	exporter := NewCSVExporter(t.TempDir())

	path, err := exporter.Export(context.Background(), "user-1", nil)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1, "header only")
}

func TestCSVExportCreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/exports"
	exporter := NewCSVExporter(dir)

	path, err := exporter.Export(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
