package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type stubExporter struct {
	path string
	err  error
	seen []core.Transaction
}

func (s *stubExporter) Export(_ context.Context, _ string, txs []core.Transaction) (string, error) {
	s.seen = txs
	return s.path, s.err
}

func seedTransactions(t *testing.T, store *ledger.MemoryStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := store.Insert(context.Background(), core.Transaction{
			UserID:   "user-1",
			Amount:   decimal.NewFromInt(int64(i + 1)),
			Category: "food",
			Type:     core.Expense,
			Date:     time.Date(2024, time.March, i+1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
}

func TestProcessCompletedExport(t *testing.T) {
	store := ledger.NewMemoryStore()
	seedTransactions(t, store, 3)
	exp := &stubExporter{path: "/exports/out.csv"}
	w := NewExportWorker(store, map[string]Exporter{"csv": exp})

	logged, err := w.Process(context.Background(), "user-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, core.ExportCompleted, logged.Status)
	assert.Equal(t, "/exports/out.csv", logged.FilePath)
	assert.Len(t, exp.seen, 3)

	logs, err := store.ListExportLogs(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "csv", logs[0].ExportType)
}

func TestProcessFailedExportRecordsLog(t *testing.T) {
	store := ledger.NewMemoryStore()
	exp := &stubExporter{err: errors.New("disk full")}
	w := NewExportWorker(store, map[string]Exporter{"csv": exp})

	logged, err := w.Process(context.Background(), "user-1", "csv")
	require.Error(t, err)
	assert.Equal(t, core.ExportFailed, logged.Status)
	assert.Empty(t, logged.FilePath)

	logs, err := store.ListExportLogs(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, core.ExportFailed, logs[0].Status)
}

func TestProcessUnsupportedExportType(t *testing.T) {
	store := ledger.NewMemoryStore()
	w := NewExportWorker(store, map[string]Exporter{"csv": &stubExporter{}})

	logged, err := w.Process(context.Background(), "user-1", "pdf")
	require.Error(t, err)
	assert.Equal(t, core.ExportFailed, logged.Status)
}

func TestHandleExportRequestAcksFailures(t *testing.T) {
	store := ledger.NewMemoryStore()
	w := NewExportWorker(store, map[string]Exporter{"csv": &stubExporter{err: errors.New("boom")}})

	err := w.HandleExportRequest(context.Background(), &amqp.ExportRequest{
		UserID:     "user-1",
		ExportType: "csv",
	})
	assert.NoError(t, err, "failed exports are recorded, not requeued")

	logs, err := store.ListExportLogs(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
