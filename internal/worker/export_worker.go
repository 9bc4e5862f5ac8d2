// Package worker processes export requests: it reads a user's full ledger,
// hands it to the matching exporter and records the outcome as an export log.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
)

// Exporter renders a user's transactions somewhere and returns a reference
// to the result (a file path or an external resource ref).
type Exporter interface {
	Export(ctx context.Context, userID string, txs []core.Transaction) (string, error)
}

type ExportWorker struct {
	store     ledger.Store
	exporters map[string]Exporter
}

func NewExportWorker(store ledger.Store, exporters map[string]Exporter) *ExportWorker {
	return &ExportWorker{store: store, exporters: exporters}
}

// Process runs one export and appends its log entry. A failed export still
// gets a log row with status failed; the error is returned so direct callers
// can report it.
func (w *ExportWorker) Process(ctx context.Context, userID, exportType string) (core.ExportLog, error) {
	exporter, ok := w.exporters[exportType]
	if !ok {
		return w.record(ctx, userID, exportType, "", fmt.Errorf("unsupported export type %q", exportType))
	}

	txs, err := w.store.List(ctx, userID, ledger.Filters{})
	if err != nil {
		return w.record(ctx, userID, exportType, "", fmt.Errorf("list transactions: %w", err))
	}

	path, err := exporter.Export(ctx, userID, txs)
	return w.record(ctx, userID, exportType, path, err)
}

func (w *ExportWorker) record(ctx context.Context, userID, exportType, path string, exportErr error) (core.ExportLog, error) {
	entry := core.ExportLog{
		UserID:     userID,
		ExportType: exportType,
		FilePath:   path,
		Status:     core.ExportCompleted,
		CreatedAt:  time.Now().UTC(),
	}
	if exportErr != nil {
		entry.Status = core.ExportFailed
		entry.FilePath = ""
	}

	logged, err := w.store.AppendExportLog(ctx, entry)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to append export log",
			applog.FieldUserID, userID,
			applog.FieldExportType, exportType,
			applog.FieldError, err)
		if exportErr != nil {
			return core.ExportLog{}, exportErr
		}
		return core.ExportLog{}, fmt.Errorf("append export log: %w", err)
	}

	if exportErr != nil {
		slog.ErrorContext(ctx, "Export failed",
			applog.FieldUserID, userID,
			applog.FieldExportType, exportType,
			applog.FieldError, exportErr)
		return logged, exportErr
	}
	slog.InfoContext(ctx, "Export completed",
		applog.FieldUserID, userID,
		applog.FieldExportType, exportType,
		applog.FieldFilePath, path)
	return logged, nil
}

// HandleExportRequest adapts Process to the AMQP consumer. Export failures
// are final: the failed log row is the record, so the message is not
// requeued.
func (w *ExportWorker) HandleExportRequest(ctx context.Context, msg *amqp.ExportRequest) error {
	_, _ = w.Process(ctx, msg.UserID, msg.ExportType)
	return nil
}
