package services

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// RecurrenceEngine projects the next occurrence of recurring transactions.
// Transactions with an interval it cannot interpret are skipped and counted,
// never fatal for the caller.
type RecurrenceEngine struct {
	anomalies atomic.Int64
}

func NewRecurrenceEngine() *RecurrenceEngine {
	return &RecurrenceEngine{}
}

// ProjectNext builds the successor of a recurring transaction: same amount,
// category, type and recurrence settings, dated one interval after t.Date.
// Month-end dates clamp to the last day of shorter months. The successor has
// no ID; the store assigns one on insert.
func (e *RecurrenceEngine) ProjectNext(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	next, err := core.AddInterval(t.Date, t.RecurringInterval)
	if err != nil {
		if errors.Is(err, core.ErrUnknownInterval) {
			e.anomalies.Add(1)
			slog.WarnContext(ctx, "Skipping recurring transaction with unknown interval",
				applog.FieldTransactionID, t.ID,
				applog.FieldInterval, string(t.RecurringInterval),
				"anomalies", e.anomalies.Load())
		}
		return core.Transaction{}, err
	}

	succ := t
	succ.ID = ""
	succ.Date = next
	return succ, nil
}

// Anomalies reports how many projections were skipped over an
// uninterpretable interval.
func (e *RecurrenceEngine) Anomalies() int64 {
	return e.anomalies.Load()
}
