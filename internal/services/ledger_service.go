// Package services orchestrates ledger writes: validation, persistence and
// the projection of recurring transactions into their next occurrence.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
)

// LedgerService is the write path for transactions. Reads go straight to the
// store; writes pass through here so recurrence projection and validation
// happen in one place.
type LedgerService struct {
	store      ledger.Store
	recurrence *RecurrenceEngine
}

func NewLedgerService(store ledger.Store, recurrence *RecurrenceEngine) *LedgerService {
	return &LedgerService{store: store, recurrence: recurrence}
}

// Create validates and persists a transaction. A recurring transaction also
// gets its next occurrence inserted immediately, so the upcoming charge is
// visible in listings and projections without a scheduler run.
func (s *LedgerService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.Insert(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction created",
		applog.FieldTransactionID, created.ID,
		applog.FieldUserID, created.UserID,
		applog.FieldCategory, created.Category,
		applog.FieldAmount, created.Amount.String(),
		"recurring", created.IsRecurring)

	if created.IsRecurring {
		if err := s.projectSuccessor(ctx, created); err != nil {
			return core.Transaction{}, err
		}
	}
	return created, nil
}

// projectSuccessor inserts the next occurrence of a recurring transaction.
// An uninterpretable interval is logged and skipped; a store failure
// propagates because the successor is part of the create contract.
func (s *LedgerService) projectSuccessor(ctx context.Context, parent core.Transaction) error {
	succ, err := s.recurrence.ProjectNext(ctx, parent)
	if err != nil {
		if errors.Is(err, core.ErrUnknownInterval) {
			return nil
		}
		return err
	}
	if _, err := s.store.Insert(ctx, succ); err != nil {
		return fmt.Errorf("insert projected occurrence: %w", err)
	}
	slog.InfoContext(ctx, "Projected next occurrence",
		applog.FieldTransactionID, parent.ID,
		"next_date", succ.Date.Format("2006-01-02"))
	return nil
}

// BulkCreate inserts a batch atomically with respect to validation: every
// transaction is checked before any insert, so a bad row rejects the whole
// batch. Recurring rows in a bulk import are historical records, not live
// subscriptions, and get no projected successor.
func (s *LedgerService) BulkCreate(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	now := time.Now().UTC()
	for i := range txs {
		if txs[i].Date.IsZero() {
			txs[i].Date = now
		}
		if err := txs[i].Validate(); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	created := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		c, err := s.store.Insert(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("bulk insert: %w", err)
		}
		created = append(created, c)
	}
	slog.InfoContext(ctx, "Bulk import complete", applog.FieldCount, len(created))
	return created, nil
}

// Update applies a patch and revalidates the result before persisting.
func (s *LedgerService) Update(ctx context.Context, id, userID string, patch core.TransactionPatch) (core.Transaction, error) {
	updated, err := s.store.Update(ctx, id, userID, patch)
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction updated",
		applog.FieldTransactionID, id,
		applog.FieldUserID, userID)
	return updated, nil
}

func (s *LedgerService) Delete(ctx context.Context, id, userID string) error {
	if err := s.store.Delete(ctx, id, userID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction deleted",
		applog.FieldTransactionID, id,
		applog.FieldUserID, userID)
	return nil
}

// CreateGoal validates and persists a budget goal.
func (s *LedgerService) CreateGoal(ctx context.Context, g core.BudgetGoal) (core.BudgetGoal, error) {
	if g.StartDate.IsZero() {
		g.StartDate = time.Now().UTC()
	}
	if err := g.Validate(); err != nil {
		return core.BudgetGoal{}, err
	}
	created, err := s.store.InsertGoal(ctx, g)
	if err != nil {
		return core.BudgetGoal{}, fmt.Errorf("insert goal: %w", err)
	}
	slog.InfoContext(ctx, "Budget goal created",
		applog.FieldGoalID, created.ID,
		applog.FieldUserID, created.UserID,
		applog.FieldCategory, created.Category)
	return created, nil
}

func (s *LedgerService) UpdateGoal(ctx context.Context, id, userID string, patch core.GoalPatch) (core.BudgetGoal, error) {
	updated, err := s.store.UpdateGoal(ctx, id, userID, patch)
	if err != nil {
		return core.BudgetGoal{}, err
	}
	slog.InfoContext(ctx, "Budget goal updated", applog.FieldGoalID, id, applog.FieldUserID, userID)
	return updated, nil
}
