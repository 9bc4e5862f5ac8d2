package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func seedTx(t *testing.T, s *MemoryStore, userID, category string, typ core.TransactionType, amount int64, date time.Time) core.Transaction {
	t.Helper()
	tx, err := s.Insert(context.Background(), core.Transaction{
		UserID:      userID,
		Amount:      decimal.NewFromInt(amount),
		Description: category + " purchase",
		Category:    category,
		Type:        typ,
		Date:        date,
	})
	require.NoError(t, err)
	return tx
}

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	tx := seedTx(t, s, "alice", "food", core.Expense, 40, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NotEmpty(t, tx.ID)

	got, err := s.Get(ctx, tx.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, tx, got)

	// Another user's lookup hides the record instead of revealing ownership.
	_, err = s.Get(ctx, tx.ID, "bob")
	assert.ErrorIs(t, err, core.ErrNotFound)

	amount := decimal.NewFromInt(55)
	updated, err := s.Update(ctx, tx.ID, "alice", core.TransactionPatch{Amount: &amount})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(amount))
	assert.Equal(t, "food", updated.Category)

	_, err = s.Update(ctx, tx.ID, "bob", core.TransactionPatch{Amount: &amount})
	assert.ErrorIs(t, err, core.ErrNotFound)

	err = s.Delete(ctx, tx.ID, "bob")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, s.Delete(ctx, tx.ID, "alice"))
	_, err = s.Get(ctx, tx.ID, "alice")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Insert(context.Background(), core.Transaction{
		UserID:   "alice",
		Amount:   decimal.Zero,
		Category: "food",
		Type:     core.Expense,
		Date:     time.Now(),
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestMemoryStoreUpdateRevalidates(t *testing.T) {
	s := NewMemoryStore()
	tx := seedTx(t, s, "alice", "food", core.Expense, 40, time.Now().UTC())

	bad := decimal.NewFromInt(-1)
	_, err := s.Update(context.Background(), tx.ID, "alice", core.TransactionPatch{Amount: &bad})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	// Original row untouched after the rejected patch.
	got, err := s.Get(context.Background(), tx.ID, "alice")
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(40)))
}

func TestMemoryStoreQueryFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	mar := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	apr := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	seedTx(t, s, "alice", "food", core.Expense, 40, mar)
	seedTx(t, s, "alice", "salary", core.Income, 3000, mar)
	seedTx(t, s, "alice", "food", core.Expense, 25, apr)
	seedTx(t, s, "bob", "food", core.Expense, 99, mar)

	items, total, err := s.Query(ctx, "alice", Filters{Category: "food"}, Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)
	// Newest first.
	assert.True(t, items[0].Date.After(items[1].Date))

	items, total, err = s.Query(ctx, "alice", Filters{Type: core.Income}, Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, core.Income, items[0].Type)

	from, before := core.MonthWindow(2024, 3, time.UTC)
	items, total, err = s.Query(ctx, "alice", Filters{From: from, Before: before}, Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, it := range items {
		assert.Equal(t, time.March, it.Date.Month())
	}

	_, total, err = s.Query(ctx, "alice", Filters{Search: "SALARY"}, Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "search should be case-insensitive")
}

func TestMemoryStoreQueryPagination(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		seedTx(t, s, "alice", "food", core.Expense, int64(i+1), base.AddDate(0, 0, i))
	}

	items, total, err := s.Query(ctx, "alice", Filters{}, Page{Number: 1, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, items, 10)

	items, _, err = s.Query(ctx, "alice", Filters{}, Page{Number: 3, Size: 10})
	require.NoError(t, err)
	assert.Len(t, items, 5)

	// Past the end: empty page, not an error.
	items, _, err = s.Query(ctx, "alice", Filters{}, Page{Number: 9, Size: 10})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{"zero value defaults", Page{}, Page{Number: 1, Size: 10}},
		{"oversized clamped to cap", Page{Number: 2, Size: 500}, Page{Number: 2, Size: 100}},
		{"zero size falls back to default", Page{Number: 1, Size: 0}, Page{Number: 1, Size: 10}},
		{"negative values", Page{Number: -3, Size: -5}, Page{Number: 1, Size: 10}},
		{"valid passes through", Page{Number: 4, Size: 25}, Page{Number: 4, Size: 25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestMemoryStoreDistinctCategories(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now().UTC()
	seedTx(t, s, "alice", "food", core.Expense, 10, now)
	seedTx(t, s, "alice", "food", core.Expense, 20, now)
	seedTx(t, s, "alice", "transport", core.Expense, 5, now)
	seedTx(t, s, "bob", "housing", core.Expense, 800, now)

	cats, err := s.DistinctCategories(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"food", "transport"}, cats)
}

func TestMemoryStoreGoalsAndExportLogs(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	goal, err := s.InsertGoal(ctx, core.BudgetGoal{
		UserID:       "alice",
		Category:     "food",
		TargetAmount: decimal.NewFromInt(200),
		Period:       core.PeriodMonthly,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, goal.ID)
	assert.False(t, goal.StartDate.IsZero())

	target := decimal.NewFromInt(250)
	updated, err := s.UpdateGoal(ctx, goal.ID, "alice", core.GoalPatch{TargetAmount: &target})
	require.NoError(t, err)
	assert.True(t, updated.TargetAmount.Equal(target))

	_, err = s.UpdateGoal(ctx, goal.ID, "bob", core.GoalPatch{TargetAmount: &target})
	assert.ErrorIs(t, err, core.ErrNotFound)

	goals, err := s.ListGoals(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, goals, 1)

	log, err := s.AppendExportLog(ctx, core.ExportLog{
		UserID:     "alice",
		ExportType: "csv",
		FilePath:   "/tmp/out.csv",
		Status:     core.ExportCompleted,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, log.ID)

	logs, err := s.ListExportLogs(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, core.ExportCompleted, logs[0].Status)

	logs, err = s.ListExportLogs(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, logs)
}
