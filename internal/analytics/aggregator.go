// Package analytics computes derived views over a user's ledger: category
// rollups, monthly trends, budget status and range reports. Everything here
// is read-only over store snapshots; empty scopes degrade to zero-valued
// results rather than errors.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type Aggregator struct {
	store ledger.Store
}

func NewAggregator(store ledger.Store) *Aggregator {
	return &Aggregator{store: store}
}

// MonthTotal is one point of a monthly trend line, keyed YYYY-MM.
type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// MonthlySummary is the income/expense balance of one calendar month.
type MonthlySummary struct {
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Net           decimal.Decimal `json:"net"`
}

// SumByCategory totals the user's transactions per category. The range is
// unbounded unless the caller narrows it through f.
func (a *Aggregator) SumByCategory(ctx context.Context, userID string, f ledger.Filters) (map[string]decimal.Decimal, error) {
	txs, err := a.store.List(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("list transactions for category sums: %w", err)
	}

	totals := make(map[string]decimal.Decimal, len(txs))
	for _, t := range txs {
		totals[t.Category] = totals[t.Category].Add(t.Amount)
	}
	return totals, nil
}

// SumByMonth totals all of the user's transactions (income and expense
// combined) per calendar month, in ascending chronological order.
func (a *Aggregator) SumByMonth(ctx context.Context, userID string) ([]MonthTotal, error) {
	txs, err := a.store.List(ctx, userID, ledger.Filters{})
	if err != nil {
		return nil, fmt.Errorf("list transactions for month sums: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, t := range txs {
		key := core.MonthKey(t.Date)
		totals[key] = totals[key].Add(t.Amount)
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	// YYYY-MM keys sort chronologically as strings.
	sort.Strings(keys)

	out := make([]MonthTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthTotal{Month: k, Total: totals[k]})
	}
	return out, nil
}

// MonthlySummary totals income and expenses over the half-open window
// [first-of-month, first-of-next-month).
func (a *Aggregator) MonthlySummary(ctx context.Context, userID string, month, year int) (MonthlySummary, error) {
	from, before := core.MonthWindow(year, month, time.UTC)
	txs, err := a.store.List(ctx, userID, ledger.Filters{From: from, Before: before})
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("list transactions for monthly summary: %w", err)
	}

	sum := MonthlySummary{Month: month, Year: year}
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			sum.TotalIncome = sum.TotalIncome.Add(t.Amount)
		case core.Expense:
			sum.TotalExpenses = sum.TotalExpenses.Add(t.Amount)
		}
	}
	sum.Net = sum.TotalIncome.Sub(sum.TotalExpenses)
	return sum, nil
}
