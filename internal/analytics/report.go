package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Report is the full financial picture of a date range: totals plus category
// and month breakdowns, computed in one pass over the range's transactions.
type Report struct {
	StartDate       *time.Time                 `json:"start_date,omitempty"`
	EndDate         *time.Time                 `json:"end_date,omitempty"`
	TotalIncome     decimal.Decimal            `json:"total_income"`
	TotalExpenses   decimal.Decimal            `json:"total_expenses"`
	Net             decimal.Decimal            `json:"net"`
	ByCategory      map[string]decimal.Decimal `json:"by_category"`
	ByMonth         map[string]decimal.Decimal `json:"by_month"`
	TransactionsNum int                        `json:"transactions_num"`
}

// Stats summarizes recent activity over a lookback window ending at now.
type Stats struct {
	Period             string          `json:"period"`
	TotalIncome        decimal.Decimal `json:"total_income"`
	TotalExpenses      decimal.Decimal `json:"total_expenses"`
	Net                decimal.Decimal `json:"net"`
	TransactionsNum    int             `json:"transactions_num"`
	AverageAmount      decimal.Decimal `json:"average_amount"`
	MostCommonCategory string          `json:"most_common_category,omitempty"`
}

type Composer struct {
	store ledger.Store
}

func NewComposer(store ledger.Store) *Composer {
	return &Composer{store: store}
}

// BuildReport composes a report over [start, end]; either bound may be nil
// for an open-ended range. The end date is inclusive.
func (c *Composer) BuildReport(ctx context.Context, userID string, start, end *time.Time) (Report, error) {
	if start != nil && end != nil && start.After(*end) {
		return Report{}, core.ErrInvalidDateRange
	}

	var f ledger.Filters
	if start != nil {
		f.From = *start
	}
	if end != nil {
		f.Before = end.AddDate(0, 0, 1)
	}

	txs, err := c.store.List(ctx, userID, f)
	if err != nil {
		return Report{}, fmt.Errorf("list transactions for report: %w", err)
	}

	rep := Report{
		StartDate:       start,
		EndDate:         end,
		ByCategory:      make(map[string]decimal.Decimal),
		ByMonth:         make(map[string]decimal.Decimal),
		TransactionsNum: len(txs),
	}
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			rep.TotalIncome = rep.TotalIncome.Add(t.Amount)
		case core.Expense:
			rep.TotalExpenses = rep.TotalExpenses.Add(t.Amount)
		}
		rep.ByCategory[t.Category] = rep.ByCategory[t.Category].Add(t.Amount)
		key := core.MonthKey(t.Date)
		rep.ByMonth[key] = rep.ByMonth[key].Add(t.Amount)
	}
	rep.Net = rep.TotalIncome.Sub(rep.TotalExpenses)
	return rep, nil
}

// Statistics summarizes the trailing week, month or year ending at now.
// Unknown periods fall back to the trailing month.
func (c *Composer) Statistics(ctx context.Context, userID, period string, now time.Time) (Stats, error) {
	var from time.Time
	switch period {
	case "week":
		from = now.AddDate(0, 0, -7)
	case "year":
		from = now.AddDate(-1, 0, 0)
	default:
		period = "month"
		from = now.AddDate(0, -1, 0)
	}

	txs, err := c.store.List(ctx, userID, ledger.Filters{From: from, Before: now.AddDate(0, 0, 1)})
	if err != nil {
		return Stats{}, fmt.Errorf("list transactions for statistics: %w", err)
	}

	stats := Stats{Period: period, TransactionsNum: len(txs)}
	counts := make(map[string]int)
	var top string
	var sum decimal.Decimal
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			stats.TotalIncome = stats.TotalIncome.Add(t.Amount)
		case core.Expense:
			stats.TotalExpenses = stats.TotalExpenses.Add(t.Amount)
		}
		sum = sum.Add(t.Amount)
		counts[t.Category]++
		if top == "" || counts[t.Category] > counts[top] {
			top = t.Category
		}
	}
	stats.Net = stats.TotalIncome.Sub(stats.TotalExpenses)
	if len(txs) > 0 {
		stats.AverageAmount = sum.Div(decimal.NewFromInt(int64(len(txs)))).Round(2)
	}
	stats.MostCommonCategory = top
	return stats, nil
}
