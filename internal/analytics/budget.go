package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type AlertLevel string

const (
	AlertOK       AlertLevel = "ok"
	AlertWarning  AlertLevel = "warning"
	AlertExceeded AlertLevel = "exceeded"
)

// warningRatio is the share of a budget that flips its status to "warning".
var warningRatio = decimal.New(8, -1) // 0.8

// BudgetStatus compares one goal against the current month's spending.
type BudgetStatus struct {
	Budget    decimal.Decimal `json:"budget"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Status    AlertLevel      `json:"status"`
}

// Evaluator classifies live spending against the user's budget goals.
type Evaluator struct {
	store ledger.Store
	agg   *Aggregator
}

func NewEvaluator(store ledger.Store, agg *Aggregator) *Evaluator {
	return &Evaluator{store: store, agg: agg}
}

// Evaluate returns a status per goal category. Spent is the expense total for
// the calendar month containing now; a goal category absent from the spending
// breakdown is zero spend, not a dropped entry.
func (e *Evaluator) Evaluate(ctx context.Context, userID string, now time.Time) (map[string]BudgetStatus, error) {
	goals, err := e.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budget goals: %w", err)
	}

	from, before := core.MonthWindow(now.Year(), int(now.Month()), now.Location())
	spending, err := e.agg.SumByCategory(ctx, userID, ledger.Filters{
		Type:   core.Expense,
		From:   from,
		Before: before,
	})
	if err != nil {
		return nil, fmt.Errorf("sum current month spending: %w", err)
	}

	status := make(map[string]BudgetStatus, len(goals))
	for _, goal := range goals {
		spent := spending[goal.Category] // zero value when nothing spent
		status[goal.Category] = BudgetStatus{
			Budget:    goal.TargetAmount,
			Spent:     spent,
			Remaining: goal.TargetAmount.Sub(spent),
			Status:    classify(spent, goal.TargetAmount),
		}
	}
	return status, nil
}

func classify(spent, budget decimal.Decimal) AlertLevel {
	switch {
	case spent.GreaterThanOrEqual(budget):
		return AlertExceeded
	case spent.GreaterThanOrEqual(budget.Mul(warningRatio)):
		return AlertWarning
	default:
		return AlertOK
	}
}
