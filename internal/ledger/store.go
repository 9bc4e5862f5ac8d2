// Package ledger defines the durable transaction and budget-goal store the
// engines read from, together with its filter and pagination vocabulary.
package ledger

import (
	"context"
	"strings"
	"time"

	"fintrack/internal/core"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Filters narrows a user's transaction set. Zero values mean "no filter".
// From is inclusive; Before is exclusive, so callers build half-open windows
// (an inclusive end date D becomes Before = D + 1 day).
type Filters struct {
	Category string
	Type     core.TransactionType
	From     time.Time
	Before   time.Time
	Search   string
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps a page request: number < 1 falls back to 1, size < 1
// falls back to the default, size above the cap is clamped. Invalid input
// never errors.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the number of items to skip for a normalized page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Match reports whether t passes every set filter. Search matches the
// description or category, case-insensitively.
func (f Filters) Match(t core.Transaction) bool {
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From) {
		return false
	}
	if !f.Before.IsZero() && !t.Date.Before(f.Before) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Description), needle) &&
			!strings.Contains(strings.ToLower(t.Category), needle) {
			return false
		}
	}
	return true
}

// Store is the persistence boundary. Every operation is scoped to one user;
// a record owned by someone else surfaces as core.ErrNotFound, never as a
// permission error. Insert must assign the ID atomically, and Update must
// serialize concurrent writes to the same row (last write wins).
type Store interface {
	Insert(ctx context.Context, t core.Transaction) (core.Transaction, error)
	Get(ctx context.Context, id, userID string) (core.Transaction, error)
	Update(ctx context.Context, id, userID string, patch core.TransactionPatch) (core.Transaction, error)
	Delete(ctx context.Context, id, userID string) error

	// Query returns one page of matching transactions, newest first, plus
	// the total match count.
	Query(ctx context.Context, userID string, f Filters, p Page) ([]core.Transaction, int, error)
	// List returns the full matching snapshot in ascending date order, for
	// the aggregation engines.
	List(ctx context.Context, userID string, f Filters) ([]core.Transaction, error)
	DistinctCategories(ctx context.Context, userID string) ([]string, error)

	InsertGoal(ctx context.Context, g core.BudgetGoal) (core.BudgetGoal, error)
	ListGoals(ctx context.Context, userID string) ([]core.BudgetGoal, error)
	UpdateGoal(ctx context.Context, id, userID string, patch core.GoalPatch) (core.BudgetGoal, error)

	AppendExportLog(ctx context.Context, l core.ExportLog) (core.ExportLog, error)
	ListExportLogs(ctx context.Context, userID string) ([]core.ExportLog, error)

	Close() error
}
