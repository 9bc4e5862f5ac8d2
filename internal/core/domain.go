package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Daily   Interval = "daily"
	Weekly  Interval = "weekly"
	Monthly Interval = "monthly"
	Yearly  Interval = "yearly"

	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"

	ExportCompleted ExportStatus = "completed"
	ExportFailed    ExportStatus = "failed"
)

type (
	TransactionType string
	Interval        string
	Period          string
	ExportStatus    string

	// Transaction is a single ledger entry, exclusively owned by one user.
	Transaction struct {
		ID                string          `json:"id"`
		UserID            string          `json:"user_id"`
		Amount            decimal.Decimal `json:"amount"`
		Description       string          `json:"description"`
		Category          string          `json:"category"`
		Type              TransactionType `json:"type"`
		Date              time.Time       `json:"date"`
		IsRecurring       bool            `json:"is_recurring"`
		RecurringInterval Interval        `json:"recurring_interval,omitempty"`
	}

	// TransactionPatch is a whitelisted partial update. Only non-nil fields
	// are applied; the patched transaction is re-validated as a whole.
	TransactionPatch struct {
		Amount            *decimal.Decimal
		Description       *string
		Category          *string
		Type              *TransactionType
		Date              *time.Time
		IsRecurring       *bool
		RecurringInterval *Interval
	}

	// BudgetGoal is a per-category spending ceiling for a period.
	BudgetGoal struct {
		ID           string          `json:"id"`
		UserID       string          `json:"user_id"`
		Category     string          `json:"category"`
		TargetAmount decimal.Decimal `json:"target_amount"`
		Period       Period          `json:"period"`
		StartDate    time.Time       `json:"start_date"`
	}

	GoalPatch struct {
		TargetAmount *decimal.Decimal
		Period       *Period
		StartDate    *time.Time
	}

	// ExportLog is a write-once audit record appended after an export run.
	ExportLog struct {
		ID         string       `json:"id"`
		UserID     string       `json:"user_id"`
		ExportType string       `json:"export_type"`
		FilePath   string       `json:"file_path,omitempty"`
		Status     ExportStatus `json:"status"`
		CreatedAt  time.Time    `json:"created_at"`
	}
)

var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidType         = errors.New("transaction type must be income or expense")
	ErrInvalidInterval     = errors.New("invalid recurring interval")
	ErrIntervalWithoutFlag = errors.New("recurring interval set without recurring flag")
	ErrEmptyCategory       = errors.New("empty category")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrInvalidPeriod       = errors.New("budget period must be monthly or yearly")
	ErrMalformedDate       = errors.New("malformed date, use YYYY-MM-DD or RFC 3339")
	ErrInvalidDateRange    = errors.New("start date cannot be after end date")

	ErrNotFound = errors.New("not found")

	// ErrUnknownInterval marks the ambiguous recurrence fallback: callers
	// must log and count it rather than drop the projection silently.
	ErrUnknownInterval = errors.New("unknown recurring interval")
)

var validationErrs = []error{
	ErrInvalidAmount,
	ErrInvalidType,
	ErrInvalidInterval,
	ErrIntervalWithoutFlag,
	ErrEmptyCategory,
	ErrDescriptionTooLong,
	ErrInvalidPeriod,
	ErrMalformedDate,
	ErrInvalidDateRange,
}

// IsValidation reports whether err belongs to the validation taxonomy:
// surfaced to the caller, never retried, never fatal.
func IsValidation(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (iv Interval) Valid() bool {
	switch iv {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (p Period) Valid() bool {
	return p == PeriodMonthly || p == PeriodYearly
}

func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	// Interval is set if and only if the recurring flag is set.
	if t.IsRecurring && !t.RecurringInterval.Valid() {
		return ErrInvalidInterval
	}
	if !t.IsRecurring && t.RecurringInterval != "" {
		return ErrIntervalWithoutFlag
	}
	return nil
}

func (g BudgetGoal) Validate() error {
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(g.Category) == "" {
		return ErrEmptyCategory
	}
	if !g.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

// Apply returns a copy of t with the patch's non-nil fields replaced.
// The result is not validated here; stores validate before persisting.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.IsRecurring != nil {
		t.IsRecurring = *p.IsRecurring
	}
	if p.RecurringInterval != nil {
		t.RecurringInterval = *p.RecurringInterval
	}
	return t
}

// Apply returns a copy of g with the patch's non-nil fields replaced.
func (p GoalPatch) Apply(g BudgetGoal) BudgetGoal {
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.Period != nil {
		g.Period = *p.Period
	}
	if p.StartDate != nil {
		g.StartDate = *p.StartDate
	}
	return g
}
