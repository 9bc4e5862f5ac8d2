package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// transactionRequest is the JSON body for creating a transaction.
type transactionRequest struct {
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	Type              string          `json:"type"`
	Date              string          `json:"date,omitempty"`
	IsRecurring       bool            `json:"is_recurring"`
	RecurringInterval string          `json:"recurring_interval,omitempty"`
}

func (req *transactionRequest) toDomain(userID string) (core.Transaction, error) {
	t := core.Transaction{
		UserID:            userID,
		Amount:            req.Amount,
		Description:       req.Description,
		Category:          req.Category,
		Type:              core.TransactionType(req.Type),
		IsRecurring:       req.IsRecurring,
		RecurringInterval: core.Interval(req.RecurringInterval),
	}
	if req.Date != "" {
		date, err := core.ParseDate(req.Date)
		if err != nil {
			return core.Transaction{}, err
		}
		t.Date = date
	}
	return t, nil
}

// transactionPatchRequest carries only the fields the client wants changed.
type transactionPatchRequest struct {
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	Description       *string          `json:"description,omitempty"`
	Category          *string          `json:"category,omitempty"`
	Type              *string          `json:"type,omitempty"`
	Date              *string          `json:"date,omitempty"`
	IsRecurring       *bool            `json:"is_recurring,omitempty"`
	RecurringInterval *string          `json:"recurring_interval,omitempty"`
}

func (req *transactionPatchRequest) toDomain() (core.TransactionPatch, error) {
	patch := core.TransactionPatch{
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		IsRecurring: req.IsRecurring,
	}
	if req.Type != nil {
		typ := core.TransactionType(*req.Type)
		patch.Type = &typ
	}
	if req.RecurringInterval != nil {
		iv := core.Interval(*req.RecurringInterval)
		patch.RecurringInterval = &iv
	}
	if req.Date != nil {
		date, err := core.ParseDate(*req.Date)
		if err != nil {
			return core.TransactionPatch{}, err
		}
		patch.Date = &date
	}
	return patch, nil
}

type goalRequest struct {
	Category     string          `json:"category"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Period       string          `json:"period"`
	StartDate    string          `json:"start_date,omitempty"`
}

func (req *goalRequest) toDomain(userID string) (core.BudgetGoal, error) {
	g := core.BudgetGoal{
		UserID:       userID,
		Category:     req.Category,
		TargetAmount: req.TargetAmount,
		Period:       core.Period(req.Period),
	}
	if req.StartDate != "" {
		date, err := core.ParseDate(req.StartDate)
		if err != nil {
			return core.BudgetGoal{}, err
		}
		g.StartDate = date
	}
	return g, nil
}

type goalPatchRequest struct {
	TargetAmount *decimal.Decimal `json:"target_amount,omitempty"`
	Period       *string          `json:"period,omitempty"`
	StartDate    *string          `json:"start_date,omitempty"`
}

func (req *goalPatchRequest) toDomain() (core.GoalPatch, error) {
	patch := core.GoalPatch{TargetAmount: req.TargetAmount}
	if req.Period != nil {
		p := core.Period(*req.Period)
		patch.Period = &p
	}
	if req.StartDate != nil {
		date, err := core.ParseDate(*req.StartDate)
		if err != nil {
			return core.GoalPatch{}, err
		}
		patch.StartDate = &date
	}
	return patch, nil
}

type exportRequest struct {
	ExportType string `json:"export_type"`
}

// decodeBody parses a JSON request body into dst, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

var errMalformedBody = fmt.Errorf("malformed JSON body")

// parseFilters reads the shared listing filters from query parameters.
// start_date is inclusive, end_date inclusive (translated to an exclusive
// upper bound internally).
func parseFilters(query url.Values) (ledger.Filters, error) {
	f := ledger.Filters{
		Category: strings.TrimSpace(query.Get("category")),
		Type:     core.TransactionType(strings.TrimSpace(query.Get("type"))),
		Search:   strings.TrimSpace(query.Get("q")),
	}
	if v := strings.TrimSpace(query.Get("start_date")); v != "" {
		date, err := core.ParseDate(v)
		if err != nil {
			return ledger.Filters{}, err
		}
		f.From = date
	}
	if v := strings.TrimSpace(query.Get("end_date")); v != "" {
		date, err := core.ParseDate(v)
		if err != nil {
			return ledger.Filters{}, err
		}
		f.Before = date.AddDate(0, 0, 1)
	}
	return f, nil
}

// parsePage reads pagination from query parameters. Out-of-range values
// clamp to defaults rather than failing the request.
func parsePage(query url.Values) ledger.Page {
	p := ledger.Page{}
	if v := strings.TrimSpace(query.Get("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.Number = n
		}
	}
	if v := strings.TrimSpace(query.Get("per_page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.Size = n
		}
	}
	return p.Normalize()
}

// parseMonthYear reads month and year, defaulting to the current month.
func parseMonthYear(query url.Values, now time.Time) (month, year int) {
	month, year = int(now.Month()), now.Year()
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			month = m
		}
	}
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	return month, year
}
