package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// SQLiteStore implements ledger.Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// migrateSchema brings the database file up to the latest embedded
// migration. The migrate driver takes ownership of the handle it is given,
// so it gets its own connection rather than the store's.
func migrateSchema(dbPath string) error {
	src, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database for migration: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("wrap sqlite connection: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("assemble migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Insert(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	t.ID = uuid.NewString()
	const q = `INSERT INTO transactions
		(id, user_id, amount, description, category, type, date, is_recurring, recurring_interval)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		t.ID, t.UserID, t.Amount.String(), t.Description, t.Category, string(t.Type),
		t.Date.UTC().Format(sqliteTime), boolToInt(t.IsRecurring), nullString(string(t.RecurringInterval)))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		applog.FieldTransactionID, t.ID,
		applog.FieldUserID, t.UserID,
		applog.FieldCategory, t.Category,
		"type", t.Type,
		applog.FieldAmount, t.Amount.String())

	return t, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id, userID string) (core.Transaction, error) {
	const q = txColumns + ` WHERE id = ? AND user_id = ?`
	row := s.db.QueryRowContext(ctx, q, id, userID)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// Update performs a serialized read-modify-write inside one database
// transaction so concurrent patches to the same row are last-write-wins.
func (s *SQLiteStore) Update(ctx context.Context, id, userID string, patch core.TransactionPatch) (core.Transaction, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin update: %w", err)
	}
	defer dbTx.Rollback()

	row := dbTx.QueryRowContext(ctx, txColumns+` WHERE id = ? AND user_id = ?`, id, userID)
	current, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read transaction for update: %w", err)
	}

	patched := patch.Apply(current)
	if err := patched.Validate(); err != nil {
		return core.Transaction{}, err
	}

	const q = `UPDATE transactions SET
		amount = ?, description = ?, category = ?, type = ?, date = ?,
		is_recurring = ?, recurring_interval = ?
		WHERE id = ? AND user_id = ?`
	_, err = dbTx.ExecContext(ctx, q,
		patched.Amount.String(), patched.Description, patched.Category, string(patched.Type),
		patched.Date.UTC().Format(sqliteTime), boolToInt(patched.IsRecurring),
		nullString(string(patched.RecurringInterval)), id, userID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit update: %w", err)
	}
	return patched, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Query(ctx context.Context, userID string, f ledger.Filters, p ledger.Page) ([]core.Transaction, int, error) {
	where, args := buildFilter(userID, f)
	p = p.Normalize()

	var total int
	countQ := `SELECT COUNT(*) FROM transactions ` + where
	if err := s.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	q := txColumns + ` ` + where + ` ORDER BY date DESC, id LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, append(args, p.Size, p.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	items, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *SQLiteStore) List(ctx context.Context, userID string, f ledger.Filters) ([]core.Transaction, error) {
	where, args := buildFilter(userID, f)
	q := txColumns + ` ` + where + ` ORDER BY date, id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (s *SQLiteStore) DistinctCategories(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM transactions WHERE user_id = ? ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) InsertGoal(ctx context.Context, g core.BudgetGoal) (core.BudgetGoal, error) {
	if err := g.Validate(); err != nil {
		return core.BudgetGoal{}, err
	}

	g.ID = uuid.NewString()
	if g.StartDate.IsZero() {
		g.StartDate = time.Now().UTC()
	}
	const q = `INSERT INTO budget_goals (id, user_id, category, target_amount, period, start_date)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		g.ID, g.UserID, g.Category, g.TargetAmount.String(), string(g.Period),
		g.StartDate.UTC().Format(sqliteTime))
	if err != nil {
		return core.BudgetGoal{}, fmt.Errorf("insert budget goal: %w", err)
	}
	return g, nil
}

func (s *SQLiteStore) ListGoals(ctx context.Context, userID string) ([]core.BudgetGoal, error) {
	const q = `SELECT id, user_id, category, target_amount, period, start_date
		FROM budget_goals WHERE user_id = ? ORDER BY category`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list budget goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.BudgetGoal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateGoal(ctx context.Context, id, userID string, patch core.GoalPatch) (core.BudgetGoal, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.BudgetGoal{}, fmt.Errorf("begin goal update: %w", err)
	}
	defer dbTx.Rollback()

	row := dbTx.QueryRowContext(ctx,
		`SELECT id, user_id, category, target_amount, period, start_date
		 FROM budget_goals WHERE id = ? AND user_id = ?`, id, userID)
	current, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetGoal{}, core.ErrNotFound
	}
	if err != nil {
		return core.BudgetGoal{}, fmt.Errorf("read goal for update: %w", err)
	}

	patched := patch.Apply(current)
	if err := patched.Validate(); err != nil {
		return core.BudgetGoal{}, err
	}

	_, err = dbTx.ExecContext(ctx,
		`UPDATE budget_goals SET target_amount = ?, period = ?, start_date = ? WHERE id = ? AND user_id = ?`,
		patched.TargetAmount.String(), string(patched.Period),
		patched.StartDate.UTC().Format(sqliteTime), id, userID)
	if err != nil {
		return core.BudgetGoal{}, fmt.Errorf("update budget goal: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return core.BudgetGoal{}, fmt.Errorf("commit goal update: %w", err)
	}
	return patched, nil
}

func (s *SQLiteStore) AppendExportLog(ctx context.Context, l core.ExportLog) (core.ExportLog, error) {
	l.ID = uuid.NewString()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO export_logs (id, user_id, export_type, file_path, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		l.ID, l.UserID, l.ExportType, l.FilePath, string(l.Status),
		l.CreatedAt.UTC().Format(sqliteTime))
	if err != nil {
		return core.ExportLog{}, fmt.Errorf("append export log: %w", err)
	}
	return l, nil
}

func (s *SQLiteStore) ListExportLogs(ctx context.Context, userID string) ([]core.ExportLog, error) {
	const q = `SELECT id, user_id, export_type, file_path, status, created_at
		FROM export_logs WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list export logs: %w", err)
	}
	defer rows.Close()

	out := make([]core.ExportLog, 0)
	for rows.Next() {
		var (
			l       core.ExportLog
			status  string
			created string
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.ExportType, &l.FilePath, &status, &created); err != nil {
			return nil, fmt.Errorf("scan export log: %w", err)
		}
		l.Status = core.ExportStatus(status)
		if l.CreatedAt, err = time.Parse(sqliteTime, created); err != nil {
			return nil, fmt.Errorf("parse export log timestamp: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

const txColumns = `SELECT id, user_id, amount, description, category, type, date, is_recurring, recurring_interval
	FROM transactions`

// sqliteTime is fixed-width so stored UTC timestamps compare
// lexicographically. RFC3339Nano trims trailing fractional zeros, which
// breaks ordering within a second ("...00.5Z" sorts before "...00Z").
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

// buildFilter translates ledger.Filters into a WHERE clause. Date bounds
// compare lexicographically against the fixed-width sqliteTime strings.
func buildFilter(userID string, f ledger.Filters) (string, []any) {
	conds := []string{"user_id = ?"}
	args := []any{userID}

	if f.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(f.Type))
	}
	if !f.From.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, f.From.UTC().Format(sqliteTime))
	}
	if !f.Before.IsZero() {
		conds = append(conds, "date < ?")
		args = append(args, f.Before.UTC().Format(sqliteTime))
	}
	if f.Search != "" {
		conds = append(conds, "(LOWER(description) LIKE ? OR LOWER(category) LIKE ?)")
		needle := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, needle, needle)
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t         core.Transaction
		amount    string
		typ       string
		dateStr   string
		recurring int
		interval  sql.NullString
	)
	err := row.Scan(&t.ID, &t.UserID, &amount, &t.Description, &t.Category, &typ, &dateStr, &recurring, &interval)
	if err != nil {
		return core.Transaction{}, err
	}

	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	if t.Date, err = time.Parse(sqliteTime, dateStr); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	t.Type = core.TransactionType(typ)
	t.IsRecurring = recurring != 0
	if interval.Valid {
		t.RecurringInterval = core.Interval(interval.String)
	}
	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanGoal(row rowScanner) (core.BudgetGoal, error) {
	var (
		g       core.BudgetGoal
		target  string
		period  string
		started string
	)
	err := row.Scan(&g.ID, &g.UserID, &g.Category, &target, &period, &started)
	if err != nil {
		return core.BudgetGoal{}, err
	}
	if g.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return core.BudgetGoal{}, fmt.Errorf("parse stored target amount %q: %w", target, err)
	}
	if g.StartDate, err = time.Parse(sqliteTime, started); err != nil {
		return core.BudgetGoal{}, fmt.Errorf("parse stored start date %q: %w", started, err)
	}
	g.Period = core.Period(period)
	return g, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
