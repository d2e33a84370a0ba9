// Package sqlite provides the SQLite-backed expense store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/pennywise/internal/platform/money"
	sqlitemigrate "github.com/louisbranch/pennywise/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/louisbranch/pennywise/internal/services/expense/storage"
	"github.com/louisbranch/pennywise/internal/services/expense/storage/filter"
	"github.com/louisbranch/pennywise/internal/services/expense/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

const expenseColumns = `id, date, category, amount_cents, description, created_at`

// Store persists expenses in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite expense store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreateExpense inserts one expense and returns it with its assigned id.
func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (domain.Expense, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Expense{}, err
	}
	if expense.Date.IsZero() {
		return domain.Expense{}, domain.ErrEmptyDate
	}
	if expense.Category == "" {
		return domain.Expense{}, domain.ErrEmptyCategory
	}
	if expense.Amount.GreaterThan(domain.MaxAmount) {
		return domain.Expense{}, domain.ErrAmountTooLarge
	}
	cents, err := money.ToCents(expense.Amount)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("convert amount: %w", err)
	}
	if cents <= 0 {
		return domain.Expense{}, domain.ErrAmountTooSmall
	}
	createdAt := expense.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}
	createdAt = createdAt.Truncate(time.Millisecond)

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO expenses (date, category, amount_cents, description, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		expense.DateString(),
		string(expense.Category),
		cents,
		expense.Description,
		toMillis(createdAt),
	)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return domain.Expense{}, fmt.Errorf("create expense id: %w", err)
	}
	expense.ID = id
	expense.Amount = money.FromCents(cents)
	expense.CreatedAt = createdAt
	return expense, nil
}

// GetExpense returns one expense by id.
func (s *Store) GetExpense(ctx context.Context, id int64) (domain.Expense, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Expense{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	expense, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Expense{}, storage.ErrNotFound
		}
		return domain.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return expense, nil
}

// ListExpenses returns one page of expenses ordered by id.
func (s *Store) ListExpenses(ctx context.Context, query storage.ListQuery) (storage.ExpensePage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ExpensePage{}, err
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = storage.DefaultPageSize
	}
	if pageSize > storage.MaxPageSize {
		pageSize = storage.MaxPageSize
	}

	cond, err := filter.Parse(query.Filter)
	if err != nil {
		return storage.ExpensePage{}, err
	}
	clauses := make([]string, 0, 2)
	params := make([]any, 0, len(cond.Params)+2)
	if !cond.Empty() {
		clauses = append(clauses, cond.Clause)
		params = append(params, cond.Params...)
	}
	if token := strings.TrimSpace(query.PageToken); token != "" {
		afterID, err := strconv.ParseInt(token, 10, 64)
		if err != nil || afterID < 0 {
			return storage.ExpensePage{}, storage.ErrInvalidPageToken
		}
		clauses = append(clauses, "id > ?")
		params = append(params, afterID)
	}
	statement := `SELECT ` + expenseColumns + ` FROM expenses`
	if len(clauses) > 0 {
		statement += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	statement += ` ORDER BY id ASC LIMIT ?`
	params = append(params, pageSize+1)

	expenses, err := s.queryExpenses(ctx, statement, params...)
	if err != nil {
		return storage.ExpensePage{}, fmt.Errorf("list expenses: %w", err)
	}
	page := storage.ExpensePage{Expenses: expenses}
	if len(expenses) > pageSize {
		page.Expenses = expenses[:pageSize]
		page.NextPageToken = strconv.FormatInt(page.Expenses[pageSize-1].ID, 10)
	}
	return page, nil
}

// ListAllExpenses returns every current expense ordered by date, then id.
func (s *Store) ListAllExpenses(ctx context.Context) ([]domain.Expense, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	expenses, err := s.queryExpenses(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list all expenses: %w", err)
	}
	return expenses, nil
}

// DeleteExpense removes one expense.
func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ResetExpenses clears all current expenses, first copying them into a new
// archive batch when archive is set. Both steps share one transaction.
func (s *Store) ResetExpenses(ctx context.Context, archive bool) (storage.ResetResult, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ResetResult{}, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.ResetResult{}, fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var result storage.ResetResult
	if archive {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses`).Scan(&count); err != nil {
			return storage.ResetResult{}, fmt.Errorf("count expenses: %w", err)
		}
		if count > 0 {
			inserted, err := tx.ExecContext(ctx, `INSERT INTO expense_archives (archived_at) VALUES (?)`, toMillis(s.now()))
			if err != nil {
				return storage.ResetResult{}, fmt.Errorf("create archive: %w", err)
			}
			archiveID, err := inserted.LastInsertId()
			if err != nil {
				return storage.ResetResult{}, fmt.Errorf("create archive id: %w", err)
			}
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO archived_expenses (archive_id, expense_id, date, category, amount_cents, description, created_at)
				 SELECT ?, id, date, category, amount_cents, description, created_at FROM expenses`,
				archiveID,
			); err != nil {
				return storage.ResetResult{}, fmt.Errorf("archive expenses: %w", err)
			}
			result.ArchiveID = archiveID
		}
	}

	deleted, err := tx.ExecContext(ctx, `DELETE FROM expenses`)
	if err != nil {
		return storage.ResetResult{}, fmt.Errorf("clear expenses: %w", err)
	}
	affected, err := deleted.RowsAffected()
	if err != nil {
		return storage.ResetResult{}, fmt.Errorf("clear expenses rows: %w", err)
	}
	result.Cleared = int(affected)

	if err := tx.Commit(); err != nil {
		return storage.ResetResult{}, fmt.Errorf("commit reset: %w", err)
	}
	return result, nil
}

// ListArchives returns archive batches, newest first.
func (s *Store) ListArchives(ctx context.Context) ([]storage.Archive, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT a.id, a.archived_at, COUNT(e.expense_id), COALESCE(SUM(e.amount_cents), 0),
		        COALESCE(MIN(e.date), ''), COALESCE(MAX(e.date), '')
		   FROM expense_archives a
		   LEFT JOIN archived_expenses e ON e.archive_id = a.id
		  GROUP BY a.id, a.archived_at
		  ORDER BY a.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	defer rows.Close()

	var archives []storage.Archive
	for rows.Next() {
		var (
			archive    storage.Archive
			archivedAt int64
			totalCents int64
			firstDate  string
			lastDate   string
		)
		if err := rows.Scan(&archive.ID, &archivedAt, &archive.Count, &totalCents, &firstDate, &lastDate); err != nil {
			return nil, fmt.Errorf("list archives: %w", err)
		}
		archive.ArchivedAt = fromMillis(archivedAt)
		archive.Total = money.FromCents(totalCents)
		if firstDate != "" {
			archive.FirstDate, _ = domain.ParseDate(firstDate)
		}
		if lastDate != "" {
			archive.LastDate, _ = domain.ParseDate(lastDate)
		}
		archives = append(archives, archive)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	return archives, nil
}

func (s *Store) queryExpenses(ctx context.Context, statement string, params ...any) ([]domain.Expense, error) {
	rows, err := s.sqlDB.QueryContext(ctx, statement, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0)
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (domain.Expense, error) {
	var (
		expense   domain.Expense
		date      string
		category  string
		cents     int64
		createdAt int64
	)
	if err := row.Scan(&expense.ID, &date, &category, &cents, &expense.Description, &createdAt); err != nil {
		return domain.Expense{}, err
	}
	parsed, err := domain.ParseDate(date)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("expense %d: stored date %q: %w", expense.ID, date, err)
	}
	expense.Date = parsed
	expense.Category = domain.Category(category)
	expense.Amount = money.FromCents(cents)
	expense.CreatedAt = fromMillis(createdAt)
	return expense, nil
}

var _ storage.ExpenseStore = (*Store)(nil)
