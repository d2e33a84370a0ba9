// Package storage defines persistence contracts for expense state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates a requested expense record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidPageToken indicates a page token that was not issued by the store.
	ErrInvalidPageToken = errors.New("page token is invalid")
)

// DefaultPageSize applies when a list query leaves PageSize unset.
const DefaultPageSize = 50

// MaxPageSize caps one list page.
const MaxPageSize = 500

// ListQuery selects one page of expenses.
type ListQuery struct {
	// Filter is an AIP-160 expression over category, date, amount and description.
	Filter    string
	PageSize  int
	PageToken string
}

// ExpensePage stores one page of expense records.
type ExpensePage struct {
	Expenses      []domain.Expense
	NextPageToken string
}

// ResetResult reports what a reset removed.
type ResetResult struct {
	Cleared int
	// ArchiveID is zero when the reset did not archive.
	ArchiveID int64
}

// Archive summarizes one batch of expenses saved by "start new day".
type Archive struct {
	ID         int64
	ArchivedAt time.Time
	Count      int
	Total      decimal.Decimal
	FirstDate  time.Time
	LastDate   time.Time
}

// ExpenseStore persists expense records.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense domain.Expense) (domain.Expense, error)
	GetExpense(ctx context.Context, id int64) (domain.Expense, error)
	ListExpenses(ctx context.Context, query ListQuery) (ExpensePage, error)
	ListAllExpenses(ctx context.Context) ([]domain.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	ResetExpenses(ctx context.Context, archive bool) (ResetResult, error)
	ListArchives(ctx context.Context) ([]Archive, error)
}
