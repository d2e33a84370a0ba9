package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/louisbranch/pennywise/internal/platform/money"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/louisbranch/pennywise/internal/services/expense/storage"
	"github.com/louisbranch/pennywise/internal/services/expense/storage/filter"
	"github.com/shopspring/decimal"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestCreateGetExpenseRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	created, err := store.CreateExpense(context.Background(), mustExpense(t, "2025-09-01", domain.CategoryFood, "12.50", "lunch"))
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if created.ID <= 0 {
		t.Fatalf("id = %d, want positive", created.ID)
	}

	got, err := store.GetExpense(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get expense: %v", err)
	}
	if got.DateString() != "2025-09-01" {
		t.Fatalf("date = %q, want %q", got.DateString(), "2025-09-01")
	}
	if got.Category != domain.CategoryFood {
		t.Fatalf("category = %q, want %q", got.Category, domain.CategoryFood)
	}
	if !got.Amount.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("amount = %s, want 12.50", got.Amount)
	}
	if got.Description != "lunch" {
		t.Fatalf("description = %q, want %q", got.Description, "lunch")
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestCreateExpenseUsesStoreClock(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2025, time.September, 1, 9, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	created, err := store.CreateExpense(context.Background(), mustExpense(t, "2025-09-01", domain.CategoryBills, "80", ""))
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if !created.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", created.CreatedAt, now)
	}
}

func TestCreateExpenseRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	expense := mustExpense(t, "2025-09-01", domain.CategoryFood, "1", "")
	expense.Amount = decimal.Zero
	if _, err := store.CreateExpense(context.Background(), expense); !errors.Is(err, domain.ErrAmountTooSmall) {
		t.Fatalf("create error = %v, want %v", err, domain.ErrAmountTooSmall)
	}
}

func TestCreateExpenseRejectsAmountAboveMaximum(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	for _, amount := range []string{"1000000000.01", "200000000000000000"} {
		expense := mustExpense(t, "2025-09-01", domain.CategoryFood, "1", "")
		expense.Amount = decimal.RequireFromString(amount)
		if _, err := store.CreateExpense(context.Background(), expense); !errors.Is(err, domain.ErrAmountTooLarge) {
			t.Fatalf("create %s error = %v, want %v", amount, err, domain.ErrAmountTooLarge)
		}
	}
	all, err := store.ListAllExpenses(context.Background())
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("stored %d expenses, want 0", len(all))
	}
}

func TestGetExpenseNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetExpense(context.Background(), 404); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestDeleteExpense(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	created, err := store.CreateExpense(context.Background(), mustExpense(t, "2025-09-01", domain.CategoryOther, "3", "gum"))
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if err := store.DeleteExpense(context.Background(), created.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if err := store.DeleteExpense(context.Background(), created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("second delete error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestListExpensesPaginates(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ids := seedExpenses(t, store)

	first, err := store.ListExpenses(context.Background(), storage.ListQuery{PageSize: 2})
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if diff := cmp.Diff(ids[:2], expenseIDs(first.Expenses)); diff != "" {
		t.Fatalf("first page ids mismatch (-want +got):\n%s", diff)
	}
	if first.NextPageToken == "" {
		t.Fatal("expected next page token")
	}

	second, err := store.ListExpenses(context.Background(), storage.ListQuery{PageSize: 2, PageToken: first.NextPageToken})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if diff := cmp.Diff(ids[2:4], expenseIDs(second.Expenses)); diff != "" {
		t.Fatalf("second page ids mismatch (-want +got):\n%s", diff)
	}

	last, err := store.ListExpenses(context.Background(), storage.ListQuery{PageSize: 2, PageToken: second.NextPageToken})
	if err != nil {
		t.Fatalf("list last page: %v", err)
	}
	if diff := cmp.Diff(ids[4:], expenseIDs(last.Expenses)); diff != "" {
		t.Fatalf("last page ids mismatch (-want +got):\n%s", diff)
	}
	if last.NextPageToken != "" {
		t.Fatalf("next page token = %q, want empty", last.NextPageToken)
	}
}

func TestListExpensesFilter(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ids := seedExpenses(t, store)

	tests := []struct {
		name   string
		filter string
		want   []int64
	}{
		{name: "category", filter: `category = "food"`, want: []int64{ids[0], ids[3]}},
		{name: "amount", filter: `amount >= 20.0`, want: []int64{ids[1], ids[4]}},
		{name: "amount integer", filter: `amount >= 20`, want: []int64{ids[1], ids[4]}},
		{name: "date range", filter: `date >= "2025-09-02" AND date < "2025-09-03"`, want: []int64{ids[2], ids[3]}},
		{name: "or", filter: `category = "Bills" OR description = "bus"`, want: []int64{ids[1], ids[2]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.ListExpenses(context.Background(), storage.ListQuery{Filter: tt.filter})
			if err != nil {
				t.Fatalf("list expenses: %v", err)
			}
			if diff := cmp.Diff(tt.want, expenseIDs(page.Expenses)); diff != "" {
				t.Fatalf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListExpensesRejectsBadInput(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.ListExpenses(context.Background(), storage.ListQuery{PageToken: "abc"}); !errors.Is(err, storage.ErrInvalidPageToken) {
		t.Fatalf("page token error = %v, want %v", err, storage.ErrInvalidPageToken)
	}
	if _, err := store.ListExpenses(context.Background(), storage.ListQuery{Filter: `color = "red"`}); err == nil {
		t.Fatal("expected filter error")
	} else if !errors.Is(err, filter.ErrInvalidFilter) {
		t.Fatalf("filter error = %v, want %v", err, filter.ErrInvalidFilter)
	}
}

func TestListAllExpensesOrdersByDate(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ids := seedExpenses(t, store)

	all, err := store.ListAllExpenses(context.Background())
	if err != nil {
		t.Fatalf("list all expenses: %v", err)
	}
	want := []int64{ids[0], ids[1], ids[2], ids[3], ids[5], ids[4]}
	if diff := cmp.Diff(want, expenseIDs(all)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestResetExpensesArchivesThenClears(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedExpenses(t, store)

	result, err := store.ResetExpenses(context.Background(), true)
	if err != nil {
		t.Fatalf("reset expenses: %v", err)
	}
	if result.Cleared != 6 {
		t.Fatalf("cleared = %d, want 6", result.Cleared)
	}
	if result.ArchiveID <= 0 {
		t.Fatalf("archive id = %d, want positive", result.ArchiveID)
	}

	remaining, err := store.ListAllExpenses(context.Background())
	if err != nil {
		t.Fatalf("list all expenses: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("remaining = %d, want 0", len(remaining))
	}

	archives, err := store.ListArchives(context.Background())
	if err != nil {
		t.Fatalf("list archives: %v", err)
	}
	if len(archives) != 1 {
		t.Fatalf("archives = %d, want 1", len(archives))
	}
	archive := archives[0]
	if archive.ID != result.ArchiveID {
		t.Fatalf("archive id = %d, want %d", archive.ID, result.ArchiveID)
	}
	if archive.Count != 6 {
		t.Fatalf("archive count = %d, want 6", archive.Count)
	}
	if !archive.Total.Equal(decimal.RequireFromString("126.75")) {
		t.Fatalf("archive total = %s, want 126.75", archive.Total)
	}
	if got := archive.FirstDate.Format(domain.DateLayout); got != "2025-09-01" {
		t.Fatalf("first date = %q, want 2025-09-01", got)
	}
	if got := archive.LastDate.Format(domain.DateLayout); got != "2025-09-04" {
		t.Fatalf("last date = %q, want 2025-09-04", got)
	}
}

func TestResetExpensesWithoutArchive(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	seedExpenses(t, store)

	result, err := store.ResetExpenses(context.Background(), false)
	if err != nil {
		t.Fatalf("reset expenses: %v", err)
	}
	if result.Cleared != 6 || result.ArchiveID != 0 {
		t.Fatalf("result = %+v, want 6 cleared and no archive", result)
	}
	archives, err := store.ListArchives(context.Background())
	if err != nil {
		t.Fatalf("list archives: %v", err)
	}
	if len(archives) != 0 {
		t.Fatalf("archives = %d, want 0", len(archives))
	}
}

func TestResetExpensesEmptyStoreSkipsArchive(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	result, err := store.ResetExpenses(context.Background(), true)
	if err != nil {
		t.Fatalf("reset expenses: %v", err)
	}
	if result.Cleared != 0 || result.ArchiveID != 0 {
		t.Fatalf("result = %+v, want zero", result)
	}
}

func TestExpenseIDsAreNotReusedAfterReset(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ids := seedExpenses(t, store)
	if _, err := store.ResetExpenses(context.Background(), true); err != nil {
		t.Fatalf("reset expenses: %v", err)
	}
	created, err := store.CreateExpense(context.Background(), mustExpense(t, "2025-09-05", domain.CategoryFood, "1", ""))
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if created.ID <= ids[len(ids)-1] {
		t.Fatalf("id = %d, want greater than %d", created.ID, ids[len(ids)-1])
	}
}

func TestStoreRespectsCanceledContext(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.ListAllExpenses(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("list error = %v, want %v", err, context.Canceled)
	}
}

func TestReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "expenses.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.CreateExpense(context.Background(), mustExpense(t, "2025-09-01", domain.CategoryFood, "5", "")); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	all, err := reopened.ListAllExpenses(context.Background())
	if err != nil {
		t.Fatalf("list all expenses: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expenses = %d, want 1", len(all))
	}
	if !all[0].Amount.Equal(money.FromCents(500)) {
		t.Fatalf("amount = %s, want 5", all[0].Amount)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "expenses.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func mustExpense(t *testing.T, date string, category domain.Category, amount, description string) domain.Expense {
	t.Helper()

	expense, err := domain.NormalizeCreateInput(domain.CreateInput{
		Date:        date,
		Category:    string(category),
		Amount:      decimal.RequireFromString(amount),
		Description: description,
	})
	if err != nil {
		t.Fatalf("normalize expense: %v", err)
	}
	return expense
}

// seedExpenses inserts six expenses; the last one is dated before the fifth.
func seedExpenses(t *testing.T, store *Store) []int64 {
	t.Helper()

	rows := []struct {
		date        string
		category    domain.Category
		amount      string
		description string
	}{
		{"2025-09-01", domain.CategoryFood, "12.50", "lunch"},
		{"2025-09-01", domain.CategoryBills, "60.00", "power"},
		{"2025-09-02", domain.CategoryTransport, "2.75", "bus"},
		{"2025-09-02", domain.CategoryFood, "8.00", "coffee beans"},
		{"2025-09-04", domain.CategoryEntertainment, "33.50", "concert"},
		{"2025-09-03", domain.CategoryOther, "10.00", "gift wrap"},
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		created, err := store.CreateExpense(context.Background(), mustExpense(t, row.date, row.category, row.amount, row.description))
		if err != nil {
			t.Fatalf("create expense: %v", err)
		}
		ids = append(ids, created.ID)
	}
	return ids
}

func expenseIDs(expenses []domain.Expense) []int64 {
	ids := make([]int64, 0, len(expenses))
	for _, expense := range expenses {
		ids = append(ids, expense.ID)
	}
	return ids
}
