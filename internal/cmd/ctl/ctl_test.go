package ctl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAddListDelete(t *testing.T) {
	t.Parallel()

	db := filepath.Join(t.TempDir(), "expenses.db")
	out := run(t, db, "add", "--date", "2025-09-01", "--category", "food", "--amount", "1234.5", "--description", "rent share")
	if out != "Added expense 1: 2025-09-01 Food $1,234.50\n" {
		t.Fatalf("add output = %q", out)
	}
	run(t, db, "add", "--date", "2025-09-02", "--category", "Bills", "--amount", "40")

	out = run(t, db, "list", "--filter", `category = "Bills"`)
	if !strings.Contains(out, "Bills") || strings.Contains(out, "rent share") {
		t.Fatalf("filtered list = %q", out)
	}

	out = run(t, db, "list", "--page-size", "1")
	if !strings.Contains(out, "rent share") || !strings.Contains(out, "Next page token: 1") {
		t.Fatalf("paged list = %q", out)
	}

	out = run(t, db, "delete", "1")
	if out != "Expense with ID 1 has been deleted.\n" {
		t.Fatalf("delete output = %q", out)
	}
	if _, err := runErr(t, db, "delete", "1"); err == nil || !strings.Contains(err.Error(), "expense not found") {
		t.Fatalf("second delete error = %v", err)
	}
}

func TestAddValidation(t *testing.T) {
	t.Parallel()

	db := filepath.Join(t.TempDir(), "expenses.db")
	if _, err := runErr(t, db, "add", "--amount", "abc"); err == nil {
		t.Fatal("expected amount parse error")
	}
	if _, err := runErr(t, db, "add", "--amount", "5", "--category", "Rent"); err == nil || !strings.Contains(err.Error(), "category must be one of") {
		t.Fatalf("category error = %v", err)
	}
	if _, err := runErr(t, db, "add"); err == nil {
		t.Fatal("expected missing amount flag error")
	}
	if _, err := runErr(t, db, "delete", "x"); err == nil {
		t.Fatal("expected id parse error")
	}
}

func TestResetAndArchives(t *testing.T) {
	t.Parallel()

	db := filepath.Join(t.TempDir(), "expenses.db")
	run(t, db, "add", "--date", "2025-09-01", "--amount", "5")
	run(t, db, "add", "--date", "2025-09-01", "--amount", "7")

	out := run(t, db, "reset", "--archive")
	if out != "Archived and cleared 2 expenses (archive 1).\n" {
		t.Fatalf("reset --archive output = %q", out)
	}
	out = run(t, db, "archives")
	if !strings.Contains(out, "$12.00") {
		t.Fatalf("archives output = %q", out)
	}

	run(t, db, "add", "--date", "2025-09-02", "--amount", "1")
	if out := run(t, db, "reset"); out != "Cleared 1 expenses.\n" {
		t.Fatalf("reset output = %q", out)
	}
	if out := run(t, db, "list"); out != "No expenses found.\n" {
		t.Fatalf("list after reset = %q", out)
	}
}

func TestSeedSummaryForecastAsk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db := filepath.Join(dir, "expenses.db")
	fixture := filepath.Join(dir, "fixture.yaml")
	writeFile(t, fixture, `expenses:
  - date: 2025-09-01
    category: Food
    amount: 10.00
    description: groceries
  - date: "2025-09-02"
    category: Transport
    amount: 20
  - date: 2025-09-03
    category: Food
    amount: 30.10
`)

	if out := run(t, db, "seed", fixture); out != "Seeded 3 expenses.\n" {
		t.Fatalf("seed output = %q", out)
	}

	out := run(t, db, "summary")
	if !strings.Contains(out, "Total spent: $60.10 across 3 expenses") {
		t.Fatalf("summary output = %q", out)
	}
	if !strings.Contains(out, "Dated today: $0.00") {
		t.Fatalf("summary output = %q", out)
	}
	if strings.Index(out, "Food") > strings.Index(out, "Transport") {
		t.Fatalf("categories not sorted by total: %q", out)
	}

	out = run(t, db, "forecast", "--days", "2")
	if !strings.Contains(out, "2025-09-04") || !strings.Contains(out, "2025-09-05") {
		t.Fatalf("forecast output = %q", out)
	}
	if _, err := runErr(t, db, "forecast", "--days", "0"); err == nil {
		t.Fatal("expected days validation error")
	}

	out = run(t, db, "ask", "what", "is", "my", "total", "spending")
	if out != "Your total spending so far is $60.10.\n" {
		t.Fatalf("ask output = %q", out)
	}
}

func TestLoadFixtureErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "empty", content: "expenses: []\n", want: "no expenses"},
		{name: "bad yaml", content: "expenses: [\n", want: "parse fixture"},
		{name: "bad amount", content: "expenses:\n  - date: 2025-09-01\n    category: Food\n    amount: lots\n", want: "not a number"},
		{name: "bad category", content: "expenses:\n  - date: 2025-09-01\n    category: Rent\n    amount: 1\n", want: "category must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			writeFile(t, path, tt.content)
			_, err := LoadFixture(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want %q", err, tt.want)
			}
		})
	}

	if _, err := LoadFixture(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected missing file error")
	}
}

func run(t *testing.T, db string, args ...string) string {
	t.Helper()

	out, err := runErr(t, db, args...)
	if err != nil {
		t.Fatalf("pennywisectl %v: %v", args, err)
	}
	return out
}

func runErr(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	err := Execute(context.Background(), append([]string{"--db", db}, args...), &out)
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
