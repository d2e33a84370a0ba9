package filter

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseEmptyFilter(t *testing.T) {
	t.Parallel()

	cond, err := Parse("  ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cond.Empty() {
		t.Fatalf("condition = %+v, want empty", cond)
	}
}

func TestParseTranslatesToSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter string
		want   SQLCondition
	}{
		{
			name:   "category equality canonicalizes",
			filter: `category = "food"`,
			want:   SQLCondition{Clause: "category = ?", Params: []any{"Food"}},
		},
		{
			name:   "amount in cents",
			filter: `amount >= 10.5`,
			want:   SQLCondition{Clause: "amount_cents >= ?", Params: []any{int64(1050)}},
		},
		{
			name:   "amount integer literal",
			filter: `amount > 50`,
			want:   SQLCondition{Clause: "amount_cents > ?", Params: []any{int64(5000)}},
		},
		{
			name:   "amount integer equality",
			filter: `amount = 10 OR amount <= 2`,
			want: SQLCondition{
				Clause: "(amount_cents = ? OR amount_cents <= ?)",
				Params: []any{int64(1000), int64(200)},
			},
		},
		{
			name:   "date range",
			filter: `date >= "2025-01-01" AND date < "2025-02-01"`,
			want: SQLCondition{
				Clause: "(date >= ? AND date < ?)",
				Params: []any{"2025-01-01", "2025-02-01"},
			},
		},
		{
			name:   "disjunction",
			filter: `category = "Bills" OR category = "Transport"`,
			want: SQLCondition{
				Clause: "(category = ? OR category = ?)",
				Params: []any{"Bills", "Transport"},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.filter)
			if err != nil {
				t.Fatalf("parse %q: %v", tc.filter, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("condition mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRejectsInvalidFilters(t *testing.T) {
	t.Parallel()

	for _, filterStr := range []string{
		`merchant = "Cafe"`,
		`category = "Travel"`,
		`date >= "01/02/2025"`,
		`category =`,
		`amount = 10.004`,
		`amount >= 99999999999999999999.0`,
	} {
		_, err := Parse(filterStr)
		if err == nil {
			t.Errorf("Parse(%q) succeeded, want error", filterStr)
			continue
		}
		if !errors.Is(err, ErrInvalidFilter) {
			t.Errorf("Parse(%q) error = %v, want %v", filterStr, err, ErrInvalidFilter)
		}
	}
}
