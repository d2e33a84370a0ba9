// Package insights aggregates expenses into the totals shown on the dashboard.
package insights

import (
	"fmt"
	"sort"
	"time"

	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/shopspring/decimal"
)

// CategoryTotal is the spend for one category.
type CategoryTotal struct {
	Category domain.Category
	Total    decimal.Decimal
	Count    int
}

// PeriodTotal is the spend for one day, ISO week, or month.
type PeriodTotal struct {
	Period string
	Total  decimal.Decimal
}

// Summary holds every aggregate the dashboard renders.
type Summary struct {
	// Total covers every open expense, which is the current day until the
	// next "start new day" or reset.
	Total decimal.Decimal
	Count int
	// TodayTotal covers only the open expenses whose date is today.
	TodayTotal decimal.Decimal
	// ByCategory is ordered by total descending, then category name.
	ByCategory []CategoryTotal
	Daily      []PeriodTotal
	Weekly     []PeriodTotal
	Monthly    []PeriodTotal
}

// DayKey formats a date as YYYY-MM-DD.
func DayKey(date time.Time) string {
	return date.Format(domain.DateLayout)
}

// WeekKey formats a date as its ISO week, e.g. 2025-W36.
func WeekKey(date time.Time) string {
	year, week := date.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthKey formats a date as YYYY-MM.
func MonthKey(date time.Time) string {
	return date.Format("2006-01")
}

// Summarize computes totals over expenses. today selects the expenses that
// count toward TodayTotal.
func Summarize(expenses []domain.Expense, today time.Time) Summary {
	summary := Summary{
		Total:      decimal.Zero,
		TodayTotal: decimal.Zero,
		Count:      len(expenses),
	}
	todayKey := DayKey(domain.CivilDate(today))

	byCategory := make(map[domain.Category]*CategoryTotal)
	daily := make(map[string]decimal.Decimal)
	weekly := make(map[string]decimal.Decimal)
	monthly := make(map[string]decimal.Decimal)

	for _, expense := range expenses {
		summary.Total = summary.Total.Add(expense.Amount)
		day := DayKey(expense.Date)
		if day == todayKey {
			summary.TodayTotal = summary.TodayTotal.Add(expense.Amount)
		}

		entry, ok := byCategory[expense.Category]
		if !ok {
			entry = &CategoryTotal{Category: expense.Category, Total: decimal.Zero}
			byCategory[expense.Category] = entry
		}
		entry.Total = entry.Total.Add(expense.Amount)
		entry.Count++

		daily[day] = addTo(daily, day, expense.Amount)
		week := WeekKey(expense.Date)
		weekly[week] = addTo(weekly, week, expense.Amount)
		month := MonthKey(expense.Date)
		monthly[month] = addTo(monthly, month, expense.Amount)
	}

	summary.ByCategory = make([]CategoryTotal, 0, len(byCategory))
	for _, entry := range byCategory {
		summary.ByCategory = append(summary.ByCategory, *entry)
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		left, right := summary.ByCategory[i], summary.ByCategory[j]
		if cmp := left.Total.Cmp(right.Total); cmp != 0 {
			return cmp > 0
		}
		return left.Category < right.Category
	})

	summary.Daily = sortedPeriods(daily)
	summary.Weekly = sortedPeriods(weekly)
	summary.Monthly = sortedPeriods(monthly)
	return summary
}

func addTo(totals map[string]decimal.Decimal, key string, amount decimal.Decimal) decimal.Decimal {
	current, ok := totals[key]
	if !ok {
		return amount
	}
	return current.Add(amount)
}

// sortedPeriods relies on the keys sorting lexically in calendar order.
func sortedPeriods(totals map[string]decimal.Decimal) []PeriodTotal {
	periods := make([]PeriodTotal, 0, len(totals))
	for period, total := range totals {
		periods = append(periods, PeriodTotal{Period: period, Total: total})
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Period < periods[j].Period
	})
	return periods
}
