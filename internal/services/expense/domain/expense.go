// Package domain models expenses and the rules for accepting them.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/louisbranch/pennywise/internal/platform/money"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used on every surface and in storage.
const DateLayout = "2006-01-02"

// MaxDescriptionRunes bounds the free-text description.
const MaxDescriptionRunes = 500

// Category groups expenses for charts and chatbot answers.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryBills         Category = "Bills"
	CategoryEntertainment Category = "Entertainment"
	CategoryOther         Category = "Other"
)

// Categories lists the accepted categories in form order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryBills,
	CategoryEntertainment,
	CategoryOther,
}

var (
	// ErrEmptyDate indicates the expense date is missing.
	ErrEmptyDate = errors.New("date is required")
	// ErrInvalidDate indicates the date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")
	// ErrEmptyCategory indicates the category is missing.
	ErrEmptyCategory = errors.New("category is required")
	// ErrInvalidCategory indicates an unsupported category.
	ErrInvalidCategory = errors.New("category must be one of Food, Transport, Bills, Entertainment, Other")
	// ErrAmountTooSmall indicates the amount is below one cent.
	ErrAmountTooSmall = errors.New("amount must be at least 0.01")
	// ErrAmountTooLarge indicates the amount exceeds MaxAmount.
	ErrAmountTooLarge = fmt.Errorf("amount must be at most %s", MaxAmount.StringFixed(money.Places))
	// ErrDescriptionTooLong indicates the description exceeds MaxDescriptionRunes.
	ErrDescriptionTooLong = fmt.Errorf("description must be at most %d characters", MaxDescriptionRunes)
)

// MinAmount is the smallest accepted expense amount.
var MinAmount = decimal.New(1, -money.Places)

// MaxAmount is the largest accepted expense amount.
var MaxAmount = decimal.New(1_000_000_000, 0)

// Expense is one recorded spending entry.
type Expense struct {
	ID          int64
	Date        time.Time
	Category    Category
	Amount      decimal.Decimal
	Description string
	CreatedAt   time.Time
}

// DateString returns the expense date as YYYY-MM-DD.
func (e Expense) DateString() string {
	return e.Date.Format(DateLayout)
}

// CreateInput captures user-provided fields for a new expense.
type CreateInput struct {
	Date        string
	Category    string
	Amount      decimal.Decimal
	Description string
}

// ParseCategory matches value case-insensitively against the known categories.
func ParseCategory(value string) (Category, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrEmptyCategory
	}
	for _, category := range Categories {
		if strings.EqualFold(value, string(category)) {
			return category, nil
		}
	}
	return "", ErrInvalidCategory
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmptyDate
	}
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return parsed, nil
}

// CivilDate truncates t to its calendar date in t's location, expressed as
// UTC midnight so dates compare and subtract cleanly.
func CivilDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NormalizeCreateInput validates input and returns the expense to store.
func NormalizeCreateInput(input CreateInput) (Expense, error) {
	date, err := ParseDate(input.Date)
	if err != nil {
		return Expense{}, err
	}
	category, err := ParseCategory(input.Category)
	if err != nil {
		return Expense{}, err
	}
	amount := input.Amount.Round(money.Places)
	if amount.LessThan(MinAmount) {
		return Expense{}, ErrAmountTooSmall
	}
	if amount.GreaterThan(MaxAmount) {
		return Expense{}, ErrAmountTooLarge
	}
	description := strings.TrimSpace(input.Description)
	if utf8.RuneCountInString(description) > MaxDescriptionRunes {
		return Expense{}, ErrDescriptionTooLong
	}
	return Expense{
		Date:        date,
		Category:    category,
		Amount:      amount,
		Description: description,
	}, nil
}

// IsValidationError reports whether err is one of the input validation errors.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrEmptyDate,
		ErrInvalidDate,
		ErrEmptyCategory,
		ErrInvalidCategory,
		ErrAmountTooSmall,
		ErrAmountTooLarge,
		ErrDescriptionTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
