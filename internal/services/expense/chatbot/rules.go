package chatbot

import (
	"strings"
	"unicode"

	"github.com/louisbranch/pennywise/internal/platform/money"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/shopspring/decimal"
)

const (
	greetingReply = "Hello! I am a financial assistant. I can help you with your spending data."
	thanksReply   = "You're welcome! Let me know if you have any other questions."
	fallbackReply = "I can't answer that with my current knowledge. Please add a Gemini API key to unlock the AI chatbot."
)

// RuleReply answers prompt without a language model. Rules are checked in
// order: greeting, total spending, thanks, fallback. Greetings match whole
// words only, so "this" does not count as "hi".
func RuleReply(prompt string, expenses []domain.Expense) string {
	lower := strings.ToLower(prompt)
	words := wordSet(lower)

	switch {
	case words["hello"] || words["hi"]:
		return greetingReply
	case strings.Contains(lower, "spending") && (strings.Contains(lower, "total") || strings.Contains(lower, "how much")):
		return "Your total spending so far is " + money.Format(totalOf(expenses)) + "."
	case strings.Contains(lower, "thanks") || strings.Contains(lower, "thank you"):
		return thanksReply
	default:
		return fallbackReply
	}
}

func wordSet(text string) map[string]bool {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := make(map[string]bool, len(fields))
	for _, field := range fields {
		words[field] = true
	}
	return words
}

func totalOf(expenses []domain.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, expense := range expenses {
		total = total.Add(expense.Amount)
	}
	return total
}
