package chatbot

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/louisbranch/pennywise/internal/services/expense/domain"
)

// SystemPrompt frames every model request.
const SystemPrompt = "You are a friendly and helpful financial assistant. " +
	"Your goal is to provide insights and answer questions based on the user's expense data. " +
	"Analyze the data provided and give a concise, easy-to-understand response. " +
	"You can talk about spending trends, categorize expenses, or offer general tips. " +
	"Do not provide any financial advice."

// BuildPrompt assembles the full model input: system prompt, earlier turns,
// the user's prompt, and every expense as an aligned table.
func BuildPrompt(prompt string, history []Message, expenses []domain.Expense) string {
	var b strings.Builder
	b.WriteString(SystemPrompt)

	if len(history) > 0 {
		b.WriteString("\n\nConversation so far:\n")
		for _, message := range history {
			fmt.Fprintf(&b, "%s: %s\n", message.Role, strings.TrimSpace(message.Text))
		}
	}

	b.WriteString("\n\nUser's prompt: ")
	b.WriteString(strings.TrimSpace(prompt))
	b.WriteString("\n\nUser's raw expense data:\n")
	b.WriteString(ExpenseTable(expenses))
	return b.String()
}

// ExpenseTable renders expenses as whitespace-aligned columns.
func ExpenseTable(expenses []domain.Expense) string {
	if len(expenses) == 0 {
		return "(no expenses recorded)\n"
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "id\tdate\tcategory\tamount\tdescription")
	for _, expense := range expenses {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			expense.ID,
			expense.DateString(),
			expense.Category,
			expense.Amount.StringFixed(2),
			strings.ReplaceAll(expense.Description, "\n", " "),
		)
	}
	_ = w.Flush()
	return b.String()
}
