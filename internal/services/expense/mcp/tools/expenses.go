package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/pennywise/internal/platform/money"
	"github.com/louisbranch/pennywise/internal/services/expense/chatbot"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/louisbranch/pennywise/internal/services/expense/insights"
	"github.com/louisbranch/pennywise/internal/services/expense/service"
	"github.com/louisbranch/pennywise/internal/services/expense/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"
)

// ExpenseService is the slice of the application service the tools call.
type ExpenseService interface {
	AddExpense(ctx context.Context, input domain.CreateInput) (domain.Expense, error)
	ListExpenses(ctx context.Context, query storage.ListQuery) (storage.ExpensePage, error)
	DeleteExpense(ctx context.Context, id int64) error
	Summary(ctx context.Context) (insights.Summary, error)
	Forecast(ctx context.Context, days int) (service.ForecastResult, error)
	Ask(ctx context.Context, req chatbot.Request) (chatbot.Response, error)
}

// Expense is the MCP representation of one expense.
type Expense struct {
	ID          int64   `json:"id" jsonschema:"expense identifier"`
	Date        string  `json:"date" jsonschema:"expense date (YYYY-MM-DD)"`
	Category    string  `json:"category" jsonschema:"expense category"`
	Amount      float64 `json:"amount" jsonschema:"amount in US dollars"`
	Description string  `json:"description,omitempty" jsonschema:"free-text description"`
}

func expenseFromDomain(expense domain.Expense) Expense {
	return Expense{
		ID:          expense.ID,
		Date:        expense.DateString(),
		Category:    string(expense.Category),
		Amount:      money.Float(expense.Amount),
		Description: expense.Description,
	}
}

// ExpenseAddInput represents the MCP tool input for recording an expense.
type ExpenseAddInput struct {
	Date        string  `json:"date" jsonschema:"expense date (YYYY-MM-DD)"`
	Category    string  `json:"category" jsonschema:"one of Food, Transport, Bills, Entertainment, Other"`
	Amount      float64 `json:"amount" jsonschema:"amount in US dollars, at least 0.01"`
	Description string  `json:"description,omitempty" jsonschema:"optional description"`
}

// ExpenseAddResult represents the MCP tool output for a recorded expense.
type ExpenseAddResult struct {
	Expense Expense `json:"expense" jsonschema:"the stored expense"`
}

// ExpenseListInput represents the MCP tool input for listing expenses.
type ExpenseListInput struct {
	Filter    string `json:"filter,omitempty" jsonschema:"optional AIP-160 filter over category, date, amount and description"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"maximum expenses to return (default 50, max 500)"`
	PageToken string `json:"page_token,omitempty" jsonschema:"token from a previous page"`
}

// ExpenseListResult represents the MCP tool output for listing expenses.
type ExpenseListResult struct {
	Expenses      []Expense `json:"expenses" jsonschema:"expenses ordered by id"`
	NextPageToken string    `json:"next_page_token,omitempty" jsonschema:"token for the next page, empty on the last page"`
}

// ExpenseDeleteInput represents the MCP tool input for deleting an expense.
type ExpenseDeleteInput struct {
	ID int64 `json:"id" jsonschema:"expense identifier"`
}

// ExpenseDeleteResult represents the MCP tool output for a deletion.
type ExpenseDeleteResult struct {
	ID      int64  `json:"id" jsonschema:"deleted expense identifier"`
	Message string `json:"message" jsonschema:"confirmation message"`
}

// ExpenseAddTool defines the expense_add tool.
func ExpenseAddTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "expense_add",
		Description: "Records a new expense",
	}
}

// ExpenseListTool defines the expense_list tool.
func ExpenseListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "expense_list",
		Description: "Lists recorded expenses with optional filtering and paging",
	}
}

// ExpenseDeleteTool defines the expense_delete tool.
func ExpenseDeleteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "expense_delete",
		Description: "Deletes an expense by id",
	}
}

// ExpenseAddHandler records an expense through the application service.
func ExpenseAddHandler(svc ExpenseService) mcp.ToolHandlerFor[ExpenseAddInput, ExpenseAddResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ExpenseAddInput) (*mcp.CallToolResult, ExpenseAddResult, error) {
		created, err := svc.AddExpense(ctx, domain.CreateInput{
			Date:        input.Date,
			Category:    input.Category,
			Amount:      decimal.NewFromFloat(input.Amount),
			Description: input.Description,
		})
		if err != nil {
			return nil, ExpenseAddResult{}, fmt.Errorf("expense add failed: %w", err)
		}
		return nil, ExpenseAddResult{Expense: expenseFromDomain(created)}, nil
	}
}

// ExpenseListHandler lists expenses through the application service.
func ExpenseListHandler(svc ExpenseService) mcp.ToolHandlerFor[ExpenseListInput, ExpenseListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ExpenseListInput) (*mcp.CallToolResult, ExpenseListResult, error) {
		page, err := svc.ListExpenses(ctx, storage.ListQuery{
			Filter:    input.Filter,
			PageSize:  input.PageSize,
			PageToken: strings.TrimSpace(input.PageToken),
		})
		if err != nil {
			return nil, ExpenseListResult{}, fmt.Errorf("expense list failed: %w", err)
		}
		result := ExpenseListResult{
			Expenses:      make([]Expense, 0, len(page.Expenses)),
			NextPageToken: page.NextPageToken,
		}
		for _, expense := range page.Expenses {
			result.Expenses = append(result.Expenses, expenseFromDomain(expense))
		}
		return nil, result, nil
	}
}

// ExpenseDeleteHandler deletes an expense through the application service.
func ExpenseDeleteHandler(svc ExpenseService) mcp.ToolHandlerFor[ExpenseDeleteInput, ExpenseDeleteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ExpenseDeleteInput) (*mcp.CallToolResult, ExpenseDeleteResult, error) {
		if input.ID <= 0 {
			return nil, ExpenseDeleteResult{}, fmt.Errorf("id must be a positive integer")
		}
		if err := svc.DeleteExpense(ctx, input.ID); err != nil {
			return nil, ExpenseDeleteResult{}, fmt.Errorf("expense delete failed: %w", err)
		}
		return nil, ExpenseDeleteResult{
			ID:      input.ID,
			Message: fmt.Sprintf("Expense %d deleted", input.ID),
		}, nil
	}
}
