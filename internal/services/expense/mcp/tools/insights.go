package tools

import (
	"context"
	"fmt"

	"github.com/louisbranch/pennywise/internal/platform/money"
	"github.com/louisbranch/pennywise/internal/services/expense/chatbot"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/louisbranch/pennywise/internal/services/expense/insights"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SpendingSummaryInput is empty; the summary always covers every expense.
type SpendingSummaryInput struct{}

// CategoryTotal is one category slice of spending.
type CategoryTotal struct {
	Category string  `json:"category" jsonschema:"expense category"`
	Total    float64 `json:"total" jsonschema:"total spent in US dollars"`
	Count    int     `json:"count" jsonschema:"number of expenses"`
}

// PeriodTotal is the spending for one day, ISO week or month.
type PeriodTotal struct {
	Period string  `json:"period" jsonschema:"period key (YYYY-MM-DD, YYYY-Www or YYYY-MM)"`
	Total  float64 `json:"total" jsonschema:"total spent in US dollars"`
}

// SpendingSummaryResult represents the MCP tool output for a spending summary.
type SpendingSummaryResult struct {
	Total      float64         `json:"total" jsonschema:"total spent in US dollars"`
	Count      int             `json:"count" jsonschema:"number of expenses"`
	TodayTotal float64         `json:"today_total" jsonschema:"spent on expenses dated today"`
	ByCategory []CategoryTotal `json:"by_category" jsonschema:"totals per category, largest first"`
	Daily      []PeriodTotal   `json:"daily" jsonschema:"totals per day"`
	Weekly     []PeriodTotal   `json:"weekly" jsonschema:"totals per ISO week"`
	Monthly    []PeriodTotal   `json:"monthly" jsonschema:"totals per month"`
}

// SpendingForecastInput represents the MCP tool input for a forecast.
type SpendingForecastInput struct {
	Days int `json:"days,omitempty" jsonschema:"days to predict (default 7, max 90)"`
}

// Prediction is one forecast day.
type Prediction struct {
	Date   string  `json:"date" jsonschema:"predicted date (YYYY-MM-DD)"`
	Amount float64 `json:"amount" jsonschema:"predicted spending in US dollars"`
}

// SpendingForecastResult represents the MCP tool output for a forecast.
type SpendingForecastResult struct {
	Slope       float64      `json:"slope" jsonschema:"daily change of the fitted line"`
	Intercept   float64      `json:"intercept" jsonschema:"fitted spending on the first observed day"`
	TrainSize   int          `json:"train_size" jsonschema:"days used to fit the line"`
	TestSize    int          `json:"test_size" jsonschema:"days held out for evaluation"`
	MAE         *float64     `json:"mae,omitempty" jsonschema:"mean absolute error on held-out days"`
	Predictions []Prediction `json:"predictions" jsonschema:"predicted daily spending"`
}

// AssistantAskInput represents the MCP tool input for the spending assistant.
type AssistantAskInput struct {
	Prompt string `json:"prompt" jsonschema:"question about recorded spending"`
	APIKey string `json:"api_key,omitempty" jsonschema:"optional Gemini API key for this question"`
}

// AssistantAskResult represents the MCP tool output for the spending assistant.
type AssistantAskResult struct {
	Response string `json:"response" jsonschema:"assistant reply"`
	Mode     string `json:"mode" jsonschema:"rules or llm"`
}

// SpendingSummaryTool defines the spending_summary tool.
func SpendingSummaryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "spending_summary",
		Description: "Summarizes spending by category, day, week and month",
	}
}

// SpendingForecastTool defines the spending_forecast tool.
func SpendingForecastTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "spending_forecast",
		Description: "Predicts daily spending with a linear trend over past days",
	}
}

// AssistantAskTool defines the assistant_ask tool.
func AssistantAskTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "assistant_ask",
		Description: "Asks the financial assistant a question about recorded spending",
	}
}

// SpendingSummaryHandler summarizes every recorded expense.
func SpendingSummaryHandler(svc ExpenseService) mcp.ToolHandlerFor[SpendingSummaryInput, SpendingSummaryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ SpendingSummaryInput) (*mcp.CallToolResult, SpendingSummaryResult, error) {
		summary, err := svc.Summary(ctx)
		if err != nil {
			return nil, SpendingSummaryResult{}, fmt.Errorf("spending summary failed: %w", err)
		}
		return nil, summaryResult(summary), nil
	}
}

func summaryResult(summary insights.Summary) SpendingSummaryResult {
	result := SpendingSummaryResult{
		Total:      money.Float(summary.Total),
		Count:      summary.Count,
		TodayTotal: money.Float(summary.TodayTotal),
		ByCategory: make([]CategoryTotal, 0, len(summary.ByCategory)),
		Daily:      periodTotals(summary.Daily),
		Weekly:     periodTotals(summary.Weekly),
		Monthly:    periodTotals(summary.Monthly),
	}
	for _, entry := range summary.ByCategory {
		result.ByCategory = append(result.ByCategory, CategoryTotal{
			Category: string(entry.Category),
			Total:    money.Float(entry.Total),
			Count:    entry.Count,
		})
	}
	return result
}

func periodTotals(periods []insights.PeriodTotal) []PeriodTotal {
	totals := make([]PeriodTotal, 0, len(periods))
	for _, period := range periods {
		totals = append(totals, PeriodTotal{Period: period.Period, Total: money.Float(period.Total)})
	}
	return totals
}

// SpendingForecastHandler trains the trend model and predicts the requested days.
func SpendingForecastHandler(svc ExpenseService) mcp.ToolHandlerFor[SpendingForecastInput, SpendingForecastResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SpendingForecastInput) (*mcp.CallToolResult, SpendingForecastResult, error) {
		if input.Days < 0 {
			return nil, SpendingForecastResult{}, fmt.Errorf("days must not be negative")
		}
		forecast, err := svc.Forecast(ctx, input.Days)
		if err != nil {
			return nil, SpendingForecastResult{}, fmt.Errorf("spending forecast failed: %w", err)
		}
		model := forecast.Model
		result := SpendingForecastResult{
			Slope:       model.Line.Slope,
			Intercept:   model.Line.Intercept,
			TrainSize:   model.TrainSize,
			TestSize:    model.TestSize,
			Predictions: make([]Prediction, 0, len(forecast.Predictions)),
		}
		if model.TestSize > 0 {
			mae := model.MAE
			result.MAE = &mae
		}
		for _, prediction := range forecast.Predictions {
			result.Predictions = append(result.Predictions, Prediction{
				Date:   prediction.Date.Format(domain.DateLayout),
				Amount: money.Float(prediction.Amount),
			})
		}
		return nil, result, nil
	}
}

// AssistantAskHandler answers a question with the rule responder or the model.
func AssistantAskHandler(svc ExpenseService) mcp.ToolHandlerFor[AssistantAskInput, AssistantAskResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input AssistantAskInput) (*mcp.CallToolResult, AssistantAskResult, error) {
		response, err := svc.Ask(ctx, chatbot.Request{Prompt: input.Prompt, APIKey: input.APIKey})
		if err != nil {
			return nil, AssistantAskResult{}, fmt.Errorf("assistant ask failed: %w", err)
		}
		return nil, AssistantAskResult{Response: response.Text, Mode: string(response.Mode)}, nil
	}
}
