package app

import (
	"time"

	"github.com/louisbranch/pennywise/internal/platform/money"
	"github.com/louisbranch/pennywise/internal/services/expense/chatbot"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/louisbranch/pennywise/internal/services/expense/insights"
	"github.com/louisbranch/pennywise/internal/services/expense/service"
	"github.com/louisbranch/pennywise/internal/services/expense/storage"
)

type expenseView struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

func newExpenseView(expense domain.Expense) expenseView {
	view := expenseView{
		ID:          expense.ID,
		Date:        expense.DateString(),
		Category:    string(expense.Category),
		Amount:      money.Float(expense.Amount),
		Description: expense.Description,
	}
	if !expense.CreatedAt.IsZero() {
		view.CreatedAt = expense.CreatedAt.UTC().Format(time.RFC3339)
	}
	return view
}

func newExpenseViews(expenses []domain.Expense) []expenseView {
	views := make([]expenseView, 0, len(expenses))
	for _, expense := range expenses {
		views = append(views, newExpenseView(expense))
	}
	return views
}

type expensePageView struct {
	Expenses      []expenseView `json:"expenses"`
	NextPageToken string        `json:"next_page_token,omitempty"`
}

type resetView struct {
	Message   string `json:"message"`
	Cleared   int    `json:"cleared"`
	ArchiveID int64  `json:"archive_id,omitempty"`
}

type archiveView struct {
	ID         int64   `json:"id"`
	ArchivedAt string  `json:"archived_at"`
	Count      int     `json:"count"`
	Total      float64 `json:"total"`
	FirstDate  string  `json:"first_date,omitempty"`
	LastDate   string  `json:"last_date,omitempty"`
}

func newArchiveViews(archives []storage.Archive) []archiveView {
	views := make([]archiveView, 0, len(archives))
	for _, archive := range archives {
		view := archiveView{
			ID:         archive.ID,
			ArchivedAt: archive.ArchivedAt.UTC().Format(time.RFC3339),
			Count:      archive.Count,
			Total:      money.Float(archive.Total),
		}
		if !archive.FirstDate.IsZero() {
			view.FirstDate = archive.FirstDate.Format(domain.DateLayout)
		}
		if !archive.LastDate.IsZero() {
			view.LastDate = archive.LastDate.Format(domain.DateLayout)
		}
		views = append(views, view)
	}
	return views
}

type categoryTotalView struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
}

type periodTotalView struct {
	Period string  `json:"period"`
	Total  float64 `json:"total"`
}

type summaryView struct {
	Total      float64             `json:"total"`
	Count      int                 `json:"count"`
	TodayTotal float64             `json:"today_total"`
	ByCategory []categoryTotalView `json:"by_category"`
	Daily      []periodTotalView   `json:"daily"`
	Weekly     []periodTotalView   `json:"weekly"`
	Monthly    []periodTotalView   `json:"monthly"`
}

func newSummaryView(summary insights.Summary) summaryView {
	view := summaryView{
		Total:      money.Float(summary.Total),
		Count:      summary.Count,
		TodayTotal: money.Float(summary.TodayTotal),
		ByCategory: make([]categoryTotalView, 0, len(summary.ByCategory)),
		Daily:      newPeriodViews(summary.Daily),
		Weekly:     newPeriodViews(summary.Weekly),
		Monthly:    newPeriodViews(summary.Monthly),
	}
	for _, entry := range summary.ByCategory {
		view.ByCategory = append(view.ByCategory, categoryTotalView{
			Category: string(entry.Category),
			Total:    money.Float(entry.Total),
			Count:    entry.Count,
		})
	}
	return view
}

func newPeriodViews(periods []insights.PeriodTotal) []periodTotalView {
	views := make([]periodTotalView, 0, len(periods))
	for _, period := range periods {
		views = append(views, periodTotalView{Period: period.Period, Total: money.Float(period.Total)})
	}
	return views
}

type predictionView struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type forecastView struct {
	StartDate   string           `json:"start_date"`
	LastDate    string           `json:"last_date"`
	Slope       float64          `json:"slope"`
	Intercept   float64          `json:"intercept"`
	Days        int              `json:"observed_days"`
	TrainSize   int              `json:"train_size"`
	TestSize    int              `json:"test_size"`
	MAE         *float64         `json:"mae,omitempty"`
	Predictions []predictionView `json:"predictions"`
}

func newForecastView(result service.ForecastResult) forecastView {
	model := result.Model
	view := forecastView{
		StartDate:   model.Start.Format(domain.DateLayout),
		LastDate:    model.Last.Format(domain.DateLayout),
		Slope:       model.Line.Slope,
		Intercept:   model.Line.Intercept,
		Days:        model.Days,
		TrainSize:   model.TrainSize,
		TestSize:    model.TestSize,
		Predictions: make([]predictionView, 0, len(result.Predictions)),
	}
	if model.TestSize > 0 {
		mae := model.MAE
		view.MAE = &mae
	}
	for _, prediction := range result.Predictions {
		view.Predictions = append(view.Predictions, predictionView{
			Date:   prediction.Date.Format(domain.DateLayout),
			Amount: money.Float(prediction.Amount),
		})
	}
	return view
}

type chatRequest struct {
	Prompt string `json:"prompt"`
	APIKey string `json:"api_key"`
}

type chatResponse struct {
	Response string `json:"response"`
	Mode     string `json:"mode"`
}

func newChatResponse(response chatbot.Response) chatResponse {
	return chatResponse{Response: response.Text, Mode: string(response.Mode)}
}
