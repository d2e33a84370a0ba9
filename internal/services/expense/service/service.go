// Package service is the expense application service shared by the HTTP,
// MCP, and CLI surfaces.
package service

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/pennywise/internal/platform/errors"
	"github.com/louisbranch/pennywise/internal/services/expense/chatbot"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/louisbranch/pennywise/internal/services/expense/forecast"
	"github.com/louisbranch/pennywise/internal/services/expense/insights"
	"github.com/louisbranch/pennywise/internal/services/expense/storage"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// MinForecastExpenses is how many expenses the dashboard needs before it
// shows a forecast.
const MinForecastExpenses = 6

// ForecastNotice is shown on the dashboard in place of a forecast when there
// are too few expenses.
var ForecastNotice = fmt.Sprintf("Add at least %d expenses to enable future predictions.", MinForecastExpenses)

// Responder answers chat requests.
type Responder interface {
	Respond(ctx context.Context, req chatbot.Request) (chatbot.Response, error)
}

// ForecastResult is a trained model and its projections.
type ForecastResult struct {
	Model       forecast.Model
	Predictions []forecast.Prediction
}

// Dashboard is everything the dashboard page renders.
type Dashboard struct {
	Expenses []domain.Expense
	Summary  insights.Summary
	Archives []storage.Archive
	// Forecast is nil when Notice explains why no forecast is shown.
	Forecast *ForecastResult
	Notice   string
}

// Service coordinates storage, analytics, and the chatbot.
type Service struct {
	store storage.ExpenseStore
	chat  Responder
	now   func() time.Time
}

// New builds the application service. chat may be nil when no surface asks
// questions.
func New(store storage.ExpenseStore, chat Responder) *Service {
	return &Service{store: store, chat: chat, now: time.Now}
}

// AddExpense validates input and stores a new expense.
func (s *Service) AddExpense(ctx context.Context, input domain.CreateInput) (_ domain.Expense, err error) {
	ctx, span := startSpan(ctx, "AddExpense", attribute.String("expense.category", input.Category))
	defer func() { endSpan(span, err) }()

	expense, err := domain.NormalizeCreateInput(input)
	if err != nil {
		return domain.Expense{}, classify(err)
	}
	expense.CreatedAt = s.now().UTC()
	created, err := s.store.CreateExpense(ctx, expense)
	if err != nil {
		return domain.Expense{}, classify(fmt.Errorf("add expense: %w", err))
	}
	span.SetAttributes(attribute.Int64("expense.id", created.ID))
	return created, nil
}

// GetExpense returns one expense.
func (s *Service) GetExpense(ctx context.Context, id int64) (_ domain.Expense, err error) {
	ctx, span := startSpan(ctx, "GetExpense", attribute.Int64("expense.id", id))
	defer func() { endSpan(span, err) }()

	expense, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return domain.Expense{}, classify(err)
	}
	return expense, nil
}

// ListExpenses returns one page of expenses matching query.Filter.
func (s *Service) ListExpenses(ctx context.Context, query storage.ListQuery) (_ storage.ExpensePage, err error) {
	ctx, span := startSpan(ctx, "ListExpenses",
		attribute.String("list.filter", query.Filter),
		attribute.Int("list.page_size", query.PageSize),
	)
	defer func() { endSpan(span, err) }()

	if query.PageSize < 0 {
		return storage.ExpensePage{}, apperrors.E(apperrors.KindInvalidInput, "page_size must not be negative")
	}
	page, err := s.store.ListExpenses(ctx, query)
	if err != nil {
		return storage.ExpensePage{}, classify(err)
	}
	return page, nil
}

// DeleteExpense removes one expense.
func (s *Service) DeleteExpense(ctx context.Context, id int64) (err error) {
	ctx, span := startSpan(ctx, "DeleteExpense", attribute.Int64("expense.id", id))
	defer func() { endSpan(span, err) }()

	return classify(s.store.DeleteExpense(ctx, id))
}

// StartNewDay archives the current expenses and clears them.
func (s *Service) StartNewDay(ctx context.Context) (storage.ResetResult, error) {
	return s.reset(ctx, "StartNewDay", true)
}

// ResetDay clears the current expenses without archiving them.
func (s *Service) ResetDay(ctx context.Context) (storage.ResetResult, error) {
	return s.reset(ctx, "ResetDay", false)
}

func (s *Service) reset(ctx context.Context, name string, archive bool) (_ storage.ResetResult, err error) {
	ctx, span := startSpan(ctx, name, attribute.Bool("reset.archive", archive))
	defer func() { endSpan(span, err) }()

	result, err := s.store.ResetExpenses(ctx, archive)
	if err != nil {
		return storage.ResetResult{}, classify(fmt.Errorf("reset expenses: %w", err))
	}
	span.SetAttributes(
		attribute.Int("reset.cleared", result.Cleared),
		attribute.Int64("reset.archive_id", result.ArchiveID),
	)
	return result, nil
}

// ListArchives returns archive batches, newest first.
func (s *Service) ListArchives(ctx context.Context) (_ []storage.Archive, err error) {
	ctx, span := startSpan(ctx, "ListArchives")
	defer func() { endSpan(span, err) }()

	archives, err := s.store.ListArchives(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return archives, nil
}

// Summary aggregates every current expense.
func (s *Service) Summary(ctx context.Context) (_ insights.Summary, err error) {
	ctx, span := startSpan(ctx, "Summary")
	defer func() { endSpan(span, err) }()

	expenses, err := s.store.ListAllExpenses(ctx)
	if err != nil {
		return insights.Summary{}, classify(fmt.Errorf("load expenses: %w", err))
	}
	return insights.Summarize(expenses, s.now()), nil
}

// Forecast trains on current expenses and predicts the next days. Zero days
// uses forecast.DefaultHorizon.
func (s *Service) Forecast(ctx context.Context, days int) (_ ForecastResult, err error) {
	if days == 0 {
		days = forecast.DefaultHorizon
	}
	ctx, span := startSpan(ctx, "Forecast", attribute.Int("forecast.days", days))
	defer func() { endSpan(span, err) }()

	if days < 1 || days > forecast.MaxHorizon {
		return ForecastResult{}, classify(forecast.ErrInvalidHorizon)
	}
	expenses, err := s.store.ListAllExpenses(ctx)
	if err != nil {
		return ForecastResult{}, classify(fmt.Errorf("load expenses: %w", err))
	}
	result, err := runForecast(expenses, days)
	if err != nil {
		return ForecastResult{}, classify(err)
	}
	return result, nil
}

func runForecast(expenses []domain.Expense, days int) (ForecastResult, error) {
	model, err := forecast.Train(expenses, forecast.Options{})
	if err != nil {
		return ForecastResult{}, err
	}
	predictions, err := model.Predict(days)
	if err != nil {
		return ForecastResult{}, err
	}
	return ForecastResult{Model: model, Predictions: predictions}, nil
}

// Dashboard loads expenses and archives concurrently, then derives the
// summary and forecast from the loaded expenses.
func (s *Service) Dashboard(ctx context.Context) (_ Dashboard, err error) {
	ctx, span := startSpan(ctx, "Dashboard")
	defer func() { endSpan(span, err) }()

	var dashboard Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		expenses, err := s.store.ListAllExpenses(gctx)
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		dashboard.Expenses = expenses
		return nil
	})
	g.Go(func() error {
		archives, err := s.store.ListArchives(gctx)
		if err != nil {
			return fmt.Errorf("load archives: %w", err)
		}
		dashboard.Archives = archives
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, classify(err)
	}

	dashboard.Summary = insights.Summarize(dashboard.Expenses, s.now())
	if len(dashboard.Expenses) < MinForecastExpenses {
		dashboard.Notice = ForecastNotice
		return dashboard, nil
	}
	result, err := runForecast(dashboard.Expenses, forecast.DefaultHorizon)
	if err != nil {
		// Enough expenses but all on one day.
		dashboard.Notice = err.Error()
		return dashboard, nil
	}
	dashboard.Forecast = &result
	return dashboard, nil
}

// Ask forwards a question to the chatbot.
func (s *Service) Ask(ctx context.Context, req chatbot.Request) (_ chatbot.Response, err error) {
	ctx, span := startSpan(ctx, "Ask", attribute.Bool("chat.request_key", req.APIKey != ""))
	defer func() { endSpan(span, err) }()

	if s.chat == nil {
		return chatbot.Response{}, fmt.Errorf("chatbot is not configured")
	}
	response, err := s.chat.Respond(ctx, req)
	if err != nil {
		return chatbot.Response{}, classify(err)
	}
	span.SetAttributes(attribute.String("chat.mode", string(response.Mode)))
	return response, nil
}
