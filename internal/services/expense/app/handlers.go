package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/pennywise/internal/platform/errors"
	"github.com/louisbranch/pennywise/internal/platform/httpx"
	"github.com/louisbranch/pennywise/internal/services/expense/chatbot"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/louisbranch/pennywise/internal/services/expense/service"
	"github.com/louisbranch/pennywise/internal/services/expense/storage"
	"github.com/shopspring/decimal"
)

type handlers struct {
	svc *service.Service
}

type createExpenseRequest struct {
	Date        string      `json:"date"`
	Category    string      `json:"category"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
}

func (h *handlers) root(w http.ResponseWriter, _ *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Expense Tracker API is running"})
}

func (h *handlers) listExpenses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageSize := 0
	if raw := strings.TrimSpace(query.Get("page_size")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httpx.WriteError(w, r, apperrors.E(apperrors.KindInvalidInput, "page_size must be a non-negative integer"))
			return
		}
		pageSize = parsed
	}
	page, err := h.svc.ListExpenses(r.Context(), storage.ListQuery{
		Filter:    query.Get("filter"),
		PageSize:  pageSize,
		PageToken: query.Get("page_token"),
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, expensePageView{
		Expenses:      newExpenseViews(page.Expenses),
		NextPageToken: page.NextPageToken,
	})
}

func (h *handlers) createExpense(w http.ResponseWriter, r *http.Request) {
	var body createExpenseRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	amount, err := parseAmount(body.Amount.String())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	created, err := h.svc.AddExpense(r.Context(), domain.CreateInput{
		Date:        body.Date,
		Category:    body.Category,
		Amount:      amount,
		Description: body.Description,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Expense added successfully",
		"expense": newExpenseView(created),
	})
}

func (h *handlers) getExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathExpenseID(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	expense, err := h.svc.GetExpense(r.Context(), expenseID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newExpenseView(expense))
}

func (h *handlers) deleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathExpenseID(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	if err := h.svc.DeleteExpense(r.Context(), expenseID); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Expense %d deleted", expenseID)})
}

func (h *handlers) startNewDay(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.StartNewDay(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, resetView{
		Message:   noticeStarted,
		Cleared:   result.Cleared,
		ArchiveID: result.ArchiveID,
	})
}

func (h *handlers) resetDay(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ResetDay(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, resetView{Message: noticeReset, Cleared: result.Cleared})
}

func (h *handlers) listArchives(w http.ResponseWriter, r *http.Request) {
	archives, err := h.svc.ListArchives(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"archives": newArchiveViews(archives)})
}

func (h *handlers) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newSummaryView(summary))
}

func (h *handlers) forecast(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, r, apperrors.E(apperrors.KindInvalidInput, "days must be an integer"))
			return
		}
		days = parsed
		if days == 0 {
			httpx.WriteError(w, r, apperrors.E(apperrors.KindInvalidInput, "days must be positive"))
			return
		}
	}
	result, err := h.svc.Forecast(r.Context(), days)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newForecastView(result))
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var body chatRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	response, err := h.svc.Ask(r.Context(), chatbot.Request{Prompt: body.Prompt, APIKey: body.APIKey})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newChatResponse(response))
}

func pathExpenseID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	expenseID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || expenseID <= 0 {
		return 0, apperrors.E(apperrors.KindInvalidInput, "expense id must be a positive integer")
	}
	return expenseID, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, apperrors.E(apperrors.KindInvalidInput, "amount is required")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, apperrors.Wrap(apperrors.KindInvalidInput, "amount must be a number", err)
	}
	return amount, nil
}
