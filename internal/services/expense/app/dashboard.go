package app

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/pennywise/internal/platform/errors"
	"github.com/louisbranch/pennywise/internal/platform/money"
	"github.com/louisbranch/pennywise/internal/platform/requestctx"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/louisbranch/pennywise/internal/services/expense/insights"
	"github.com/louisbranch/pennywise/internal/services/expense/service"
	"github.com/louisbranch/pennywise/internal/services/expense/storage"
	"github.com/shopspring/decimal"
)

const (
	noticeAdded   = "Expense added successfully!"
	noticeStarted = "Current expenses saved and cleared for a new day!"
	noticeReset   = "Current day's expenses have been reset to 0."
)

// dashboardForm echoes submitted values back after a validation failure.
type dashboardForm struct {
	Date        string
	Category    string
	Amount      string
	Description string
}

type dashboardPage struct {
	Dashboard service.Dashboard
	Flash     string
	Error     string
	Form      dashboardForm
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderDashboard(w, r, http.StatusOK, dashboardPage{Flash: flashFromQuery(r.URL.Query())})
}

func (h *handlers) renderDashboard(w http.ResponseWriter, r *http.Request, status int, page dashboardPage) {
	dashboard, err := h.svc.Dashboard(r.Context())
	if err != nil {
		log.Printf("dashboard load failed request_id=%s err=%v", requestctx.RequestIDFromContext(r.Context()), err)
		http.Error(w, "dashboard unavailable", apperrors.HTTPStatus(err))
		return
	}
	page.Dashboard = dashboard
	if page.Form.Date == "" {
		page.Form.Date = time.Now().Format(domain.DateLayout)
	}
	if page.Form.Category == "" {
		page.Form.Category = string(domain.CategoryFood)
	}
	templ.Handler(dashboardView(page), templ.WithStatus(status)).ServeHTTP(w, r)
}

func (h *handlers) dashboardAddExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := dashboardForm{
		Date:        r.PostForm.Get("date"),
		Category:    r.PostForm.Get("category"),
		Amount:      r.PostForm.Get("amount"),
		Description: r.PostForm.Get("description"),
	}
	amount, err := parseAmount(form.Amount)
	if err == nil {
		_, err = h.svc.AddExpense(r.Context(), domain.CreateInput{
			Date:        form.Date,
			Category:    form.Category,
			Amount:      amount,
			Description: form.Description,
		})
	}
	if err != nil {
		status := apperrors.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			log.Printf("dashboard add expense failed err=%v", err)
		}
		h.renderDashboard(w, r, status, dashboardPage{Error: apperrors.PublicMessage(err), Form: form})
		return
	}
	redirectHome(w, r, url.Values{"notice": {"added"}})
}

func (h *handlers) dashboardDeleteExpense(w http.ResponseWriter, r *http.Request) {
	expenseID, err := pathExpenseID(r)
	if err == nil {
		err = h.svc.DeleteExpense(r.Context(), expenseID)
	}
	if err != nil {
		h.renderDashboard(w, r, apperrors.HTTPStatus(err), dashboardPage{Error: apperrors.PublicMessage(err)})
		return
	}
	redirectHome(w, r, url.Values{"notice": {"deleted"}, "id": {strconv.FormatInt(expenseID, 10)}})
}

func (h *handlers) dashboardStartNewDay(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.StartNewDay(r.Context()); err != nil {
		h.renderDashboard(w, r, apperrors.HTTPStatus(err), dashboardPage{Error: apperrors.PublicMessage(err)})
		return
	}
	redirectHome(w, r, url.Values{"notice": {"started"}})
}

func (h *handlers) dashboardResetDay(w http.ResponseWriter, r *http.Request) {
	if _, err := h.svc.ResetDay(r.Context()); err != nil {
		h.renderDashboard(w, r, apperrors.HTTPStatus(err), dashboardPage{Error: apperrors.PublicMessage(err)})
		return
	}
	redirectHome(w, r, url.Values{"notice": {"reset"}})
}

func redirectHome(w http.ResponseWriter, r *http.Request, query url.Values) {
	http.Redirect(w, r, "/?"+query.Encode(), http.StatusSeeOther)
}

func flashFromQuery(query url.Values) string {
	switch query.Get("notice") {
	case "added":
		return noticeAdded
	case "started":
		return noticeStarted
	case "reset":
		return noticeReset
	case "deleted":
		if id, err := strconv.ParseInt(query.Get("id"), 10, 64); err == nil {
			return fmt.Sprintf("Expense with ID %d has been deleted.", id)
		}
		return "Expense deleted."
	default:
		return ""
	}
}

type summaryCard struct {
	Label string
	Value string
}

// dashboardCards lists the headline figures. The open expenses are the
// current day until the next start or reset.
func dashboardCards(summary insights.Summary) []summaryCard {
	return []summaryCard{
		{Label: "Total Spending Today", Value: money.Format(summary.Total)},
		{Label: "Dated Today", Value: money.Format(summary.TodayTotal)},
		{Label: "Expenses", Value: strconv.Itoa(summary.Count)},
	}
}

// barRow is one chart bar; Width is its share of the largest row, 0-100.
type barRow struct {
	Label  string
	Amount string
	Width  string
}

func categoryRows(totals []insights.CategoryTotal) []barRow {
	labels := make([]string, 0, len(totals))
	amounts := make([]decimal.Decimal, 0, len(totals))
	for _, total := range totals {
		labels = append(labels, string(total.Category))
		amounts = append(amounts, total.Total)
	}
	return scaleBars(labels, amounts)
}

func periodRows(periods []insights.PeriodTotal) []barRow {
	labels := make([]string, 0, len(periods))
	amounts := make([]decimal.Decimal, 0, len(periods))
	for _, period := range periods {
		labels = append(labels, period.Period)
		amounts = append(amounts, period.Total)
	}
	return scaleBars(labels, amounts)
}

func scaleBars(labels []string, amounts []decimal.Decimal) []barRow {
	largest := decimal.Zero
	for _, amount := range amounts {
		if amount.GreaterThan(largest) {
			largest = amount
		}
	}
	rows := make([]barRow, 0, len(amounts))
	for i, amount := range amounts {
		width := int64(0)
		if largest.IsPositive() {
			width = amount.Mul(decimal.NewFromInt(100)).Div(largest).IntPart()
		}
		rows = append(rows, barRow{
			Label:  labels[i],
			Amount: money.Format(amount),
			Width:  strconv.FormatInt(width, 10),
		})
	}
	return rows
}

func deleteExpenseURL(id int64) templ.SafeURL {
	return templ.SafeURL("/expenses/" + strconv.FormatInt(id, 10) + "/delete")
}

func archiveDates(archive storage.Archive) string {
	if archive.FirstDate.IsZero() {
		return ""
	}
	first := archive.FirstDate.Format(domain.DateLayout)
	if archive.LastDate.Equal(archive.FirstDate) {
		return first
	}
	return first + " to " + archive.LastDate.Format(domain.DateLayout)
}
