package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/shopspring/decimal"
)

const tolerance = 1e-9

func TestFitExactLine(t *testing.T) {
	t.Parallel()

	line, err := Fit([]Point{{0, 1}, {1, 3}, {2, 5}, {5, 11}})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if math.Abs(line.Slope-2) > tolerance || math.Abs(line.Intercept-1) > tolerance {
		t.Fatalf("line = %+v, want slope 2 intercept 1", line)
	}
}

func TestFitZeroVarianceIsFlat(t *testing.T) {
	t.Parallel()

	line, err := Fit([]Point{{3, 10}, {3, 20}})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if line.Slope != 0 || math.Abs(line.Intercept-15) > tolerance {
		t.Fatalf("line = %+v, want flat at 15", line)
	}
}

func TestFitRequiresPoints(t *testing.T) {
	t.Parallel()

	if _, err := Fit(nil); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("fit error = %v, want %v", err, ErrInsufficientData)
	}
}

func TestDailyPointsAggregatesByDate(t *testing.T) {
	t.Parallel()

	start, points := DailyPoints([]domain.Expense{
		expense(t, "2025-01-05", "10"),
		expense(t, "2025-01-01", "4"),
		expense(t, "2025-01-01", "6"),
	})
	if got := start.Format(domain.DateLayout); got != "2025-01-01" {
		t.Fatalf("start = %s, want 2025-01-01", got)
	}
	if diff := cmp.Diff([]Point{{0, 10}, {4, 10}}, points); diff != "" {
		t.Fatalf("points mismatch (-want +got):\n%s", diff)
	}
}

func TestTrainRequiresTwoDays(t *testing.T) {
	t.Parallel()

	_, err := Train([]domain.Expense{
		expense(t, "2025-01-01", "4"),
		expense(t, "2025-01-01", "6"),
	}, Options{})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("train error = %v, want %v", err, ErrInsufficientData)
	}
}

func TestTrainSmallSeriesSkipsTestSplit(t *testing.T) {
	t.Parallel()

	model, err := Train([]domain.Expense{
		expense(t, "2025-01-01", "10"),
		expense(t, "2025-01-03", "20"),
	}, Options{})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if model.TrainSize != 2 || model.TestSize != 0 {
		t.Fatalf("split = %d/%d, want 2/0", model.TrainSize, model.TestSize)
	}
	if math.Abs(model.Line.Slope-5) > tolerance {
		t.Fatalf("slope = %v, want 5", model.Line.Slope)
	}
}

func TestTrainHoldsOutTestSet(t *testing.T) {
	t.Parallel()

	expenses := linearExpenses(t, 10, 10, 2)
	model, err := Train(expenses, Options{})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if model.Days != 10 || model.TrainSize != 8 || model.TestSize != 2 {
		t.Fatalf("sizes = %d/%d/%d, want 10/8/2", model.Days, model.TrainSize, model.TestSize)
	}
	if model.MAE > 1e-6 {
		t.Fatalf("mae = %v, want ~0 for a perfect line", model.MAE)
	}

	again, err := Train(expenses, Options{})
	if err != nil {
		t.Fatalf("train again: %v", err)
	}
	if diff := cmp.Diff(model, again); diff != "" {
		t.Fatalf("training is not deterministic (-first +second):\n%s", diff)
	}
}

func TestPredictFollowsTrend(t *testing.T) {
	t.Parallel()

	model, err := Train(linearExpenses(t, 10, 10, 2), Options{})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	predictions, err := model.Predict(3)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	type row struct {
		Date   string
		Amount string
	}
	got := make([]row, 0, len(predictions))
	for _, p := range predictions {
		got = append(got, row{p.Date.Format(domain.DateLayout), p.Amount.StringFixed(2)})
	}
	want := []row{
		{"2025-01-11", "30.00"},
		{"2025-01-12", "32.00"},
		{"2025-01-13", "34.00"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("predictions mismatch (-want +got):\n%s", diff)
	}
}

func TestPredictClampsAtZero(t *testing.T) {
	t.Parallel()

	model, err := Train(linearExpenses(t, 5, 100, -20), Options{})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	predictions, err := model.Predict(2)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	for _, p := range predictions {
		if !p.Amount.IsZero() {
			t.Fatalf("prediction for %s = %s, want 0", p.Date.Format(domain.DateLayout), p.Amount)
		}
	}
}

func TestPredictRejectsBadHorizon(t *testing.T) {
	t.Parallel()

	model, err := Train(linearExpenses(t, 3, 10, 1), Options{})
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	for _, days := range []int{0, -1, MaxHorizon + 1} {
		if _, err := model.Predict(days); !errors.Is(err, ErrInvalidHorizon) {
			t.Errorf("Predict(%d) error = %v, want %v", days, err, ErrInvalidHorizon)
		}
	}
	predictions, err := model.Predict(MaxHorizon)
	if err != nil {
		t.Fatalf("predict max horizon: %v", err)
	}
	if len(predictions) != MaxHorizon {
		t.Fatalf("predictions = %d, want %d", len(predictions), MaxHorizon)
	}
}

// linearExpenses returns one expense per day starting 2025-01-01 with
// amount base + step*i.
func linearExpenses(t *testing.T, days int, base, step int64) []domain.Expense {
	t.Helper()

	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	expenses := make([]domain.Expense, 0, days)
	for i := 0; i < days; i++ {
		expenses = append(expenses, domain.Expense{
			Date:     start.AddDate(0, 0, i),
			Category: domain.CategoryFood,
			Amount:   decimal.NewFromInt(base + step*int64(i)),
		})
	}
	return expenses
}

func expense(t *testing.T, date, amount string) domain.Expense {
	t.Helper()

	parsed, err := domain.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return domain.Expense{Date: parsed, Category: domain.CategoryOther, Amount: decimal.RequireFromString(amount)}
}
