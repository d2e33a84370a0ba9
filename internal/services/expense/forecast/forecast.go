// Package forecast fits a linear trend to daily spending and projects it
// forward.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/louisbranch/pennywise/internal/platform/money"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/shopspring/decimal"
)

const (
	// DefaultHorizon is the number of days predicted when none is requested.
	DefaultHorizon = 7
	// MaxHorizon caps how far ahead a model may predict.
	MaxHorizon = 90
	// DefaultSeed keeps the train/test split reproducible between runs.
	DefaultSeed = 42
	// DefaultTestFraction is the share of daily totals held out for scoring.
	DefaultTestFraction = 0.2

	minTrainPoints = 2
	day            = 24 * time.Hour
)

var (
	// ErrInsufficientData indicates fewer than two distinct spending days.
	ErrInsufficientData = errors.New("at least two days of expenses are required to forecast")
	// ErrInvalidHorizon indicates a prediction horizon outside 1..MaxHorizon.
	ErrInvalidHorizon = fmt.Errorf("days must be between 1 and %d", MaxHorizon)
)

// Point is one observation: X is days since the first expense, Y the total
// spent that day.
type Point struct {
	X float64
	Y float64
}

// Line is y = Intercept + Slope*x.
type Line struct {
	Intercept float64
	Slope     float64
}

// At evaluates the line at x.
func (l Line) At(x float64) float64 {
	return l.Intercept + l.Slope*x
}

// Fit computes the ordinary least squares line through points. When every
// point shares the same x the line is flat at the mean of y.
func Fit(points []Point) (Line, error) {
	if len(points) == 0 {
		return Line{}, ErrInsufficientData
	}
	n := float64(len(points))
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for _, p := range points {
		dx := p.X - meanX
		sxx += dx * dx
		sxy += dx * (p.Y - meanY)
	}
	if sxx == 0 {
		return Line{Intercept: meanY}, nil
	}
	slope := sxy / sxx
	return Line{Intercept: meanY - slope*meanX, Slope: slope}, nil
}

// Options tunes Train. Zero values fall back to the defaults.
type Options struct {
	Seed         int64
	TestFraction float64
}

// Model is a trained spending trend.
type Model struct {
	Line Line
	// Start is the first observed date; X values count days from it.
	Start time.Time
	// Last is the most recent observed date.
	Last      time.Time
	Days      int
	TrainSize int
	TestSize  int
	// MAE is the mean absolute error over the held-out days. It is only
	// meaningful when TestSize > 0.
	MAE float64
}

// Prediction is the projected spend for one future date.
type Prediction struct {
	Date   time.Time
	Amount decimal.Decimal
}

// DailyPoints aggregates expenses into one point per distinct date, ordered
// by date.
func DailyPoints(expenses []domain.Expense) (start time.Time, points []Point) {
	if len(expenses) == 0 {
		return time.Time{}, nil
	}
	totals := make(map[time.Time]decimal.Decimal)
	for _, expense := range expenses {
		date := domain.CivilDate(expense.Date)
		totals[date] = totals[date].Add(expense.Amount)
	}
	dates := make([]time.Time, 0, len(totals))
	for date := range totals {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	start = dates[0]
	points = make([]Point, 0, len(dates))
	for _, date := range dates {
		points = append(points, Point{
			X: float64(date.Sub(start) / day),
			Y: money.Float(totals[date]),
		})
	}
	return start, points
}

// Train fits a model to the daily totals of expenses. A random test split is
// held out for scoring whenever at least two days remain for training.
func Train(expenses []domain.Expense, opts Options) (Model, error) {
	start, points := DailyPoints(expenses)
	if len(points) < minTrainPoints {
		return Model{}, ErrInsufficientData
	}
	seed := opts.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	fraction := opts.TestFraction
	if fraction <= 0 || fraction >= 1 {
		fraction = DefaultTestFraction
	}

	train, test := split(points, fraction, seed)
	line, err := Fit(train)
	if err != nil {
		return Model{}, err
	}
	model := Model{
		Line:      line,
		Start:     start,
		Last:      start.Add(time.Duration(points[len(points)-1].X) * day),
		Days:      len(points),
		TrainSize: len(train),
		TestSize:  len(test),
	}
	if len(test) > 0 {
		var total float64
		for _, p := range test {
			total += math.Abs(line.At(p.X) - p.Y)
		}
		model.MAE = total / float64(len(test))
	}
	return model, nil
}

func split(points []Point, fraction float64, seed int64) (train, test []Point) {
	// The epsilon keeps 0.2*n from rounding up past an exact integer.
	testSize := int(math.Ceil(fraction*float64(len(points)) - 1e-9))
	if len(points)-testSize < minTrainPoints {
		return points, nil
	}
	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(len(points))
	test = make([]Point, 0, testSize)
	train = make([]Point, 0, len(points)-testSize)
	for i, idx := range order {
		if i < testSize {
			test = append(test, points[idx])
			continue
		}
		train = append(train, points[idx])
	}
	return train, test
}

// Predict projects spend for each of the days following the last observed
// date. Negative projections are reported as zero.
func (m Model) Predict(days int) ([]Prediction, error) {
	if days < 1 || days > MaxHorizon {
		return nil, ErrInvalidHorizon
	}
	lastX := float64(m.Last.Sub(m.Start) / day)
	predictions := make([]Prediction, 0, days)
	for i := 1; i <= days; i++ {
		amount := m.Line.At(lastX + float64(i))
		if amount < 0 {
			amount = 0
		}
		predictions = append(predictions, Prediction{
			Date:   m.Last.AddDate(0, 0, i),
			Amount: money.FromFloat(amount),
		})
	}
	return predictions, nil
}
