package aggregate

import (
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/finscope/finscope/pkg/models"
	"github.com/finscope/finscope/pkg/taxonomy"
)

func decimals(vals ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func TestMedian(t *testing.T) {
	cases := []struct {
		in   []decimal.Decimal
		want int64
	}{
		{decimals(10, 20, 30), 20},
		{decimals(10, 20, 30, 40), 25},
		{decimals(30, 10, 20), 20},
		{nil, 0},
	}
	for _, tc := range cases {
		if got := Median(tc.in); !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Errorf("Median(%v) = %s, want %d", tc.in, got, tc.want)
		}
	}
}

func TestAverage(t *testing.T) {
	if got := Average(decimals(10, 20)); !got.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Average(10,20) = %s", got)
	}
	if got := Average(nil); !got.IsZero() {
		t.Errorf("Average(empty) = %s, want 0", got)
	}
}

func statsIndex() *taxonomy.Index {
	return taxonomy.Build([]models.Category{
		{ID: "1", Name: "Food"},
		{ID: "10", Name: "Groceries", ParentID: "1"},
		{ID: "2", Name: "Transport"},
	}, log.New(io.Discard))
}

func TestMonthlyValueSkipsInactiveMonths(t *testing.T) {
	h := BuildHistory([]models.Transaction{
		tx("1", "2023-01-10", "10", -10),
		tx("2", "2023-02-10", "10", -30),
		// march has no food activity and must not drag the median down
		tx("3", "2023-04-10", "10", -20),
	}, statsIndex())

	now := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	values := h.MonthlyValue(2023, now, CalcMedian)
	if !values["Food"].Equal(decimal.NewFromInt(20)) {
		t.Errorf("Food median = %s, want 20", values["Food"])
	}
	if !values["Transport"].IsZero() {
		t.Errorf("inactive category must be zero, got %s", values["Transport"])
	}
	if len(values) != 2 {
		t.Errorf("every known category must be answered: %v", values)
	}
}

func TestMonthlyValueCapsAtCurrentMonth(t *testing.T) {
	h := BuildHistory([]models.Transaction{
		tx("1", "2023-01-10", "10", -10),
		tx("2", "2023-06-10", "10", -100),
	}, statsIndex())

	// Pretend it is March 2023: june's total must not be visible yet.
	now := time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)
	values := h.MonthlyValue(2023, now, CalcAverage)
	if !values["Food"].Equal(decimal.NewFromInt(10)) {
		t.Errorf("Food average = %s, want 10", values["Food"])
	}
}

func TestHistoricalValuePoolsPastYears(t *testing.T) {
	h := BuildHistory([]models.Transaction{
		tx("1", "2021-03-10", "10", -10),
		tx("2", "2022-03-10", "10", -30),
		tx("3", "2023-03-10", "10", -500), // current year, excluded
		tx("4", "2022-04-10", "10", -999), // wrong month, excluded
	}, statsIndex())

	values := h.HistoricalValue(time.March, 2023, CalcMedian)
	if !values["Food"].Equal(decimal.NewFromInt(20)) {
		t.Errorf("Food historical median = %s, want 20", values["Food"])
	}
}

func TestHistoryAbsentYear(t *testing.T) {
	h := BuildHistory(nil, statsIndex())
	values := h.MonthlyValue(2019, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), CalcMedian)
	for name, v := range values {
		if !v.IsZero() {
			t.Errorf("%s = %s for empty year, want 0", name, v)
		}
	}
}
