package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finscope/finscope/pkg/models"
	"github.com/finscope/finscope/pkg/taxonomy"
)

// CalcType selects the central-tendency statistic.
type CalcType string

const (
	CalcMedian  CalcType = "median"
	CalcAverage CalcType = "average"
)

// Calc applies the selected statistic to values. Empty input yields zero.
func Calc(calc CalcType, values []decimal.Decimal) decimal.Decimal {
	if calc == CalcAverage {
		return Average(values)
	}
	return Median(values)
}

// Median sorts ascending and returns the central value, averaging the two
// central values for even-length input. Empty input yields zero.
func Median(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}

// Average is the arithmetic mean. Empty input yields zero.
func Average(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	return decimal.Avg(values[0], values[1:]...)
}

// History organizes transactions into year → month → category sums, ready
// for the budget-comparison queries. Sums are of absolute amounts: the
// comparator puts expense magnitudes side by side.
type History struct {
	buckets    map[int]map[time.Month]map[string]decimal.Decimal
	categories []string
}

// BuildHistory indexes transactions by adjusted year and month. The known
// category set is every root in the index plus Uncategorized when any
// transaction falls outside the taxonomy; queries always answer for every
// known category so comparison periods share a stable label set.
func BuildHistory(txs []models.Transaction, ix *taxonomy.Index) *History {
	h := &History{buckets: make(map[int]map[time.Month]map[string]decimal.Decimal)}

	uncategorized := false
	for _, tx := range txs {
		name := ix.DisplayName(tx.CategoryID)
		if name == taxonomy.Uncategorized {
			uncategorized = true
		}
		date := tx.AdjustedDate()
		year, ok := h.buckets[date.Year()]
		if !ok {
			year = make(map[time.Month]map[string]decimal.Decimal)
			h.buckets[date.Year()] = year
		}
		month, ok := year[date.Month()]
		if !ok {
			month = make(map[string]decimal.Decimal)
			year[date.Month()] = month
		}
		month[name] = month[name].Add(tx.AbsAmount())
	}

	for _, root := range ix.Roots() {
		h.categories = append(h.categories, root.Name)
	}
	if uncategorized {
		h.categories = append(h.categories, taxonomy.Uncategorized)
	}
	return h
}

// Categories returns the stable label set queries answer for.
func (h *History) Categories() []string {
	out := make([]string, len(h.categories))
	copy(out, h.categories)
	return out
}

// MonthlyValue computes, per known category, the statistic over the
// category's monthly totals for year, considering months 1 through December
// or through now's month when year is the current one. Months where the
// category had no activity at all are skipped, not zero-filled. A category
// absent from the whole year yields zero.
func (h *History) MonthlyValue(year int, now time.Time, calc CalcType) map[string]decimal.Decimal {
	lastMonth := time.December
	if year == now.Year() {
		lastMonth = now.Month()
	}

	out := make(map[string]decimal.Decimal, len(h.categories))
	months := h.buckets[year]
	for _, category := range h.categories {
		var values []decimal.Decimal
		for m := time.January; m <= lastMonth; m++ {
			if sum, ok := months[m][category]; ok {
				values = append(values, sum)
			}
		}
		out[category] = Calc(calc, values)
	}
	return out
}

// HistoricalValue computes, per known category, the statistic over one fixed
// calendar month across every year strictly before beforeYear, pooling one
// observation per historical year in which the category was active that month.
func (h *History) HistoricalValue(month time.Month, beforeYear int, calc CalcType) map[string]decimal.Decimal {
	years := make([]int, 0, len(h.buckets))
	for y := range h.buckets {
		if y < beforeYear {
			years = append(years, y)
		}
	}
	sort.Ints(years)

	out := make(map[string]decimal.Decimal, len(h.categories))
	for _, category := range h.categories {
		var values []decimal.Decimal
		for _, y := range years {
			if sum, ok := h.buckets[y][month][category]; ok {
				values = append(values, sum)
			}
		}
		out[category] = Calc(calc, values)
	}
	return out
}
