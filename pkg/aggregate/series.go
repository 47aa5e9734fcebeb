// Package aggregate turns filtered transactions into the chart-ready shapes
// the rendering layer consumes: monthly series per root category, Sankey
// flow edges, and budget-comparison statistics. Every function is pure with
// respect to its inputs; nothing here mutates a transaction slice.
package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/finscope/finscope/pkg/models"
	"github.com/finscope/finscope/pkg/taxonomy"
)

// Point is one chart point. X is a date or year-month string so consumers
// can plot it without caring which mode produced it.
type Point struct {
	X           string          `json:"x"`
	Y           decimal.Decimal `json:"y"`
	Description string          `json:"description,omitempty"`
}

// Dataset is one legend entry: a root category and its points.
type Dataset struct {
	Label      string  `json:"label"`
	CategoryID string  `json:"categoryId,omitempty"`
	Data       []Point `json:"data"`
}

// ChartData is the series output shape. Labels carries the sorted distinct
// x values present across all datasets.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// SeriesOptions selects the aggregation mode.
type SeriesOptions struct {
	// Cumulative sums each (category, month) bucket into one point per month.
	// Otherwise one point is emitted per transaction.
	Cumulative bool
	// ActiveOnly drops root categories with no matching transactions instead
	// of emitting them with an empty series.
	ActiveOnly bool
}

// Series groups transactions by owning root category using the index.
// Transactions with an unknown category land in an Uncategorized dataset.
// Roots without activity still appear with an empty series unless
// ActiveOnly is set, so a legend entry exists either way.
func Series(txs []models.Transaction, ix *taxonomy.Index, opts SeriesOptions) ChartData {
	grouped := make(map[string][]models.Transaction)
	for _, tx := range txs {
		grouped[ix.DisplayName(tx.CategoryID)] = append(grouped[ix.DisplayName(tx.CategoryID)], tx)
	}

	var out ChartData
	seen := make(map[string]bool)
	labels := make(map[string]bool)

	addDataset := func(label, categoryID string) {
		if seen[label] {
			return
		}
		seen[label] = true
		group := grouped[label]
		if len(group) == 0 && opts.ActiveOnly {
			return
		}
		var points []Point
		if opts.Cumulative {
			points = monthlyPoints(group)
		} else {
			points = perTransactionPoints(group)
		}
		for _, pt := range points {
			labels[pt.X] = true
		}
		out.Datasets = append(out.Datasets, Dataset{Label: label, CategoryID: categoryID, Data: points})
	}

	for _, root := range ix.Roots() {
		addDataset(root.Name, root.ID)
	}
	if len(grouped[taxonomy.Uncategorized]) > 0 {
		addDataset(taxonomy.Uncategorized, "")
	}

	out.Labels = sortedKeys(labels)
	return out
}

// monthlyPoints sums a category's transactions into one point per adjusted
// year-month. Months without activity are omitted, not zero-filled.
func monthlyPoints(txs []models.Transaction) []Point {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		month := tx.Month()
		sums[month] = sums[month].Add(tx.Amount)
	}
	points := make([]Point, 0, len(sums))
	for _, month := range sortedKeys(setOf(sums)) {
		points = append(points, Point{X: month, Y: sums[month]})
	}
	return points
}

// perTransactionPoints emits one point per transaction, sorted by adjusted
// date since chart consumers require monotonic x.
func perTransactionPoints(txs []models.Transaction) []Point {
	points := make([]Point, 0, len(txs))
	for _, tx := range txs {
		points = append(points, Point{
			X:           tx.AdjustedDate().Format(models.DateLayout),
			Y:           tx.Amount,
			Description: tx.Description,
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].X < points[j].X })
	return points
}

func setOf[V any](m map[string]V) map[string]bool {
	set := make(map[string]bool, len(m))
	for k := range m {
		set[k] = true
	}
	return set
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
