// Package filter applies date-range, account-selection and category-exclusion
// predicates to transactions. An absent criterion means "no constraint",
// never "match nothing".
package filter

import (
	"time"

	"github.com/finscope/finscope/pkg/models"
)

// Params bundles the predicates one filtering pass applies. Zero values
// disable the corresponding predicate.
type Params struct {
	Start              time.Time
	End                time.Time
	AccountIDs         []string
	ExcludeCategoryIDs []string
}

// WithRange returns a copy of p constrained to [start, end], both inclusive.
func (p Params) WithRange(start, end time.Time) Params {
	p.Start, p.End = start, end
	return p
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// dateOnly truncates to year-month-day so range boundaries never shift with
// clock time or zone.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Apply returns the transactions passing every predicate in p. Excluded
// categories are dropped unconditionally before anything else is evaluated.
// Date comparisons use the adjusted date at day granularity; both bounds
// are inclusive. Input order is preserved and the input is never mutated.
func Apply(txs []models.Transaction, p Params) []models.Transaction {
	excluded := toSet(p.ExcludeCategoryIDs)
	accounts := toSet(p.AccountIDs)

	var start, end time.Time
	if !p.Start.IsZero() {
		start = dateOnly(p.Start)
	}
	if !p.End.IsZero() {
		end = dateOnly(p.End)
	}

	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if excluded[tx.CategoryID] {
			continue
		}
		date := dateOnly(tx.AdjustedDate())
		if !start.IsZero() && date.Before(start) {
			continue
		}
		if !end.IsZero() && date.After(end) {
			continue
		}
		if accounts != nil && !accounts[tx.AccountID] {
			continue
		}
		out = append(out, tx)
	}
	return out
}
