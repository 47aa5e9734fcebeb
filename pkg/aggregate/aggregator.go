package aggregate

import (
	"fmt"
	"time"

	"github.com/finscope/finscope/pkg/models"
	"github.com/finscope/finscope/pkg/taxonomy"
)

// Kind tags the chart shape an aggregator prepares data for.
type Kind string

const (
	KindSeries Kind = "series"
	KindFlows  Kind = "flows"
	KindStats  Kind = "stats"
	KindReport Kind = "report"
)

// Params carries every knob a prepare call can take. Each variant reads the
// fields it cares about and ignores the rest.
type Params struct {
	Cumulative    bool
	ActiveOnly    bool
	BudgetRootIDs []string
	Calc          CalcType
	Year          int
	Month         time.Month
	BeforeYear    int
	Now           time.Time
}

// Preparer is the shared contract all chart-data producers conform to: take
// filtered transactions plus the category index, return a plain data
// structure for the rendering layer. Implementations are stateless and safe
// for concurrent use.
type Preparer interface {
	Prepare(txs []models.Transaction, ix *taxonomy.Index, p Params) (any, error)
}

type seriesPreparer struct{}

func (seriesPreparer) Prepare(txs []models.Transaction, ix *taxonomy.Index, p Params) (any, error) {
	return Series(txs, ix, SeriesOptions{Cumulative: p.Cumulative, ActiveOnly: p.ActiveOnly}), nil
}

type flowPreparer struct{}

func (flowPreparer) Prepare(txs []models.Transaction, ix *taxonomy.Index, p Params) (any, error) {
	return Flows(txs, ix, p.BudgetRootIDs), nil
}

type statsPreparer struct{}

func (statsPreparer) Prepare(txs []models.Transaction, ix *taxonomy.Index, p Params) (any, error) {
	h := BuildHistory(txs, ix)
	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}
	if p.Month != 0 {
		return h.HistoricalValue(p.Month, p.BeforeYear, p.Calc), nil
	}
	year := p.Year
	if year == 0 {
		year = now.Year()
	}
	return h.MonthlyValue(year, now, p.Calc), nil
}

// New returns the preparer for kind. The report variant depends on account
// metadata and is registered by its own package; asking for it here is an
// error.
func New(kind Kind) (Preparer, error) {
	switch kind {
	case KindSeries:
		return seriesPreparer{}, nil
	case KindFlows:
		return flowPreparer{}, nil
	case KindStats:
		return statsPreparer{}, nil
	default:
		return nil, fmt.Errorf("unknown aggregator kind %q", kind)
	}
}
