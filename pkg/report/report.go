// Package report joins transactions with category and account metadata into
// flat export-ready rows and serializes them as CSV.
package report

import (
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/finscope/finscope/pkg/aggregate"
	"github.com/finscope/finscope/pkg/filter"
	"github.com/finscope/finscope/pkg/models"
	"github.com/finscope/finscope/pkg/taxonomy"
	"github.com/finscope/finscope/pkg/validate"
)

// Row flattens one transaction with its resolved names, ready for export.
type Row struct {
	ID             string          `json:"id"`
	Date           string          `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	ParentCategory string          `json:"parentCategory"`
	Account        string          `json:"account"`
	ExpenseType    string          `json:"expenseType"`

	adjusted time.Time
}

// Options scopes a report. Unlike the chart pipeline the report keeps
// globally excluded categories unless the caller names them here explicitly.
type Options struct {
	Start              time.Time
	End                time.Time
	AccountIDs         []string
	ExcludeCategoryIDs []string
}

// Merge validates raw inputs, resolves names through a freshly built index,
// applies the date-range and account filters, and returns rows sorted by
// adjusted date ascending. Invalid records are dropped with a warning; only
// a fully invalid batch is fatal.
func Merge(rawTxs []models.RawTransaction, rawCats []models.RawCategory, rawAccts []models.RawAccount, opts Options, logger *log.Logger) ([]Row, error) {
	txs, err := validate.Transactions(rawTxs, logger)
	if err != nil {
		return nil, err
	}
	cats, err := validate.Categories(rawCats, logger)
	if err != nil {
		return nil, err
	}
	accts, err := validate.Accounts(rawAccts, logger)
	if err != nil {
		return nil, err
	}
	ix := taxonomy.Build(cats, logger)
	return Rows(txs, ix, accts, opts), nil
}

// Rows is the model-level half of Merge, reusable when validated models and
// an index already exist.
func Rows(txs []models.Transaction, ix *taxonomy.Index, accts []models.Account, opts Options) []Row {
	accounts := make(map[string]models.Account, len(accts))
	for _, a := range accts {
		accounts[a.ID] = a
	}

	filtered := filter.Apply(txs, filter.Params{
		Start:              opts.Start,
		End:                opts.End,
		AccountIDs:         opts.AccountIDs,
		ExcludeCategoryIDs: opts.ExcludeCategoryIDs,
	})

	rows := make([]Row, 0, len(filtered))
	for _, tx := range filtered {
		category := taxonomy.Uncategorized
		if name, ok := ix.OwnName(tx.CategoryID); ok {
			category = name
		}
		rows = append(rows, Row{
			ID:             tx.ID,
			Date:           tx.Date.Format(models.DateLayout),
			Amount:         tx.Amount,
			Description:    tx.Description,
			Category:       category,
			ParentCategory: ix.DisplayName(tx.CategoryID),
			Account:        accounts[tx.AccountID].DisplayName(),
			ExpenseType:    string(tx.ExpenseType),
			adjusted:       tx.AdjustedDate(),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].adjusted.Before(rows[j].adjusted) })
	return rows
}

// Merger adapts the report to the shared chart-data contract. It has to be
// constructed with account metadata, which the other variants do not need,
// so it registers itself rather than living in the aggregate factory.
type Merger struct {
	Accounts []models.Account
	Opts     Options
}

// Prepare conforms to aggregate.Preparer.
func (m Merger) Prepare(txs []models.Transaction, ix *taxonomy.Index, _ aggregate.Params) (any, error) {
	return Rows(txs, ix, m.Accounts, m.Opts), nil
}
