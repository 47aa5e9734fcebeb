// Package validate checks the structural integrity of raw API records before
// they become domain models. Per-record checks never fail hard: bad records
// are reported, dropped and logged. A batch only errors when every record of
// a non-empty input is invalid, which signals an upstream schema change
// rather than ordinary data noise.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/finscope/finscope/pkg/models"
)

// ErrAllInvalid is returned when a non-empty batch produced zero valid records.
var ErrAllInvalid = errors.New("no valid records in batch")

// Result is the outcome of checking one raw record.
type Result struct {
	Valid  bool
	Errors []string
}

func (r Result) String() string {
	if r.Valid {
		return "valid"
	}
	return strings.Join(r.Errors, "; ")
}

func check(conds map[string]bool) Result {
	var errs []string
	for field, ok := range conds {
		if !ok {
			errs = append(errs, field)
		}
	}
	if len(errs) > 0 {
		return Result{Errors: errs}
	}
	return Result{Valid: true}
}

// CheckTransaction verifies field presence and primitive shape of one raw
// transaction. It never scans other records.
func CheckTransaction(r models.RawTransaction) Result {
	dateOK := false
	if _, err := models.ParseDate(r.Date); err == nil {
		dateOK = true
	}
	return check(map[string]bool{
		"missing id":          r.ID != "",
		"missing amount":      r.Amount != nil,
		"missing account_id":  r.AccountID != "",
		"missing category_id": r.CategoryID != "",
		"bad date":            dateOK,
	})
}

// CheckCategory verifies one raw taxonomy root and its inline children.
func CheckCategory(r models.RawCategory) Result {
	res := check(map[string]bool{
		"missing id":   r.ID != "",
		"missing name": strings.TrimSpace(r.Name) != "",
	})
	for _, child := range r.Children {
		if child.ID == "" || strings.TrimSpace(child.Name) == "" {
			res.Valid = false
			res.Errors = append(res.Errors, fmt.Sprintf("bad child %q", child.ID))
		}
	}
	return res
}

// CheckAccount verifies one raw account. A missing name is tolerated, the
// display layer substitutes a placeholder.
func CheckAccount(r models.RawAccount) Result {
	return check(map[string]bool{"missing id": r.ID != ""})
}

// partition runs a per-record check over a batch, keeping the records that
// pass and logging the ones that do not.
func partition[T any](kind string, raws []T, checkFn func(T) Result, logger *log.Logger) ([]T, error) {
	valid := make([]T, 0, len(raws))
	for i, raw := range raws {
		res := checkFn(raw)
		if !res.Valid {
			logger.Warn("dropping invalid record", "kind", kind, "index", i, "errors", res.String())
			continue
		}
		valid = append(valid, raw)
	}
	if len(raws) > 0 && len(valid) == 0 {
		return nil, fmt.Errorf("%s: %w", kind, ErrAllInvalid)
	}
	return valid, nil
}

// Transactions validates, converts and de-duplicates a batch of raw
// transactions. Duplicates can appear when paginated fetches overlap; the
// first occurrence of an id wins.
func Transactions(raws []models.RawTransaction, logger *log.Logger) ([]models.Transaction, error) {
	valid, err := partition("transaction", raws, CheckTransaction, logger)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(valid))
	out := make([]models.Transaction, 0, len(valid))
	for _, raw := range valid {
		tx, err := raw.Model()
		if err != nil {
			logger.Warn("dropping unconvertible transaction", "id", raw.ID, "error", err)
			continue
		}
		if seen[tx.ID] {
			logger.Debug("dropping duplicate transaction", "id", tx.ID)
			continue
		}
		seen[tx.ID] = true
		out = append(out, tx)
	}
	if len(raws) > 0 && len(out) == 0 {
		return nil, fmt.Errorf("transaction: %w", ErrAllInvalid)
	}
	return out, nil
}

// Categories validates raw taxonomy roots and flattens them into the
// two-level flat list the index builder consumes.
func Categories(raws []models.RawCategory, logger *log.Logger) ([]models.Category, error) {
	valid, err := partition("category", raws, CheckCategory, logger)
	if err != nil {
		return nil, err
	}
	var out []models.Category
	for _, raw := range valid {
		out = append(out, raw.Flatten()...)
	}
	return out, nil
}

// Accounts validates and converts a batch of raw accounts.
func Accounts(raws []models.RawAccount, logger *log.Logger) ([]models.Account, error) {
	valid, err := partition("account", raws, CheckAccount, logger)
	if err != nil {
		return nil, err
	}
	out := make([]models.Account, 0, len(valid))
	for _, raw := range valid {
		out = append(out, raw.Model())
	}
	return out, nil
}
