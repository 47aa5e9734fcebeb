package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseType classifies what kind of spending a transaction represents.
// The upstream API may omit it entirely.
type ExpenseType string

const (
	ExpenseEssential ExpenseType = "essential"
	ExpensePleasure  ExpenseType = "pleasure"
	ExpenseSaving    ExpenseType = "saving"
	ExpenseOther     ExpenseType = "other"
	ExpenseUnset     ExpenseType = ""
)

// ParseExpenseType maps an upstream expense-type value onto the closed set,
// folding anything unrecognised into ExpenseOther.
func ParseExpenseType(s string) ExpenseType {
	switch ExpenseType(s) {
	case ExpenseEssential, ExpensePleasure, ExpenseSaving, ExpenseOther, ExpenseUnset:
		return ExpenseType(s)
	default:
		return ExpenseOther
	}
}

// Transaction is one validated upstream transaction. Instances are built once
// at ingestion and never mutated afterwards; derived dates are computed into
// new values, never written back, because the raw arrays they came from live
// in the cache and may be shared.
type Transaction struct {
	ID          string
	Amount      decimal.Decimal
	AccountID   string
	Date        time.Time
	Description string
	CategoryID  string
	MonthOffset int
	ExpenseType ExpenseType
}

// AdjustedDate returns the date the transaction logically belongs to: the
// nominal date with the day forced to 1, shifted by MonthOffset months.
// All grouping and filtering uses this, never the raw posting date.
func (t Transaction) AdjustedDate() time.Time {
	first := time.Date(t.Date.Year(), t.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, t.MonthOffset, 0)
}

// Month returns the adjusted date truncated to year-month, e.g. "2023-01".
func (t Transaction) Month() string {
	return t.AdjustedDate().Format("2006-01")
}

// AbsAmount returns the magnitude of the amount. Expenses arrive negative.
func (t Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// IsExpense reports whether the transaction is an outflow.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}
