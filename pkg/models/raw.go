package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ID accepts either a JSON string or a JSON number, since the upstream API is
// not consistent about how it encodes identifiers. It is kept opaque.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*id = ID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// RawTransaction is one transaction resource exactly as the API sends it.
// Optional fields stay pointers so validators can tell "absent" from "zero".
type RawTransaction struct {
	ID           ID           `json:"id"`
	Amount       *json.Number `json:"amount"`
	AccountID    ID           `json:"account_id"`
	Date         string       `json:"date"`
	Description  string       `json:"description"`
	CategoryID   ID           `json:"category_id"`
	CurrentMonth *int         `json:"current_month"`
	ExpenseType  string       `json:"expense_type"`
}

// Model converts a raw transaction that already passed structural validation
// into an immutable domain transaction.
func (r RawTransaction) Model() (Transaction, error) {
	if r.Amount == nil {
		return Transaction{}, fmt.Errorf("transaction %s: missing amount", r.ID)
	}
	amount, err := decimal.NewFromString(r.Amount.String())
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: parse amount: %w", r.ID, err)
	}
	date, err := ParseDate(r.Date)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %s: parse date: %w", r.ID, err)
	}
	offset := 0
	if r.CurrentMonth != nil {
		offset = *r.CurrentMonth
	}
	return Transaction{
		ID:          r.ID.String(),
		Amount:      amount,
		AccountID:   r.AccountID.String(),
		Date:        date,
		Description: r.Description,
		CategoryID:  r.CategoryID.String(),
		MonthOffset: offset,
		ExpenseType: ParseExpenseType(r.ExpenseType),
	}, nil
}

// RawCategory mirrors the hierarchical taxonomy resource: roots carry their
// children inline, two levels deep only.
type RawCategory struct {
	ID       ID            `json:"id"`
	Name     string        `json:"name"`
	ParentID ID            `json:"parent_id"`
	Children []RawCategory `json:"children"`
}

// Flatten turns one raw root and its inline children into flat categories.
// Children inherit the root's id as ParentID regardless of what their own
// parent_id field says; the upstream payload is not trustworthy there.
func (r RawCategory) Flatten() []Category {
	out := []Category{{ID: r.ID.String(), Name: r.Name, ParentID: r.ParentID.String()}}
	for _, child := range r.Children {
		out = append(out, Category{ID: child.ID.String(), Name: child.Name, ParentID: r.ID.String()})
	}
	return out
}

// RawAccount is one account resource as sent by the API.
type RawAccount struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Model converts a validated raw account into a domain account.
func (r RawAccount) Model() Account {
	return Account{ID: r.ID.String(), Name: r.Name}
}

// DateLayout is the calendar-date format the upstream API uses.
const DateLayout = "2006-01-02"

// ParseDate parses an upstream calendar date. Times and zones are ignored on
// purpose: all comparisons downstream are date-only.
func ParseDate(s string) (time.Time, error) {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	return time.Parse(DateLayout, s)
}
