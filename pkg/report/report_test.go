package report

import (
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/finscope/finscope/pkg/models"
)

func num(s string) *json.Number {
	n := json.Number(s)
	return &n
}

func offset(n int) *int { return &n }

func rawTx(id, date, account, category, amount, desc string) models.RawTransaction {
	return models.RawTransaction{
		ID:          models.ID(id),
		Amount:      num(amount),
		AccountID:   models.ID(account),
		Date:        date,
		Description: desc,
		CategoryID:  models.ID(category),
		ExpenseType: "essential",
	}
}

func testInputs() ([]models.RawTransaction, []models.RawCategory, []models.RawAccount) {
	txs := []models.RawTransaction{
		rawTx("2", "2023-01-20", "a1", "10", "-25.50", "market"),
		rawTx("1", "2023-01-05", "a1", "1", "-10", "bakery"),
		rawTx("3", "2023-01-10", "a2", "99", "-5", "kiosk"),
	}
	cats := []models.RawCategory{
		{ID: "1", Name: "Food", Children: []models.RawCategory{{ID: "10", Name: "Groceries"}}},
	}
	accts := []models.RawAccount{{ID: "a1", Name: "Checking"}}
	return txs, cats, accts
}

func TestMergeResolvesNamesAndSorts(t *testing.T) {
	txs, cats, accts := testInputs()
	txs = append(txs, rawTx("4", "2022-12-31", "a1", "1", "-3", "leftover"))
	rows, err := Merge(txs, cats, accts, Options{}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	// Sorting is by adjusted month; ties keep input order.
	if rows[0].ID != "4" || rows[1].ID != "2" || rows[2].ID != "1" || rows[3].ID != "3" {
		t.Errorf("rows out of order: %s %s %s %s", rows[0].ID, rows[1].ID, rows[2].ID, rows[3].ID)
	}

	groceries := rows[1]
	if groceries.Category != "Groceries" || groceries.ParentCategory != "Food" {
		t.Errorf("category = %q / %q, want Groceries / Food", groceries.Category, groceries.ParentCategory)
	}
	if !groceries.Amount.Equal(decimal.RequireFromString("-25.50")) {
		t.Errorf("amount = %s", groceries.Amount)
	}
	if groceries.Account != "Checking" {
		t.Errorf("account = %q", groceries.Account)
	}

	unknown := rows[3]
	if unknown.Category != "Uncategorized" || unknown.ParentCategory != "Uncategorized" {
		t.Errorf("unknown category row: %q / %q", unknown.Category, unknown.ParentCategory)
	}
	if unknown.Account != "Unknown account" {
		t.Errorf("unknown account row: %q", unknown.Account)
	}
}

func TestMergeAppliesOwnExclusionsOnly(t *testing.T) {
	txs, cats, accts := testInputs()
	rows, err := Merge(txs, cats, accts, Options{ExcludeCategoryIDs: []string{"10"}}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, row := range rows {
		if row.Category == "Groceries" {
			t.Errorf("excluded category leaked into report")
		}
	}
}

func TestMergeDateRange(t *testing.T) {
	txs, cats, accts := testInputs()
	txs = append(txs, models.RawTransaction{
		ID: "4", Amount: num("-7"), AccountID: "a1",
		Date: "2023-02-15", CategoryID: "1", CurrentMonth: offset(-1),
	})
	opts := Options{
		Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	rows, err := Merge(txs, cats, accts, opts, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	// The february transaction shifts back one month, so it belongs to january.
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
}

func TestCSVShape(t *testing.T) {
	txs, cats, accts := testInputs()
	rows, err := Merge(txs, cats, accts, Options{}, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	out := CSV(rows)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != len(rows)+1 {
		t.Fatalf("got %d lines, want %d", len(lines), len(rows)+1)
	}
	want := strings.Count(lines[0], Delimiter)
	for i, line := range lines[1:] {
		if strings.Count(line, Delimiter) != want {
			t.Errorf("row %d has inconsistent field count: %q", i, line)
		}
	}
	if !strings.HasPrefix(lines[0], "id"+Delimiter+"date") {
		t.Errorf("unexpected header: %q", lines[0])
	}
}

func TestCSVQuoting(t *testing.T) {
	rows := []Row{{
		ID:          "1",
		Date:        "2023-01-05",
		Amount:      decimal.NewFromInt(-10),
		Description: `he said "hi", twice`,
		Category:    "Food",
	}}
	out := CSV(rows)
	if !strings.Contains(out, `"he said ""hi"", twice"`) {
		t.Errorf("embedded quotes not escaped: %q", out)
	}
}
