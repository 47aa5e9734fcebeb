package report

import (
	"bytes"
	"strings"
)

// Delimiter separates CSV fields in serialized reports.
const Delimiter = ","

var csvHeader = []string{"id", "date", "amount", "description", "category", "parent_category", "account", "expense_type"}

// CSV serializes rows as CSV text: a header line plus one line per row.
// String fields are quoted; amounts are plain decimals.
func CSV(rows []Row) string {
	var buf bytes.Buffer
	buf.WriteString(strings.Join(csvHeader, Delimiter))
	buf.WriteByte('\n')
	for _, r := range rows {
		fields := []string{
			quote(r.ID),
			quote(r.Date),
			r.Amount.String(),
			quote(r.Description),
			quote(r.Category),
			quote(r.ParentCategory),
			quote(r.Account),
			quote(r.ExpenseType),
		}
		buf.WriteString(strings.Join(fields, Delimiter))
		buf.WriteByte('\n')
	}
	return buf.String()
}

// quote wraps a string field in double quotes, doubling embedded quotes.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
