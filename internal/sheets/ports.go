// Package sheets exports expenses to spreadsheets.
package sheets

import (
	"context"

	"viajjo/internal/core"
)

// ExpenseExporter appends one expense row for a user.
type ExpenseExporter interface {
	AppendExpense(ctx context.Context, email string, e core.Expense) (rowRef string, err error)
}

// Header names the exported columns, in order.
var Header = []string{"email", "data", "descricao", "categoria", "valor", "viagem"}

// Row lays an expense out in Header order. Amounts that parse are written
// as numbers so spreadsheet formulas can sum them; anything else is kept
// as entered.
func Row(email string, e core.Expense) []any {
	var amount any = e.Amount
	if m, err := e.Cents(); err == nil {
		amount = m.Reais()
	}
	return []any{email, e.Date.String(), e.Description, string(e.Category), amount, e.TripID}
}
