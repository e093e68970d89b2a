// Package export renders expense reports. Exporters work only on the list
// and selection they are given and never touch the data store.
package export

import (
	"github.com/shopspring/decimal"

	"spendwise-server/src/models"
)

const (
	DateLayout         = "Jan 2, 2006"
	UncategorizedLabel = "Uncategorized"
	PDFFilename        = "expense-report.pdf"
	XLSXFilename       = "expense-report.xlsx"
	SheetName          = "Expenses"
	ReportTitle        = "Expense Report"
	PDFContentType     = "application/pdf"
	XLSXContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Row is one projected report line.
type Row struct {
	Date        string
	Description string
	Category    string
	Type        string
	Amount      string

	amount decimal.Decimal
}

// Selected returns the expenses a report covers: all of them when selected is
// empty, otherwise those whose id is selected, in list order.
func Selected(expenses []models.Expense, selected []string) []models.Expense {
	if len(selected) == 0 {
		return expenses
	}
	keep := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		keep[id] = struct{}{}
	}
	out := make([]models.Expense, 0, len(selected))
	for _, e := range expenses {
		if _, ok := keep[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Rows projects the selected expenses into report rows.
func Rows(expenses []models.Expense, selected []string) []Row {
	effective := Selected(expenses, selected)
	rows := make([]Row, 0, len(effective))
	for i := range effective {
		rows = append(rows, project(&effective[i]))
	}
	return rows
}

func project(e *models.Expense) Row {
	r := Row{
		Date:        e.Date.Format(DateLayout),
		Description: e.Description,
		Category:    UncategorizedLabel,
		Type:        string(models.CategoryExpense),
		Amount:      SignedAmount(e),
		amount:      e.Amount,
	}
	if e.Categories != nil {
		if e.Categories.Name != "" {
			r.Category = e.Categories.Name
		}
		if e.Categories.Type != "" {
			r.Type = string(e.Categories.Type)
		}
	}
	return r
}

// SignedAmount renders the amount as +$X.XX for income and -$X.XX otherwise.
func SignedAmount(e *models.Expense) string {
	sign := "-"
	if e.IsIncome() {
		sign = "+"
	}
	return sign + "$" + e.Amount.Abs().StringFixed(2)
}

// Total sums the unsigned amounts of rows.
func Total(rows []Row) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.amount)
	}
	return sum
}

// TotalLine is the footer printed under the PDF table.
func TotalLine(rows []Row) string {
	return "Total: $" + Total(rows).StringFixed(2)
}
