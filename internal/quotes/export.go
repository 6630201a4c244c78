package quotes

import (
	"io"

	"github.com/irrigo/irrigo/internal/platform/sheet"
)

// ExportXLSX writes one row per quote with its stored totals.
func ExportXLSX(w io.Writer, items []Quote) error {
	rows := make([][]any, 0, len(items))
	for _, q := range items {
		rows = append(rows, []any{
			q.Number,
			q.IssueDate.Format(dateLayout),
			q.ValidUntil.Format(dateLayout),
			q.CustomerName,
			q.Title,
			string(q.Status),
			q.Currency,
			q.Subtotal.InexactFloat64(),
			q.Tax.InexactFloat64(),
			q.Total.InexactFloat64(),
		})
	}
	return sheet.Write(w, sheet.Table{
		Sheet:  "Quotes",
		Header: []string{"Number", "Issued", "Valid until", "Customer", "Title", "Status", "Currency", "Subtotal", "VAT", "Total"},
		Widths: map[string]float64{"A": 16, "D": 30, "E": 36},
		Rows:   rows,
	})
}
