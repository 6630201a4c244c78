package customers

import (
	"io"

	"github.com/irrigo/irrigo/internal/platform/sheet"
)

// ExportXLSX writes one row per customer.
func ExportXLSX(w io.Writer, items []Customer) error {
	rows := make([][]any, 0, len(items))
	for _, c := range items {
		rows = append(rows, []any{
			c.ID, c.Name, c.Company, c.Email, c.Phone, c.AddressLine, c.City, c.Region, c.Country,
			c.QuoteCount, c.CreatedAt.Format("2006-01-02"),
		})
	}
	return sheet.Write(w, sheet.Table{
		Sheet:  "Customers",
		Header: []string{"ID", "Name", "Company", "Email", "Phone", "Address", "City", "Region", "Country", "Quotes", "Created"},
		Widths: map[string]float64{"B": 28, "C": 28, "D": 30, "F": 36},
		Rows:   rows,
	})
}
