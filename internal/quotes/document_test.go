package quotes

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrigo/irrigo/internal/customers"
	"github.com/irrigo/irrigo/internal/view"
)

func newTestDocuments(t *testing.T) *DocumentRenderer {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)
	return NewDocumentRenderer(engine)
}

func sampleDocument() Document {
	return Document{
		Company: Company{Name: "Irrigo Irrigation Ltd", Phone: "+254 700 000000", Email: "sales@irrigo.example"},
		Quote: Quote{
			Number:     "QT-2603-0007",
			Title:      "Centre pivot retrofit",
			Status:     StatusSent,
			IssueDate:  time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			ValidUntil: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			VATEnabled: true,
			VATRate:    dec("16"),
			Currency:   "KES",
			Notes:      "Installation within 14 days of deposit.",
			Items: []Item{
				{Position: 1, Description: "Pivot span kit", Quantity: dec("2"), UnitPrice: dec("612500")},
				{Position: 2, Description: "Site survey", Quantity: dec("1"), UnitPrice: dec("25000"), VATRate: decPtr("0")},
			},
		},
		Customer: &customers.Customer{Name: "Achieng Odhiambo", Company: "Lakeside Rice Co-op", City: "Kisumu"},
	}
}

func TestDocumentRendererRecomputesTotals(t *testing.T) {
	doc := sampleDocument()
	doc.Totals = Totals{}

	var buf bytes.Buffer
	require.NoError(t, newTestDocuments(t).Render(&buf, doc))
	html := buf.String()

	assert.Contains(t, html, "QT-2603-0007")
	assert.Contains(t, html, "02 Mar 2026")
	assert.Contains(t, html, "Lakeside Rice Co-op")
	assert.Contains(t, html, "Attn: Achieng Odhiambo")
	assert.Contains(t, html, "KES 1,225,000.00")
	assert.Contains(t, html, "KES 1,250,000.00")
	assert.Contains(t, html, "KES 196,000.00")
	assert.Contains(t, html, "KES 1,446,000.00")
	assert.Contains(t, html, "0%")
	assert.Contains(t, html, "Installation within 14 days of deposit.")
}

func TestDocumentRendererWithoutCustomerOrVAT(t *testing.T) {
	doc := sampleDocument()
	doc.Customer = nil
	doc.Quote.VATEnabled = false

	var buf bytes.Buffer
	require.NoError(t, newTestDocuments(t).Render(&buf, doc))
	html := buf.String()

	assert.Contains(t, html, "Walk-in customer")
	assert.NotContains(t, html, "<th class=\"num\">VAT</th>")
	assert.Contains(t, html, "KES 1,250,000.00")
}

func TestDocumentRendererEscapesContent(t *testing.T) {
	doc := sampleDocument()
	doc.Quote.Items[0].Description = `<script>alert("x")</script>`

	var buf bytes.Buffer
	require.NoError(t, newTestDocuments(t).Render(&buf, doc))
	assert.NotContains(t, buf.String(), `<script>alert`)
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}
