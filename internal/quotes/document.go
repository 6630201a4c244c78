package quotes

import (
	"io"

	"github.com/irrigo/irrigo/internal/customers"
	"github.com/irrigo/irrigo/internal/view"
)

const documentTemplate = "quote_document.html"

// Company is the issuer block printed on every document.
type Company struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Document is everything the printable quote shows.
type Document struct {
	Company  Company
	Quote    Quote
	Customer *customers.Customer
	Totals   Totals
}

// DocumentRenderer renders the printable quote. It is the only rendering path;
// the PDF is produced from its output.
type DocumentRenderer struct {
	engine *view.Engine
}

// NewDocumentRenderer wraps a template engine.
func NewDocumentRenderer(engine *view.Engine) *DocumentRenderer {
	return &DocumentRenderer{engine: engine}
}

// Render writes the HTML document for doc. Totals are recomputed from the
// items so the document never disagrees with them.
func (r *DocumentRenderer) Render(w io.Writer, doc Document) error {
	doc.Totals = ComputeQuoteTotals(doc.Quote.Items, doc.Quote.VATConfig())
	return r.engine.Render(w, documentTemplate, doc)
}
