package quotes

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places money amounts are rounded to.
const MoneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// VATConfig is the quote-level VAT setting.
type VATConfig struct {
	Enabled bool
	Rate    decimal.Decimal
}

// LineTotal is the computed breakdown of one item.
type LineTotal struct {
	Position int             `json:"position"`
	Net      decimal.Decimal `json:"net"`
	Rate     decimal.Decimal `json:"rate"`
	Tax      decimal.Decimal `json:"tax"`
}

// Totals is the result of ComputeQuoteTotals.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
	Lines    []LineTotal     `json:"lines"`
}

// ComputeQuoteTotals is the only place quote arithmetic happens.
//
// Each line's net is the exact quantity × unit price. The subtotal is the sum
// of the exact nets, rounded half-up to cents once. With VAT disabled the tax
// is zero and item rates are ignored. With VAT enabled every item is taxed at
// its own rate when set and at cfg.Rate otherwise; the unrounded line taxes are
// summed and the sum is rounded half-up to cents once. Total is subtotal plus
// tax. Line values are left unrounded for the caller to format.
func ComputeQuoteTotals(items []Item, cfg VATConfig) Totals {
	totals := Totals{
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Lines:    make([]LineTotal, 0, len(items)),
	}
	rawSubtotal, rawTax := decimal.Zero, decimal.Zero
	for i, item := range items {
		net := item.Quantity.Mul(item.UnitPrice)
		line := LineTotal{Position: i + 1, Net: net, Rate: decimal.Zero, Tax: decimal.Zero}
		if item.Position > 0 {
			line.Position = item.Position
		}
		if cfg.Enabled {
			line.Rate = cfg.Rate
			if item.VATRate != nil {
				line.Rate = *item.VATRate
			}
			lineTax := net.Mul(line.Rate).Div(hundred)
			rawTax = rawTax.Add(lineTax)
			line.Tax = lineTax
		}
		rawSubtotal = rawSubtotal.Add(net)
		totals.Lines = append(totals.Lines, line)
	}
	totals.Subtotal = rawSubtotal.Round(MoneyPlaces)
	totals.Tax = rawTax.Round(MoneyPlaces)
	totals.Total = totals.Subtotal.Add(totals.Tax)
	return totals
}

// Apply stores the computed totals on the quote header.
func (t Totals) Apply(q *Quote) {
	q.Subtotal = t.Subtotal
	q.Tax = t.Tax
	q.Total = t.Total
}
