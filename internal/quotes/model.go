// Package quotes manages priced proposals, their totals and printable documents.
package quotes

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a quote.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

var transitions = map[Status][]Status{
	StatusDraft:    {StatusSent, StatusExpired},
	StatusSent:     {StatusAccepted, StatusRejected, StatusExpired, StatusDraft},
	StatusRejected: {StatusDraft},
	StatusExpired:  {StatusDraft},
	StatusAccepted: nil,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether a quote in s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	return slices.Contains(transitions[s], next)
}

// Editable reports whether header and items may still change.
func (s Status) Editable() bool {
	return s == StatusDraft
}

// Quote is a priced proposal addressed to an optional customer.
type Quote struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	CustomerID    *int64          `json:"customer_id"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CustomerEmail string          `json:"customer_email,omitempty"`
	Title         string          `json:"title"`
	Status        Status          `json:"status"`
	IssueDate     time.Time       `json:"issue_date"`
	ValidUntil    time.Time       `json:"valid_until"`
	VATEnabled    bool            `json:"vat_enabled"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	Currency      string          `json:"currency"`
	Notes         string          `json:"notes"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []Item          `json:"items,omitempty"`
}

// VATConfig returns the quote-level VAT settings.
func (q Quote) VATConfig() VATConfig {
	return VATConfig{Enabled: q.VATEnabled, Rate: q.VATRate}
}

// Item is one priced line of a quote. VATRate, when set, overrides the quote rate.
type Item struct {
	ID          int64            `json:"id"`
	QuoteID     int64            `json:"quote_id"`
	Position    int              `json:"position"`
	Description string           `json:"description"`
	ProductID   *int64           `json:"product_id"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	VATRate     *decimal.Decimal `json:"vat_rate"`
}

// ItemInput is the writable part of an item.
type ItemInput struct {
	Description string           `json:"description" validate:"required,max=500"`
	ProductID   *int64           `json:"product_id" validate:"omitempty,gt=0"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"gt=0,scale=3"`
	UnitPrice   decimal.Decimal  `json:"unit_price" validate:"gte=0,scale=2"`
	VATRate     *decimal.Decimal `json:"vat_rate" validate:"omitempty,gte=0,lte=100"`
}

// Input is the payload for creating or replacing a draft quote.
type Input struct {
	CustomerID *int64           `json:"customer_id" validate:"omitempty,gt=0"`
	Title      string           `json:"title" validate:"max=200"`
	IssueDate  string           `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	ValidUntil string           `json:"valid_until" validate:"omitempty,datetime=2006-01-02"`
	VATEnabled *bool            `json:"vat_enabled"`
	VATRate    *decimal.Decimal `json:"vat_rate" validate:"omitempty,gte=0,lte=100"`
	Currency   string           `json:"currency" validate:"omitempty,len=3,alpha"`
	Notes      string           `json:"notes" validate:"max=4000"`
	Items      []ItemInput      `json:"items" validate:"required,min=1,dive"`
}

// ListFilter narrows a quote listing.
type ListFilter struct {
	Status     Status
	CustomerID int64
	Search     string
	From       *time.Time
	To         *time.Time
	Page       int
	PerPage    int
}

// Stats summarises quotes for the dashboard.
type Stats struct {
	ByStatus      map[Status]int  `json:"by_status"`
	AcceptedValue decimal.Decimal `json:"accepted_value"`
}
