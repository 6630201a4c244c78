// Package customers manages the CRM records quotes are addressed to.
package customers

import "time"

// Customer is a CRM record.
type Customer struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Company     string    `json:"company"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	AddressLine string    `json:"address_line"`
	City        string    `json:"city"`
	Region      string    `json:"region"`
	Country     string    `json:"country"`
	Notes       string    `json:"notes"`
	QuoteCount  int       `json:"quote_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DisplayName prefers the company name and falls back to the contact name.
func (c Customer) DisplayName() string {
	if c.Company != "" {
		return c.Company
	}
	return c.Name
}

// Input is the writable part of a customer.
type Input struct {
	Name        string `json:"name" validate:"required,max=200"`
	Company     string `json:"company" validate:"max=200"`
	Email       string `json:"email" validate:"omitempty,email,max=200"`
	Phone       string `json:"phone" validate:"max=50"`
	AddressLine string `json:"address_line" validate:"max=300"`
	City        string `json:"city" validate:"max=100"`
	Region      string `json:"region" validate:"max=100"`
	Country     string `json:"country" validate:"max=100"`
	Notes       string `json:"notes" validate:"max=4000"`
}

// ListFilter narrows a customer listing.
type ListFilter struct {
	Search  string
	Region  string
	Page    int
	PerPage int
}
