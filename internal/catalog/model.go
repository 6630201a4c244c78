// Package catalog manages irrigation products and their public listing.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products on the public site.
type Category string

const (
	CategoryDrip       Category = "drip"
	CategorySprinkler  Category = "sprinkler"
	CategoryPivot      Category = "pivot"
	CategoryPump       Category = "pump"
	CategoryFilter     Category = "filter"
	CategoryController Category = "controller"
	CategoryAccessory  Category = "accessory"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryDrip, CategorySprinkler, CategoryPivot, CategoryPump,
	CategoryFilter, CategoryController, CategoryAccessory,
}

// Variant is a priced option of a product, such as a pipe diameter.
type Variant struct {
	Name    string          `json:"name" validate:"required,max=120"`
	Price   decimal.Decimal `json:"price" validate:"gte=0"`
	InStock bool            `json:"in_stock"`
}

// Product is a catalog item.
type Product struct {
	ID          int64            `json:"id"`
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Category    Category         `json:"category"`
	Summary     string           `json:"summary"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url"`
	Price       *decimal.Decimal `json:"price"`
	Variants    []Variant        `json:"variants"`
	BrochureURL string           `json:"brochure_url"`
	VideoURL    string           `json:"video_url"`
	GuideURL    string           `json:"guide_url"`
	Featured    bool             `json:"featured"`
	Active      bool             `json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// FromPrice is the lowest variant price, or the base price when the product
// has no variants. It is nil when nothing is priced.
func (p Product) FromPrice() *decimal.Decimal {
	var lowest *decimal.Decimal
	for i := range p.Variants {
		price := p.Variants[i].Price
		if lowest == nil || price.LessThan(*lowest) {
			lowest = &price
		}
	}
	if lowest != nil {
		return lowest
	}
	return p.Price
}

// InStock reports whether any variant is in stock. Products without variants
// are always orderable.
func (p Product) InStock() bool {
	if len(p.Variants) == 0 {
		return true
	}
	for _, v := range p.Variants {
		if v.InStock {
			return true
		}
	}
	return false
}

// Input is the writable part of a product.
type Input struct {
	Slug        string           `json:"slug" validate:"required,slug,max=120"`
	Name        string           `json:"name" validate:"required,max=200"`
	Category    Category         `json:"category" validate:"required,oneof=drip sprinkler pivot pump filter controller accessory"`
	Summary     string           `json:"summary" validate:"max=500"`
	Description string           `json:"description" validate:"max=20000"`
	ImageURL    string           `json:"image_url" validate:"omitempty,url"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Variants    []Variant        `json:"variants" validate:"omitempty,max=50,dive"`
	BrochureURL string           `json:"brochure_url" validate:"omitempty,url"`
	VideoURL    string           `json:"video_url" validate:"omitempty,url"`
	GuideURL    string           `json:"guide_url" validate:"omitempty,url"`
	Featured    bool             `json:"featured"`
	Active      *bool            `json:"is_active"`
}

// Sort keys accepted by the public listing.
const (
	SortName      = "name"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
)

// Query narrows and orders the product listing.
type Query struct {
	Search      string
	Category    Category
	InStockOnly bool
	Featured    *bool
	Sort        string
	Page        int
	PerPage     int
}
