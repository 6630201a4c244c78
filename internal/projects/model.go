// Package projects manages the portfolio of completed and ongoing installations.
package projects

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the delivery state of a project.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in_progress"
	StatusPlanned    Status = "planned"
)

// Project is a portfolio case study.
type Project struct {
	ID                  int64           `json:"id"`
	Slug                string          `json:"slug"`
	Title               string          `json:"title"`
	ClientName          string          `json:"client_name"`
	Region              string          `json:"region"`
	Status              Status          `json:"status"`
	Crop                string          `json:"crop"`
	AreaHectares        decimal.Decimal `json:"area_hectares"`
	Summary             string          `json:"summary"`
	Description         string          `json:"description"`
	BeforeImages        []string        `json:"before_images"`
	AfterImages         []string        `json:"after_images"`
	WaterSavedPct       decimal.Decimal `json:"water_saved_pct"`
	YieldImprovementPct decimal.Decimal `json:"yield_improvement_pct"`
	CompletedOn         *time.Time      `json:"completed_on"`
	Featured            bool            `json:"featured"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Input is the writable part of a project.
type Input struct {
	Slug                string          `json:"slug" validate:"required,slug,max=120"`
	Title               string          `json:"title" validate:"required,max=200"`
	ClientName          string          `json:"client_name" validate:"max=200"`
	Region              string          `json:"region" validate:"max=100"`
	Status              Status          `json:"status" validate:"required,oneof=completed in_progress planned"`
	Crop                string          `json:"crop" validate:"max=100"`
	AreaHectares        decimal.Decimal `json:"area_hectares" validate:"gte=0"`
	Summary             string          `json:"summary" validate:"max=500"`
	Description         string          `json:"description" validate:"max=20000"`
	BeforeImages        []string        `json:"before_images" validate:"max=20,dive,url"`
	AfterImages         []string        `json:"after_images" validate:"max=20,dive,url"`
	WaterSavedPct       decimal.Decimal `json:"water_saved_pct" validate:"gte=0,lte=100"`
	YieldImprovementPct decimal.Decimal `json:"yield_improvement_pct" validate:"gte=0,lte=100"`
	CompletedOn         string          `json:"completed_on" validate:"omitempty,datetime=2006-01-02"`
	Featured            bool            `json:"featured"`
}

// Sort keys accepted by the public listing.
const (
	SortNewest     = "newest"
	SortWaterSaved = "water_saved"
	SortYield      = "yield"
)

// Query narrows and orders the project listing.
type Query struct {
	Search  string
	Status  Status
	Region  string
	Sort    string
	Page    int
	PerPage int
}

// Impact aggregates the results of completed projects.
type Impact struct {
	Completed              int             `json:"completed"`
	TotalHectares          decimal.Decimal `json:"total_hectares"`
	AvgWaterSavedPct       decimal.Decimal `json:"avg_water_saved_pct"`
	AvgYieldImprovementPct decimal.Decimal `json:"avg_yield_improvement_pct"`
}
