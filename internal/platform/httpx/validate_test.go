package httpx

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irrigo/irrigo/internal/shared"
)

type sampleLine struct {
	Quantity decimal.Decimal `json:"quantity" validate:"gt=0,scale=3"`
}

type sampleInput struct {
	Slug  string          `json:"slug" validate:"required,slug"`
	Email string          `json:"email" validate:"omitempty,email"`
	Price decimal.Decimal `json:"price" validate:"gte=0,scale=2"`
	Lines []sampleLine    `json:"lines" validate:"dive"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(sampleInput{
		Slug:  "Drip Kit",
		Email: "nope",
		Price: decimal.NewFromInt(-1),
		Lines: []sampleLine{{Quantity: decimal.Zero}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	var fields shared.FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Contains(t, fields, "slug")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "lines[0].quantity")
}

func TestValidateAcceptsValidInput(t *testing.T) {
	err := Validate(sampleInput{
		Slug:  "drip-kit-16mm",
		Price: decimal.RequireFromString("12.50"),
		Lines: []sampleLine{{Quantity: decimal.NewFromInt(2)}},
	})
	assert.NoError(t, err)
}

func TestValidateRejectsExtraDecimalPlaces(t *testing.T) {
	err := Validate(sampleInput{
		Slug:  "drip-kit",
		Price: decimal.RequireFromString("100.004"),
		Lines: []sampleLine{{Quantity: decimal.RequireFromString("1.0004")}},
	})
	var fields shared.FieldErrors
	require.True(t, errors.As(err, &fields))
	assert.Equal(t, "must have at most 2 decimal places", fields["price"])
	assert.Equal(t, "must have at most 3 decimal places", fields["lines[0].quantity"])

	err = Validate(sampleInput{
		Slug:  "drip-kit",
		Price: decimal.RequireFromString("100.500"),
		Lines: []sampleLine{{Quantity: decimal.RequireFromString("0.125")}},
	})
	assert.NoError(t, err, "trailing zeros are within scale")
}
