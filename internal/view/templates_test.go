package view

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err, "templates should parse without error")
	assert.NotNil(t, engine.templates.Lookup("quote_document.html"))
}

func TestMoneyFormatting(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	assert.Equal(t, "KES 1,234,567.50", engine.Money("KES", decimal.RequireFromString("1234567.5")))
	assert.Equal(t, "USD 0.05", engine.Money("USD", decimal.RequireFromString("0.049")))
	assert.Equal(t, "290.00", engine.Money("", decimal.NewFromInt(290)))
}

func TestPercentAndQuantity(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	assert.Equal(t, "16%", engine.Percent(decimal.NewFromInt(16)))
	assert.Equal(t, "7.5%", engine.Percent(decimal.RequireFromString("7.50")))
	assert.Equal(t, "2", engine.Quantity(decimal.RequireFromString("2.000")))
	assert.Equal(t, "1.25", engine.Quantity(decimal.RequireFromString("1.250")))
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	assert.Error(t, engine.Render(&discard{}, "missing.html", nil))

	var nilEngine *Engine
	assert.Error(t, nilEngine.Render(&discard{}, "quote_document.html", nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
