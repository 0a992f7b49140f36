package service

import (
	"testing"

	"print-store/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricingPolicy_RoundsTaxPerLine(t *testing.T) {
	p := testPricing()
	size := &model.PrintSize{ID: 1, Label: "4x6", Price: decimal.RequireFromString("0.25")}

	// each line is 0.0325 -> 0.03; rounding the 0.065 sum instead would give 0.07
	quote := p.Quote([]PricedLine{
		p.PriceLine(&model.Image{ID: 1, Title: "Fog"}, size, 1),
		p.PriceLine(&model.Image{ID: 2, Title: "Dusk"}, size, 1),
	}, decimal.New(500, -2))

	assert.Equal(t, "0.50", quote.Subtotal.StringFixed(2))
	assert.Equal(t, "0.03", quote.Lines[0].Tax.StringFixed(2))
	assert.Equal(t, "0.06", quote.Tax.StringFixed(2))
	assert.Equal(t, "5.56", quote.Total.StringFixed(2))
}

func TestPricingPolicy_Shipping(t *testing.T) {
	p := testPricing()

	cost, err := p.ShippingCost("shr_express")
	require.NoError(t, err)
	assert.Equal(t, "15.00", cost.StringFixed(2))

	_, err = p.ShippingCost("")
	assert.Error(t, err)

	free := PricingPolicy{TaxRate: decimal.Zero}
	cost, err = free.ShippingCost("")
	require.NoError(t, err)
	assert.True(t, cost.IsZero())
	_, err = free.ShippingCost("shr_standard")
	assert.Error(t, err)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(6150), minorUnits(decimal.RequireFromString("61.50")))
	assert.Equal(t, int64(1), minorUnits(decimal.RequireFromString("0.005")))
	assert.Equal(t, int64(2500), minorUnits(decimal.NewFromInt(25)))
}

func TestItemName(t *testing.T) {
	assert.Equal(t, "Fog (8x10)", ItemName(&model.Image{Title: "Fog"}, &model.PrintSize{Label: "8x10"}))
	assert.Equal(t, "fog.jpg", ItemName(&model.Image{Filename: "fog.jpg"}, nil))
}
