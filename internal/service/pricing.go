package service

import (
	"fmt"
	"strings"

	"print-store/internal/config"
	"print-store/internal/model"

	"github.com/shopspring/decimal"
)

// PricingPolicy holds the server-side tax and shipping rules applied at checkout.
type PricingPolicy struct {
	TaxRate  decimal.Decimal
	TaxLabel string
	Currency string
	// ShippingRates maps a payment-provider shipping rate id to its amount in cents.
	ShippingRates map[string]int64
}

func NewPricingPolicy(cfg *config.Pricing) PricingPolicy {
	return PricingPolicy{
		TaxRate:       cfg.TaxRate,
		TaxLabel:      cfg.TaxLabel,
		Currency:      strings.ToLower(cfg.Currency),
		ShippingRates: cfg.ShippingRates,
	}
}

type PricedLine struct {
	Image     *model.Image
	PrintSize *model.PrintSize
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	Tax       decimal.Decimal
}

type Quote struct {
	Lines    []PricedLine
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// ShippingRequired reports whether checkout must name a shipping rate.
func (p PricingPolicy) ShippingRequired() bool {
	return len(p.ShippingRates) > 0
}

// ShippingCost resolves a shipping rate id to its amount. An empty id is only
// accepted when no shipping rates are configured.
func (p PricingPolicy) ShippingCost(rateID string) (decimal.Decimal, error) {
	if rateID == "" {
		if p.ShippingRequired() {
			return decimal.Zero, newValidationError("shippingRateId", "is required")
		}
		return decimal.Zero, nil
	}

	cents, ok := p.ShippingRates[rateID]
	if !ok {
		return decimal.Zero, newValidationError("shippingRateId", fmt.Sprintf("unknown shipping rate %q", rateID))
	}
	return decimal.New(cents, -2), nil
}

// PriceLine prices one cart line from the catalog. Tax is rounded per line.
func (p PricingPolicy) PriceLine(image *model.Image, size *model.PrintSize, quantity int) PricedLine {
	lineTotal := size.Price.Mul(decimal.NewFromInt(int64(quantity)))
	return PricedLine{
		Image:     image,
		PrintSize: size,
		Name:      ItemName(image, size),
		Quantity:  quantity,
		UnitPrice: size.Price,
		LineTotal: lineTotal,
		Tax:       lineTotal.Mul(p.TaxRate).Round(2),
	}
}

func (p PricingPolicy) Quote(lines []PricedLine, shipping decimal.Decimal) Quote {
	q := Quote{
		Lines:    lines,
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Shipping: shipping,
	}
	for _, line := range lines {
		q.Subtotal = q.Subtotal.Add(line.LineTotal)
		q.Tax = q.Tax.Add(line.Tax)
	}
	q.Total = q.Subtotal.Add(q.Tax).Add(q.Shipping)
	return q
}

// TaxLineName labels the tax line shown on the hosted payment page, e.g. "HST (13%)".
func (p PricingPolicy) TaxLineName() string {
	return fmt.Sprintf("%s (%s%%)", p.TaxLabel, p.TaxRate.Shift(2).String())
}

// ItemName is the display name snapshotted onto an order line.
func ItemName(image *model.Image, size *model.PrintSize) string {
	title := image.Title
	if title == "" {
		title = image.Filename
	}
	if size == nil || size.Label == "" {
		return title
	}
	return fmt.Sprintf("%s (%s)", title, size.Label)
}

// minorUnits converts an amount to the smallest currency unit.
func minorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}
