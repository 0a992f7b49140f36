// Package invoice renders order invoices as PDF documents.
package invoice

import (
	"bytes"
	"fmt"
	"io"

	"print-store/internal/model"

	"github.com/go-pdf/fpdf"
)

type Option func(*Generator)

// WithoutCompression disables stream compression so the text operators stay readable.
func WithoutCompression() Option {
	return func(g *Generator) {
		g.compress = false
	}
}

// WithCurrencySymbol sets the symbol printed in front of amounts. Defaults to "$".
func WithCurrencySymbol(symbol string) Option {
	return func(g *Generator) {
		g.symbol = symbol
	}
}

// Generator is safe for concurrent use; every call builds its own document.
type Generator struct {
	compress bool
	symbol   string
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{compress: true, symbol: "$"}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Render returns the invoice for order and its items as PDF bytes.
func (g *Generator) Render(order *model.Order, items []model.OrderItem) ([]byte, error) {
	var buf bytes.Buffer
	if err := g.Write(&buf, order, items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write streams the invoice to w.
func (g *Generator) Write(w io.Writer, order *model.Order, items []model.OrderItem) error {
	if order == nil {
		return fmt.Errorf("invoice: order is nil")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(g.compress)
	pdf.SetCreationDate(order.CreatedAt)
	pdf.SetModificationDate(order.CreatedAt)
	pdf.SetTitle(fmt.Sprintf("Invoice %d", order.ID), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Invoice", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	line := func(text string) {
		pdf.CellFormat(0, 7, tr(text), "", 1, "L", false, 0, "")
	}
	line(fmt.Sprintf("Order ID: %d", order.ID))
	line(fmt.Sprintf("Customer: %s", order.CustomerName))
	line(fmt.Sprintf("Email: %s", order.CustomerEmail))
	line(fmt.Sprintf("Date: %s", order.CreatedAt.Format("January 2, 2006")))
	pdf.Ln(6)

	for _, item := range items {
		line(fmt.Sprintf("%s — Qty: %d — %s%s", item.ItemName, item.Quantity, g.symbol, item.PriceAtPurchase.StringFixed(2)))
	}
	pdf.Ln(6)

	if order.TaxAmount.IsPositive() || order.ShippingAmount.IsPositive() {
		line(fmt.Sprintf("Subtotal: %s%s", g.symbol, order.Subtotal.StringFixed(2)))
		line(fmt.Sprintf("Tax: %s%s", g.symbol, order.TaxAmount.StringFixed(2)))
		line(fmt.Sprintf("Shipping: %s%s", g.symbol, order.ShippingAmount.StringFixed(2)))
	}
	pdf.SetFont("Helvetica", "B", 12)
	line(fmt.Sprintf("Total: %s%s", g.symbol, order.TotalAmount.StringFixed(2)))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("invoice: render order %d: %w", order.ID, err)
	}
	return nil
}
