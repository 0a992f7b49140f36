package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled},
}

// CanTransitionTo reports whether moving from s to next is a legal order transition.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type ReceiptStatus string

const (
	ReceiptStatusPending ReceiptStatus = "pending"
	ReceiptStatusSending ReceiptStatus = "sending"
	ReceiptStatusSent    ReceiptStatus = "sent"
	ReceiptStatusFailed  ReceiptStatus = "failed"
)

// OrderItemView is an order line joined with the live catalog. Title and
// PrintSizeLabel fall back to the purchase snapshot when the catalog row is gone.
type OrderItemView struct {
	ID              uint            `json:"id"`
	ImageID         uint            `json:"imageId"`
	PrintSizeID     *uint           `json:"printSizeId,omitempty"`
	Title           string          `json:"title"`
	PreviewURL      string          `json:"previewUrl,omitempty"`
	PrintSizeLabel  string          `json:"printSizeLabel,omitempty"`
	ItemName        string          `json:"itemName"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
}

type OrderView struct {
	Order
	FormattedDate string          `json:"formattedDate"`
	Items         []OrderItemView `json:"items"`
}

// FormatOrderDate renders a purchase timestamp the way receipts and order
// history display it, e.g. "Jun 3, 2025, 04:05 PM".
func FormatOrderDate(t time.Time) string {
	return t.Format("Jan 2, 2006, 03:04 PM")
}
