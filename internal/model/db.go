package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Image struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Filename    string    `gorm:"size:255;uniqueIndex;not null" json:"filename"`
	Title       string    `gorm:"size:255" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:100;index" json:"category"`
	UploadedAt  time.Time `gorm:"autoCreateTime" json:"uploadedAt"`
}

type PrintSize struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Label      string          `gorm:"size:64;not null" json:"label"`
	WidthIn    decimal.Decimal `gorm:"type:decimal(6,2)" json:"widthIn"`
	HeightIn   decimal.Decimal `gorm:"type:decimal(6,2)" json:"heightIn"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"` // authoritative unit price
	PreviewURL string          `gorm:"size:512" json:"previewUrl"`
}

type CartItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"not null;uniqueIndex:idx_cart_user_image_size" json:"userId"`
	ImageID     uint      `gorm:"not null;uniqueIndex:idx_cart_user_image_size" json:"imageId"`
	PrintSizeID uint      `gorm:"not null;uniqueIndex:idx_cart_user_image_size" json:"printSizeId"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Order struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           *int64          `gorm:"index" json:"userId,omitempty"`
	CustomerName     string          `gorm:"size:255;not null" json:"customerName"`
	CustomerEmail    string          `gorm:"size:255;index;not null" json:"customerEmail"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	TaxAmount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"taxAmount"`
	ShippingAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"shippingAmount"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	Currency         string          `gorm:"size:8;not null" json:"currency"`
	PaymentSessionID string          `gorm:"size:255;uniqueIndex;not null" json:"paymentSessionId"`
	Status           OrderStatus     `gorm:"size:32;index;not null" json:"status"`
	CreatedAt        time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type OrderItem struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// FK → orders.id
	OrderID uint `gorm:"index;not null" json:"orderId"`
	// FK → images.id, print_sizes.id at checkout time
	ImageID         uint            `gorm:"index;not null" json:"imageId"`
	PrintSizeID     *uint           `json:"printSizeId,omitempty"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"priceAtPurchase"`
	ItemName        string          `gorm:"size:255;not null" json:"itemName"`
	PrintSizeLabel  string          `gorm:"size:64" json:"printSizeLabel,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

type ReceiptDelivery struct {
	ID        uint          `gorm:"primaryKey"`
	OrderID   uint          `gorm:"uniqueIndex;not null"`
	Status    ReceiptStatus `gorm:"size:16;index;not null"`
	Attempts  int           `gorm:"not null;default:0"`
	LastError string        `gorm:"size:1024"`
	ClaimedAt *time.Time
	SentAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// All lists every persisted entity, in dependency order, for schema migration.
func All() []interface{} {
	return []interface{}{
		&Image{},
		&PrintSize{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&WebhookEvent{},
		&ReceiptDelivery{},
	}
}
