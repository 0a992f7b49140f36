package dto

type CheckoutItem struct {
	ImageID     uint `json:"imageId" validate:"required"`
	PrintSizeID uint `json:"printSizeId" validate:"required"`
	Quantity    int  `json:"quantity" validate:"required,min=1,max=1000"`
	// Price is accepted for older clients and never used for billing.
	Price *float64 `json:"price,omitempty"`
}

type Customer struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

type CheckoutRequest struct {
	Items          []*CheckoutItem `json:"items" validate:"required,min=1,dive,required"`
	Customer       *Customer       `json:"customer" validate:"required"`
	ShippingRateID string          `json:"shippingRateId"`
	// ShippingCost in cents as displayed by the client; the configured rate is authoritative.
	ShippingCost *int64 `json:"shippingCost,omitempty"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url,omitempty"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type AddCartItemRequest struct {
	ImageID     uint `json:"imageId" validate:"required"`
	PrintSizeID uint `json:"printSizeId" validate:"required"`
	Quantity    int  `json:"quantity" validate:"required,min=1,max=1000"`
}

type GalleryImage struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
}

type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Message string `json:"message" validate:"required,max=5000"`
}

type ContactResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
