package handler

import (
	"io"
	"net/http"

	"print-store/internal/dto"
	"print-store/internal/service"

	"github.com/labstack/echo/v4"
)

const stripeSignatureHeader = "Stripe-Signature"

type WebhookHandler struct {
	fulfillmentService service.FulfillmentService
}

func NewWebhookHandler(fulfillmentService service.FulfillmentService) *WebhookHandler {
	return &WebhookHandler{
		fulfillmentService: fulfillmentService,
	}
}

// PaymentWebhook must see the body exactly as sent; the signature covers the raw bytes.
func (h *WebhookHandler) PaymentWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read body failed")
	}

	_, err = h.fulfillmentService.HandleWebhook(ctx, body, c.Request().Header.Get(stripeSignatureHeader))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}
