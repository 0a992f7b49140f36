package handler

import (
	"net/http"

	"print-store/internal/middleware"
	"print-store/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) GetBySession(c echo.Context) error {
	order, err := h.orderService.GetBySessionID(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	orders, err := h.orderService.ListForCustomer(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) ListAll(c echo.Context) error {
	orders, err := h.orderService.ListAll(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}
