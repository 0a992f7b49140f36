package handler

import (
	"net/http"
	"strconv"

	"print-store/internal/dto"
	"print-store/internal/middleware"
	"print-store/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService service.CartService
}

func NewCartHandler(cartService service.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

func (h *CartHandler) List(c echo.Context) error {
	items, err := h.cartService.List(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CartHandler) Add(c echo.Context) error {
	var req dto.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	items, err := h.cartService.Add(c.Request().Context(), middleware.IdentityFrom(c), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CartHandler) Remove(c echo.Context) error {
	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid item id")
	}

	if err := h.cartService.Remove(c.Request().Context(), middleware.IdentityFrom(c), uint(itemID)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
