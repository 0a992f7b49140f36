package handler

import (
	"net/http"

	"print-store/internal/service"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

func (h *CatalogHandler) Gallery(c echo.Context) error {
	images, err := h.catalogService.ListGallery(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, images)
}

func (h *CatalogHandler) PrintSizes(c echo.Context) error {
	sizes, err := h.catalogService.ListPrintSizes(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sizes)
}
