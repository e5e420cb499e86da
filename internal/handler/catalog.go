package handler

import (
	"admissions-portal/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

// CatalogHandler serves the public university and document-type listings.
type CatalogHandler struct {
	universityService service.UniversityService
	documentService   service.DocumentService
}

func NewCatalogHandler(universityService service.UniversityService, documentService service.DocumentService) *CatalogHandler {
	return &CatalogHandler{
		universityService: universityService,
		documentService:   documentService,
	}
}

func (h *CatalogHandler) ListUniversities(c echo.Context) error {
	ctx := c.Request().Context()

	universities, err := h.universityService.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, universities)
}

func (h *CatalogHandler) GetUniversity(c echo.Context) error {
	ctx := c.Request().Context()

	university, err := h.universityService.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, university)
}

func (h *CatalogHandler) ListDocumentTypes(c echo.Context) error {
	ctx := c.Request().Context()

	types, err := h.documentService.ListTypes(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, types)
}
