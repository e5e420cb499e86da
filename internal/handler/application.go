package handler

import (
	"admissions-portal/internal/dto"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"admissions-portal/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type ApplicationHandler struct {
	applicationService service.ApplicationService
	documentService    service.DocumentService
}

func NewApplicationHandler(applicationService service.ApplicationService, documentService service.DocumentService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
		documentService:    documentService,
	}
}

func (h *ApplicationHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.CreateApplicationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	app, err := h.applicationService.Create(ctx, actor, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	page, err := pageFrom(c)
	if err != nil {
		return err
	}
	filter := repository.ApplicationFilter{
		StudentID:    c.QueryParam("student_id"),
		UniversityID: c.QueryParam("university_id"),
		Status:       model.ApplicationStatus(c.QueryParam("status")),
		Page:         page,
	}

	apps, total, err := h.applicationService.List(ctx, actor, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.ListResponse[*model.Application]{
		Items: apps,
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

func (h *ApplicationHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	app, err := h.applicationService.Get(ctx, actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.UpdateApplicationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	app, err := h.applicationService.Update(ctx, actor, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	if err := h.applicationService.Delete(ctx, actor, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ApplicationHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	app, err := h.applicationService.Submit(ctx, actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) Withdraw(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	app, err := h.applicationService.Withdraw(ctx, actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, app)
}

func (h *ApplicationHandler) IssueDetails(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	details, err := h.applicationService.IssueDetails(ctx, actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, details)
}

func (h *ApplicationHandler) AttachDocument(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.AttachDocumentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	doc, err := h.documentService.Attach(ctx, actor, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, doc)
}

func (h *ApplicationHandler) ListDocuments(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	docs, err := h.documentService.ListForApplication(ctx, actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, docs)
}
