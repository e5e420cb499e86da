package handler

import (
	"admissions-portal/internal/dto"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"admissions-portal/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type TicketHandler struct {
	ticketService service.TicketService
}

func NewTicketHandler(ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
	}
}

func (h *TicketHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.CreateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ticket, err := h.ticketService.Create(ctx, actor, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, ticket)
}

func (h *TicketHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	page, err := pageFrom(c)
	if err != nil {
		return err
	}
	filter := repository.TicketFilter{
		Status:   model.TicketStatus(c.QueryParam("status")),
		Category: model.TicketCategory(c.QueryParam("category")),
		Priority: model.TicketPriority(c.QueryParam("priority")),
		Page:     page,
	}

	tickets, total, err := h.ticketService.List(ctx, actor, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.ListResponse[*model.Ticket]{
		Items: tickets,
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

func (h *TicketHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	ticket, err := h.ticketService.Get(ctx, actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ticket)
}

func (h *TicketHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.UpdateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ticket, err := h.ticketService.Update(ctx, actor, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ticket)
}
