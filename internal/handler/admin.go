package handler

import (
	"admissions-portal/internal/dto"
	"admissions-portal/internal/lifecycle"
	"admissions-portal/internal/model"
	"admissions-portal/internal/service"
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

type AdminHandler struct {
	applicationService service.ApplicationService
	paymentService     service.PaymentService
	refundService      service.RefundService
	documentService    service.DocumentService
	dashboardService   service.DashboardService
}

func NewAdminHandler(
	applicationService service.ApplicationService,
	paymentService service.PaymentService,
	refundService service.RefundService,
	documentService service.DocumentService,
	dashboardService service.DashboardService,
) *AdminHandler {
	return &AdminHandler{
		applicationService: applicationService,
		paymentService:     paymentService,
		refundService:      refundService,
		documentService:    documentService,
		dashboardService:   dashboardService,
	}
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	dashboard, err := h.dashboardService.Get(ctx, actor)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dashboard)
}

func (h *AdminHandler) Review(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.ReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	app, err := h.applicationService.Review(ctx, actor, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, app)
}

type notesTransition func(ctx context.Context, actor lifecycle.Actor, id, notes string) (*model.Application, error)

// withNotes adapts a notes-carrying transition (verify, approve, reject, ...) to a handler.
func withNotes(fire notesTransition) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}

		var req dto.NotesRequest
		if err := bind(c, &req); err != nil {
			return err
		}

		app, err := fire(ctx, actor, c.Param("id"), req.Notes)
		if err != nil {
			return err
		}

		return c.JSON(http.StatusOK, app)
	}
}

func (h *AdminHandler) Verify() echo.HandlerFunc {
	return withNotes(h.applicationService.Verify)
}

func (h *AdminHandler) MarkUnderReview() echo.HandlerFunc {
	return withNotes(h.applicationService.MarkUnderReview)
}

func (h *AdminHandler) RequestDocuments() echo.HandlerFunc {
	return withNotes(h.applicationService.RequestDocuments)
}

func (h *AdminHandler) Approve() echo.HandlerFunc {
	return withNotes(h.applicationService.Approve)
}

func (h *AdminHandler) Reject() echo.HandlerFunc {
	return withNotes(h.applicationService.Reject)
}

func (h *AdminHandler) RaiseIssue(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.RaiseIssueRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	app, err := h.applicationService.RaiseIssue(ctx, actor, c.Param("id"), req.IssueDetails)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, app)
}

func (h *AdminHandler) TriggerVerification(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	report, err := h.applicationService.TriggerVerification(ctx, actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, report)
}

func (h *AdminHandler) SettlePayment(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.AdminSettleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	payment, err := h.paymentService.AdminSettle(ctx, actor, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payment)
}

func (h *AdminHandler) ReviewRefund(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.ReviewRefundRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	refund, err := h.refundService.Review(ctx, actor, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, refund)
}

func (h *AdminHandler) ReviewDocument(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.ReviewDocumentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	doc, err := h.documentService.Review(ctx, actor, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, doc)
}
