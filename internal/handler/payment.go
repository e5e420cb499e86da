package handler

import (
	"admissions-portal/internal/dto"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"admissions-portal/internal/service"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	refundService  service.RefundService
}

func NewPaymentHandler(paymentService service.PaymentService, refundService service.RefundService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		refundService:  refundService,
	}
}

func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.CreateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.paymentService.CreateOrder(ctx, actor, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *PaymentHandler) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.VerifyPaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	payment, err := h.paymentService.VerifyPayment(ctx, actor, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	err = h.paymentService.HandleWebhook(ctx, c.Request().Header, body)
	if err != nil {
		return fmt.Errorf("handle webhook: %w", err)
	}

	return c.NoContent(http.StatusOK)
}

func (h *PaymentHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	page, err := pageFrom(c)
	if err != nil {
		return err
	}
	filter := repository.PaymentFilter{
		ApplicationID: c.QueryParam("application_id"),
		Status:        model.PaymentStatus(c.QueryParam("status")),
		PaymentType:   model.PaymentType(c.QueryParam("payment_type")),
		Page:          page,
	}

	payments, total, err := h.paymentService.List(ctx, actor, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.ListResponse[*model.Payment]{
		Items: payments,
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

func (h *PaymentHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	payment, err := h.paymentService.Get(ctx, actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) RequestRefund(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req dto.CreateRefundRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	refund, err := h.refundService.Request(ctx, actor, &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, refund)
}

func (h *PaymentHandler) ListRefunds(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	page, err := pageFrom(c)
	if err != nil {
		return err
	}
	filter := repository.RefundFilter{
		Status: model.RefundStatus(c.QueryParam("status")),
		Page:   page,
	}

	refunds, total, err := h.refundService.List(ctx, actor, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, &dto.ListResponse[*model.Refund]{
		Items: refunds,
		Total: total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

func (h *PaymentHandler) GetRefund(c echo.Context) error {
	ctx := c.Request().Context()
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	refund, err := h.refundService.Get(ctx, actor, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, refund)
}
