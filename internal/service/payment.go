package service

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/billing"
	"admissions-portal/internal/client"
	"admissions-portal/internal/dto"
	"admissions-portal/internal/lifecycle"
	"admissions-portal/internal/metrics"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	webhookPaymentCaptured = "payment.captured"
	webhookPaymentFailed   = "payment.failed"

	duplicateApplicationFee = "duplicate application fee"
)

type PaymentService interface {
	CreateOrder(ctx context.Context, actor lifecycle.Actor, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)
	VerifyPayment(ctx context.Context, actor lifecycle.Actor, req *dto.VerifyPaymentRequest) (*model.Payment, error)
	HandleWebhook(ctx context.Context, headers http.Header, body []byte) error
	Settle(ctx context.Context, paymentID string, outcome repository.Settlement) (*model.Payment, error)
	AdminSettle(ctx context.Context, actor lifecycle.Actor, paymentID string, req *dto.AdminSettleRequest) (*model.Payment, error)
	Get(ctx context.Context, actor lifecycle.Actor, id string) (*model.Payment, error)
	List(ctx context.Context, actor lifecycle.Actor, filter repository.PaymentFilter) ([]*model.Payment, int64, error)
}

type paymentServiceImpl struct {
	db               *gorm.DB
	gateway          client.RazorpayClient
	gatewayKeyID     string
	gate             *billing.Gate
	appRepo          repository.ApplicationRepository
	universityRepo   repository.UniversityRepository
	paymentRepo      repository.PaymentRepository
	webhookEventRepo repository.WebhookEventRepository
	metrics          *metrics.Metrics
	logger           *slog.Logger
	now              func() time.Time
}

func NewPaymentService(
	db *gorm.DB,
	gateway client.RazorpayClient,
	gatewayKeyID string,
	gate *billing.Gate,
	appRepo repository.ApplicationRepository,
	universityRepo repository.UniversityRepository,
	paymentRepo repository.PaymentRepository,
	webhookEventRepo repository.WebhookEventRepository,
	m *metrics.Metrics,
	logger *slog.Logger,
) PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &paymentServiceImpl{
		db:               db,
		gateway:          gateway,
		gatewayKeyID:     gatewayKeyID,
		gate:             gate,
		appRepo:          appRepo,
		universityRepo:   universityRepo,
		paymentRepo:      paymentRepo,
		webhookEventRepo: webhookEventRepo,
		metrics:          m,
		logger:           logger.With(slog.String("component", "payments")),
		now:              time.Now,
	}
}

// CreateOrder opens a gateway order for a fee once the gate allows it.
// A rejected request creates no payment and makes no gateway call.
func (s *paymentServiceImpl) CreateOrder(ctx context.Context, actor lifecycle.Actor, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	if req.ApplicationID == "" {
		return nil, apperr.Validation("application_id is required")
	}
	paymentType := req.PaymentType
	if paymentType == "" {
		paymentType = model.PaymentTypeApplicationFee
	}
	if !paymentType.Valid() {
		return nil, apperr.Validation("unknown payment type " + string(paymentType))
	}

	app, err := s.appRepo.FindByID(ctx, nil, req.ApplicationID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(app.StudentID) {
		return nil, apperr.Forbidden("invalid application")
	}

	applicationFeePaid := false
	var issuePayment *model.Payment
	switch paymentType {
	case model.PaymentTypeApplicationFee:
		applicationFeePaid, err = s.paymentRepo.HasCompleted(ctx, nil, app.ID, model.PaymentTypeApplicationFee, "")
		if err != nil {
			return nil, err
		}
	case model.PaymentTypeIssueResolutionFee:
		if app.IssuePaymentID != nil {
			issuePayment, err = s.paymentRepo.FindByID(ctx, nil, *app.IssuePaymentID)
			if err != nil && !errors.Is(err, apperr.ErrNotFound) {
				return nil, err
			}
		}
	}

	if err := s.gate.CanInitiate(app, paymentType, applicationFeePaid, issuePayment); err != nil {
		return nil, err
	}

	var university *model.University
	if paymentType == model.PaymentTypeApplicationFee {
		university, err = s.universityRepo.FindByID(ctx, app.UniversityID)
		if err != nil {
			return nil, err
		}
	}
	amount, err := s.gate.Amount(university, paymentType)
	if err != nil {
		return nil, err
	}

	if !s.gateway.Configured() {
		return nil, apperr.Gateway("payment gateway not configured", client.ErrGatewayNotConfigured)
	}

	now := s.now()
	order, err := s.gateway.CreateOrder(ctx, amount, s.gate.Currency(), receiptID(app.ID, now), map[string]string{
		"application_id": app.ID,
		"payment_type":   string(paymentType),
	})
	if err != nil {
		return nil, apperr.Gateway("failed to create payment order", err)
	}

	appID := app.ID
	payment := &model.Payment{
		ID:              uuid.NewString(),
		UserID:          actor.ID,
		ApplicationID:   &appID,
		Amount:          amount,
		Currency:        s.gate.Currency(),
		PaymentMethod:   model.MethodRazorpay,
		PaymentType:     paymentType,
		Status:          model.PaymentPending,
		GatewayOrderID:  order.ID,
		GatewayResponse: order.Raw,
		Description:     fmt.Sprintf("%s for %s", strings.ReplaceAll(string(paymentType), "_", " "), app.ApplicationNumber),
	}

	err = allocateNumber(ctx, now, model.NewTransactionID, s.paymentRepo.TransactionIDExists, func(number string) error {
		payment.TransactionID = number
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
				return err
			}
			if paymentType == model.PaymentTypeIssueResolutionFee {
				return s.appRepo.SetIssuePayment(ctx, tx, app.ID, payment.ID)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store payment: %w", err)
	}

	s.metrics.RecordOrder(string(paymentType))
	s.logger.InfoContext(ctx, "payment order created",
		slog.String("payment_id", payment.ID),
		slog.String("application_id", app.ID),
		slog.String("order_id", order.ID),
		slog.String("payment_type", string(paymentType)),
		slog.String("amount", amount.StringFixed(2)),
	)

	return &dto.CreateOrderResponse{
		OrderID:   order.ID,
		Amount:    order.Amount,
		Currency:  order.Currency,
		PaymentID: payment.ID,
		Fee:       amount,
		Key:       s.gatewayKeyID,
	}, nil
}

// VerifyPayment checks the checkout signature, confirms the payment with the gateway and settles it.
// Verifying an already settled payment returns it unchanged.
func (s *paymentServiceImpl) VerifyPayment(ctx context.Context, actor lifecycle.Actor, req *dto.VerifyPaymentRequest) (*model.Payment, error) {
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" || req.LocalPaymentID == "" {
		return nil, apperr.Validation("missing payment verification data")
	}
	if !s.gateway.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		return nil, apperr.Validation("invalid payment signature")
	}

	payment, err := s.paymentRepo.FindByID(ctx, nil, req.LocalPaymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != actor.ID {
		return nil, apperr.Forbidden("access denied")
	}
	if payment.GatewayOrderID != req.OrderID {
		return nil, apperr.Validation("order does not belong to this payment")
	}
	if payment.Status.IsSettled() {
		return payment, nil
	}

	gp, err := s.gateway.FetchPayment(ctx, req.PaymentID)
	if err != nil {
		return nil, apperr.Gateway("failed to fetch payment from gateway", err)
	}

	return s.Settle(ctx, payment.ID, s.settlementFor(gp.Captured(), gp.ID, gp.Method, gp.Status, "", gp.Raw))
}

func (s *paymentServiceImpl) settlementFor(captured bool, gatewayPaymentID, method, gatewayStatus, failure string, raw map[string]interface{}) repository.Settlement {
	st := repository.Settlement{
		GatewayPaymentID: gatewayPaymentID,
		Response:         raw,
	}
	if method != "" {
		st.Method = model.ParsePaymentMethod(method)
	}
	if captured {
		now := s.now()
		st.Status = model.PaymentCompleted
		st.PaidAt = &now
		return st
	}

	st.Status = model.PaymentFailed
	st.FailureReason = failure
	if st.FailureReason == "" {
		st.FailureReason = "gateway reported payment " + gatewayStatus
	}
	return st
}

// HandleWebhook applies payment.captured and payment.failed events. Each event id is applied once.
func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, headers http.Header, body []byte) error {
	if !s.gateway.VerifyWebhookSignature(body, headers.Get("X-Razorpay-Signature")) {
		return apperr.Validation("invalid webhook signature")
	}

	var event model.RazorpayWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return apperr.Wrap(apperr.KindValidation, "decode webhook payload", err)
	}
	entity := event.Payload.Payment.Entity

	eventID := headers.Get("X-Razorpay-Event-Id")
	if eventID == "" {
		eventID = event.Event + ":" + entity.ID
	}

	seen, err := s.webhookEventRepo.Exists(ctx, eventID)
	if err != nil {
		return err
	}
	if seen {
		s.logger.InfoContext(ctx, "webhook event already processed", slog.String("event_id", eventID))
		return nil
	}

	switch event.Event {
	case webhookPaymentCaptured, webhookPaymentFailed:
		if err := s.applyWebhookPayment(ctx, event.Event, &entity); err != nil {
			return err
		}
	default:
		s.logger.InfoContext(ctx, "ignoring webhook event", slog.String("event", event.Event))
	}

	if err := s.webhookEventRepo.MarkProcessed(ctx, nil, eventID, event.Event); err != nil && !repository.IsDuplicateKey(err) {
		return fmt.Errorf("record webhook event: %w", err)
	}
	return nil
}

func (s *paymentServiceImpl) applyWebhookPayment(ctx context.Context, eventType string, entity *model.RazorpayPaymentEntity) error {
	if entity.OrderID == "" {
		return apperr.Validation("webhook payment has no order id")
	}

	payment, err := s.paymentRepo.FindByGatewayOrderID(ctx, entity.OrderID)
	if errors.Is(err, apperr.ErrNotFound) {
		s.logger.WarnContext(ctx, "webhook for unknown order", slog.String("order_id", entity.OrderID))
		return nil
	}
	if err != nil {
		return err
	}

	raw := map[string]interface{}{
		"id":       entity.ID,
		"order_id": entity.OrderID,
		"amount":   entity.Amount,
		"currency": entity.Currency,
		"status":   entity.Status,
		"method":   entity.Method,
		"source":   "webhook",
	}
	st := s.settlementFor(eventType == webhookPaymentCaptured, entity.ID, entity.Method, entity.Status, entity.ErrorDescription, raw)
	_, err = s.Settle(ctx, payment.ID, st)
	return err
}

// Settle applies a gateway outcome to a pending payment and, on completion, fires the
// application transition the payment drives, all in one transaction.
// Settling an already settled payment is a no-op that returns the stored payment.
func (s *paymentServiceImpl) Settle(ctx context.Context, paymentID string, outcome repository.Settlement) (*model.Payment, error) {
	if outcome.Status != model.PaymentCompleted && outcome.Status != model.PaymentFailed {
		return nil, apperr.Validation("a payment can only be settled as completed or failed")
	}

	var (
		settled *model.Payment
		applied bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.paymentRepo.FindByID(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if payment.Status.IsSettled() {
			settled = payment
			return nil
		}

		if outcome.Status == model.PaymentCompleted && payment.PaymentType == model.PaymentTypeApplicationFee && payment.ApplicationID != nil {
			dup, err := s.paymentRepo.HasCompleted(ctx, tx, *payment.ApplicationID, model.PaymentTypeApplicationFee, payment.ID)
			if err != nil {
				return err
			}
			if dup {
				outcome.Status = model.PaymentFailed
				outcome.FailureReason = duplicateApplicationFee
				outcome.PaidAt = nil
			}
		}

		ok, err := s.paymentRepo.MarkSettled(ctx, tx, payment.ID, outcome)
		if err != nil {
			return fmt.Errorf("mark payment settled: %w", err)
		}
		if !ok {
			settled, err = s.paymentRepo.FindByID(ctx, tx, payment.ID)
			return err
		}
		applied = true

		payment.Status = outcome.Status
		if outcome.Status == model.PaymentCompleted {
			if err := s.advanceApplication(ctx, tx, payment); err != nil {
				return err
			}
		}

		settled, err = s.paymentRepo.FindByID(ctx, tx, payment.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if applied {
		s.metrics.RecordSettlement(string(settled.PaymentType), string(settled.Status))
		s.logger.InfoContext(ctx, "payment settled",
			slog.String("payment_id", settled.ID),
			slog.String("payment_type", string(settled.PaymentType)),
			slog.String("status", string(settled.Status)),
			slog.String("failure_reason", settled.FailureReason),
		)
	}
	return settled, nil
}

func (s *paymentServiceImpl) advanceApplication(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	trigger, ok := billing.SettlementTrigger(payment)
	if !ok || payment.ApplicationID == nil {
		return nil
	}

	app, err := s.appRepo.FindByID(ctx, tx, *payment.ApplicationID)
	if err != nil {
		return err
	}

	from := app.Status
	err = lifecycle.Fire(app, trigger, lifecycle.System(), lifecycle.Input{PaymentID: payment.ID, Now: s.now()})
	if errors.Is(err, apperr.ErrInvalidTransition) {
		// the money is kept; an admin reconciles the application by hand
		s.logger.WarnContext(ctx, "payment completed but application is not awaiting it",
			slog.String("payment_id", payment.ID),
			slog.String("application_id", app.ID),
			slog.String("status", string(from)),
		)
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.appRepo.SaveTransition(ctx, tx, app, from); err != nil {
		return err
	}
	s.metrics.RecordTransition(string(trigger))
	return nil
}

// AdminSettle lets an admin record an outcome the gateway never reported.
func (s *paymentServiceImpl) AdminSettle(ctx context.Context, actor lifecycle.Actor, paymentID string, req *dto.AdminSettleRequest) (*model.Payment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	outcome := repository.Settlement{
		Status:           req.Status,
		GatewayPaymentID: req.GatewayPaymentID,
		FailureReason:    strings.TrimSpace(req.Reason),
		Response: map[string]interface{}{
			"source":     "admin",
			"settled_by": actor.ID,
		},
	}
	switch req.Status {
	case model.PaymentCompleted:
		now := s.now()
		outcome.PaidAt = &now
		outcome.FailureReason = ""
	case model.PaymentFailed:
		if outcome.FailureReason == "" {
			return nil, apperr.Validation("a reason is required to fail a payment")
		}
	default:
		return nil, apperr.Validation("status must be completed or failed")
	}

	return s.Settle(ctx, paymentID, outcome)
}

func (s *paymentServiceImpl) Get(ctx context.Context, actor lifecycle.Actor, id string) (*model.Payment, error) {
	payment, err := s.paymentRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := canRead(actor, payment.UserID); err != nil {
		return nil, err
	}
	return payment, nil
}

func (s *paymentServiceImpl) List(ctx context.Context, actor lifecycle.Actor, filter repository.PaymentFilter) ([]*model.Payment, int64, error) {
	switch {
	case actor.IsAdmin():
	case actor.IsStudent():
		filter.UserID = actor.ID
	default:
		return nil, 0, apperr.Forbidden("access denied")
	}
	return s.paymentRepo.List(ctx, filter)
}

// receiptID builds app_<first 8 hex of the application id>_<last 10 digits of epoch ms>.
func receiptID(applicationID string, now time.Time) string {
	short := strings.ReplaceAll(applicationID, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 10 {
		ms = ms[len(ms)-10:]
	}
	return "app_" + short + "_" + ms
}
