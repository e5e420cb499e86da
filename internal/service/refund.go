package service

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/dto"
	"admissions-portal/internal/lifecycle"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefundService interface {
	Request(ctx context.Context, actor lifecycle.Actor, req *dto.CreateRefundRequest) (*model.Refund, error)
	Get(ctx context.Context, actor lifecycle.Actor, id string) (*model.Refund, error)
	List(ctx context.Context, actor lifecycle.Actor, filter repository.RefundFilter) ([]*model.Refund, int64, error)
	Review(ctx context.Context, actor lifecycle.Actor, id string, req *dto.ReviewRefundRequest) (*model.Refund, error)
}

type refundServiceImpl struct {
	db          *gorm.DB
	refundRepo  repository.RefundRepository
	paymentRepo repository.PaymentRepository
	logger      *slog.Logger
	now         func() time.Time
}

func NewRefundService(db *gorm.DB, refundRepo repository.RefundRepository, paymentRepo repository.PaymentRepository, logger *slog.Logger) RefundService {
	if logger == nil {
		logger = slog.Default()
	}
	return &refundServiceImpl{
		db:          db,
		refundRepo:  refundRepo,
		paymentRepo: paymentRepo,
		logger:      logger.With(slog.String("component", "refunds")),
		now:         time.Now,
	}
}

// Request opens a refund for a completed payment owned by the student.
// A zero amount asks for the full payment.
func (s *refundServiceImpl) Request(ctx context.Context, actor lifecycle.Actor, req *dto.CreateRefundRequest) (*model.Refund, error) {
	reason := strings.TrimSpace(req.Reason)
	if req.PaymentID == "" || reason == "" {
		return nil, apperr.Validation("payment_id and reason are required")
	}

	payment, err := s.paymentRepo.FindByID(ctx, nil, req.PaymentID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(payment.UserID) {
		return nil, apperr.Forbidden("access denied")
	}
	if payment.Status != model.PaymentCompleted {
		return nil, apperr.Validation("only completed payments can be refunded")
	}

	amount := req.Amount.Round(2)
	if amount.IsZero() {
		amount = payment.Amount
	}
	if !amount.IsPositive() || amount.GreaterThan(payment.Amount) {
		return nil, apperr.Validation("refund amount must be positive and at most the amount paid")
	}

	open, err := s.refundRepo.HasOpen(ctx, payment.ID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, apperr.New(apperr.KindConflict, "a refund for this payment is already in progress")
	}

	refund := &model.Refund{
		ID:        uuid.NewString(),
		PaymentID: payment.ID,
		UserID:    actor.ID,
		Amount:    amount,
		Reason:    reason,
		Status:    model.RefundPending,
	}
	err = allocateNumber(ctx, s.now(), model.NewRefundNumber, s.refundRepo.NumberExists, func(number string) error {
		refund.RefundNumber = number
		return s.refundRepo.Create(ctx, refund)
	})
	if err != nil {
		return nil, fmt.Errorf("create refund: %w", err)
	}

	s.logger.InfoContext(ctx, "refund requested",
		slog.String("refund_id", refund.ID),
		slog.String("payment_id", payment.ID),
		slog.String("amount", amount.StringFixed(2)),
	)
	return refund, nil
}

func (s *refundServiceImpl) Get(ctx context.Context, actor lifecycle.Actor, id string) (*model.Refund, error) {
	refund, err := s.refundRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := canRead(actor, refund.UserID); err != nil {
		return nil, err
	}
	return refund, nil
}

func (s *refundServiceImpl) List(ctx context.Context, actor lifecycle.Actor, filter repository.RefundFilter) ([]*model.Refund, int64, error) {
	switch {
	case actor.IsAdmin():
	case actor.IsStudent():
		filter.UserID = actor.ID
	default:
		return nil, 0, apperr.Forbidden("access denied")
	}
	return s.refundRepo.List(ctx, filter)
}

// refundSources lists the status each review outcome must start from.
var refundSources = map[model.RefundStatus]model.RefundStatus{
	model.RefundApproved:  model.RefundPending,
	model.RefundRejected:  model.RefundPending,
	model.RefundProcessed: model.RefundApproved,
}

// Review moves a refund pending -> approved|rejected or approved -> processed.
// Processing marks the payment refunded in the same transaction.
func (s *refundServiceImpl) Review(ctx context.Context, actor lifecycle.Actor, id string, req *dto.ReviewRefundRequest) (*model.Refund, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	from, ok := refundSources[req.Status]
	if !ok {
		return nil, apperr.Validation("status must be approved, rejected or processed")
	}

	var out *model.Refund
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		refund, err := s.refundRepo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if refund.Status != from {
			return apperr.Newf(apperr.KindInvalidTransition, "cannot mark a %s refund as %s", refund.Status, req.Status)
		}

		if err := s.refundRepo.UpdateStatus(ctx, tx, id, from, req.Status, strings.TrimSpace(req.Notes), actor.ID); err != nil {
			return err
		}
		if req.Status == model.RefundProcessed {
			if err := s.paymentRepo.MarkRefunded(ctx, tx, refund.PaymentID); err != nil {
				return err
			}
		}

		out, err = s.refundRepo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "refund reviewed",
		slog.String("refund_id", id),
		slog.String("status", string(out.Status)),
		slog.String("admin_id", actor.ID),
	)
	return out, nil
}
