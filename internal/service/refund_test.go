package service

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/dto"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) paidFee(t *testing.T) *model.Payment {
	t.Helper()
	app := f.verifiedApplication(t, "2000")
	order := f.order(t, app, model.PaymentTypeApplicationFee)
	payment, err := f.billing.Settle(context.Background(), order.PaymentID, repository.Settlement{
		Status:           model.PaymentCompleted,
		GatewayPaymentID: "pay_paid",
	})
	require.NoError(t, err)
	return payment
}

func TestRefundRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.paidFee(t)

	_, err := f.refunds.Request(ctx, student, &dto.CreateRefundRequest{PaymentID: payment.ID})
	assert.ErrorIs(t, err, apperr.ErrValidation, "a reason is required")

	_, err = f.refunds.Request(ctx, other, &dto.CreateRefundRequest{PaymentID: payment.ID, Reason: "changed plans"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.refunds.Request(ctx, student, &dto.CreateRefundRequest{PaymentID: payment.ID, Amount: decimal.NewFromInt(2500), Reason: "changed plans"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	refund, err := f.refunds.Request(ctx, student, &dto.CreateRefundRequest{PaymentID: payment.ID, Reason: "changed plans"})
	require.NoError(t, err)
	assert.Equal(t, model.RefundPending, refund.Status)
	assert.True(t, refund.Amount.Equal(decimal.NewFromInt(2000)), "zero amount means the full payment")
	assert.Regexp(t, `^REF-\d{4}-\d{5}$`, refund.RefundNumber)

	_, err = f.refunds.Request(ctx, student, &dto.CreateRefundRequest{PaymentID: payment.ID, Reason: "again"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRefundRequiresCompletedPayment(t *testing.T) {
	f := newFixture(t)
	app := f.verifiedApplication(t, "2000")
	order := f.order(t, app, model.PaymentTypeApplicationFee)

	_, err := f.refunds.Request(context.Background(), student, &dto.CreateRefundRequest{PaymentID: order.PaymentID, Reason: "oops"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestRefundReviewFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.paidFee(t)

	refund, err := f.refunds.Request(ctx, student, &dto.CreateRefundRequest{
		PaymentID: payment.ID,
		Amount:    decimal.RequireFromString("500.00"),
		Reason:    "partial",
	})
	require.NoError(t, err)

	_, err = f.refunds.Review(ctx, student, refund.ID, &dto.ReviewRefundRequest{Status: model.RefundApproved})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = f.refunds.Review(ctx, admin, refund.ID, &dto.ReviewRefundRequest{Status: model.RefundProcessed})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "a pending refund cannot be processed directly")

	_, err = f.refunds.Review(ctx, admin, refund.ID, &dto.ReviewRefundRequest{Status: model.RefundPending})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	approved, err := f.refunds.Review(ctx, admin, refund.ID, &dto.ReviewRefundRequest{Status: model.RefundApproved, Notes: "ok"})
	require.NoError(t, err)
	assert.Equal(t, model.RefundApproved, approved.Status)
	assert.Equal(t, "ok", approved.AdminNotes)

	processed, err := f.refunds.Review(ctx, admin, refund.ID, &dto.ReviewRefundRequest{Status: model.RefundProcessed})
	require.NoError(t, err)
	assert.Equal(t, model.RefundProcessed, processed.Status)
	assert.Equal(t, admin.ID, processed.ProcessedBy)

	stored, err := f.billing.Get(ctx, admin, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, stored.Status)

	_, err = f.refunds.Review(ctx, admin, refund.ID, &dto.ReviewRefundRequest{Status: model.RefundProcessed})
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestRejectedRefundAllowsANewRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	payment := f.paidFee(t)

	refund, err := f.refunds.Request(ctx, student, &dto.CreateRefundRequest{PaymentID: payment.ID, Reason: "first"})
	require.NoError(t, err)
	_, err = f.refunds.Review(ctx, admin, refund.ID, &dto.ReviewRefundRequest{Status: model.RefundRejected, Notes: "outside window"})
	require.NoError(t, err)

	_, err = f.refunds.Request(ctx, student, &dto.CreateRefundRequest{PaymentID: payment.ID, Reason: "second"})
	require.NoError(t, err)

	list, total, err := f.refunds.List(ctx, student, repository.RefundFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, list, 2)

	_, total, err = f.refunds.List(ctx, other, repository.RefundFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}
