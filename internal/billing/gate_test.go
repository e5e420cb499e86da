package billing

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/lifecycle"
	"admissions-portal/internal/model"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGate() *Gate {
	return NewGate(decimal.NewFromInt(500), "INR")
}

func TestCanInitiateApplicationFee(t *testing.T) {
	g := newGate()

	tests := []struct {
		name   string
		status model.ApplicationStatus
		paid   bool
		want   error
	}{
		{"verified and unpaid", model.StatusVerified, false, nil},
		{"submitted", model.StatusSubmitted, false, apperr.ErrNotVerified},
		{"draft", model.StatusDraft, false, apperr.ErrNotVerified},
		{"already paid", model.StatusVerified, true, apperr.ErrAlreadyPaid},
		{"payment received", model.StatusPaymentReceived, true, apperr.ErrNotVerified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.CanInitiate(&model.Application{Status: tt.status}, model.PaymentTypeApplicationFee, tt.paid, nil)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCanInitiateIssueFee(t *testing.T) {
	g := newGate()
	raised := &model.Application{Status: model.StatusIssueRaised}

	assert.NoError(t, g.CanInitiate(raised, model.PaymentTypeIssueResolutionFee, false, nil))
	assert.NoError(t, g.CanInitiate(raised, model.PaymentTypeIssueResolutionFee, false, &model.Payment{Status: model.PaymentPending}))
	assert.NoError(t, g.CanInitiate(raised, model.PaymentTypeIssueResolutionFee, false, &model.Payment{Status: model.PaymentFailed}))

	err := g.CanInitiate(raised, model.PaymentTypeIssueResolutionFee, false, &model.Payment{Status: model.PaymentCompleted})
	assert.True(t, errors.Is(err, apperr.ErrAlreadyPaid))

	err = g.CanInitiate(&model.Application{Status: model.StatusVerified}, model.PaymentTypeIssueResolutionFee, false, nil)
	assert.True(t, errors.Is(err, apperr.ErrNoIssueRaised))
}

func TestCanInitiateOther(t *testing.T) {
	err := newGate().CanInitiate(&model.Application{Status: model.StatusVerified}, model.PaymentTypeOther, false, nil)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestAmount(t *testing.T) {
	g := newGate()

	amt, err := g.Amount(&model.University{ApplicationFee: decimal.RequireFromString("1999.999")}, model.PaymentTypeApplicationFee)
	require.NoError(t, err)
	assert.Equal(t, "2000", amt.String())

	amt, err = g.Amount(nil, model.PaymentTypeIssueResolutionFee)
	require.NoError(t, err)
	assert.True(t, amt.Equal(decimal.NewFromInt(500)))

	_, err = g.Amount(&model.University{ApplicationFee: decimal.Zero}, model.PaymentTypeApplicationFee)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = g.Amount(&model.University{ApplicationFee: decimal.RequireFromString("0.004")}, model.PaymentTypeApplicationFee)
	assert.True(t, errors.Is(err, apperr.ErrValidation), "rounds to zero")

	_, err = g.Amount(nil, model.PaymentTypeApplicationFee)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestSettlementTrigger(t *testing.T) {
	tr, ok := SettlementTrigger(&model.Payment{PaymentType: model.PaymentTypeApplicationFee})
	assert.True(t, ok)
	assert.Equal(t, lifecycle.TriggerSettleApplicationFee, tr)

	tr, ok = SettlementTrigger(&model.Payment{PaymentType: model.PaymentTypeIssueResolutionFee})
	assert.True(t, ok)
	assert.Equal(t, lifecycle.TriggerSettleIssueFee, tr)

	_, ok = SettlementTrigger(&model.Payment{PaymentType: model.PaymentTypeOther})
	assert.False(t, ok)
}

func TestCanViewIssueDetails(t *testing.T) {
	issue := "missing transcript"
	payID := "pay-1"
	app := &model.Application{Status: model.StatusIssueRaised, IssueDetails: &issue}

	assert.False(t, CanViewIssueDetails(app, nil), "right after raise")

	app.IssuePaymentID = &payID
	pending := &model.Payment{ID: payID, PaymentType: model.PaymentTypeIssueResolutionFee, Status: model.PaymentPending}
	assert.False(t, CanViewIssueDetails(app, pending), "order created, not completed")

	completed := *pending
	completed.Status = model.PaymentCompleted
	assert.True(t, CanViewIssueDetails(app, &completed))

	wrong := completed
	wrong.ID = "pay-2"
	assert.False(t, CanViewIssueDetails(app, &wrong))

	wrongType := completed
	wrongType.PaymentType = model.PaymentTypeApplicationFee
	assert.False(t, CanViewIssueDetails(app, &wrongType))
}
