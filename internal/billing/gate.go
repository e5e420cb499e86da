// Package billing decides when a fee order may be created, how much it costs,
// and which application transition a settled payment drives.
package billing

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/lifecycle"
	"admissions-portal/internal/model"

	"github.com/shopspring/decimal"
)

type Gate struct {
	issueFee decimal.Decimal
	currency string
}

func NewGate(issueFee decimal.Decimal, currency string) *Gate {
	if currency == "" {
		currency = "INR"
	}
	return &Gate{
		issueFee: issueFee,
		currency: currency,
	}
}

func (g *Gate) Currency() string {
	return g.currency
}

// CanInitiate checks whether an order of type t may be opened for app.
// applicationFeePaid tells whether a completed application fee exists for app;
// issuePayment is the payment referenced by app.IssuePaymentID, if any.
func (g *Gate) CanInitiate(app *model.Application, t model.PaymentType, applicationFeePaid bool, issuePayment *model.Payment) error {
	switch t {
	case model.PaymentTypeApplicationFee:
		if app.Status != model.StatusVerified {
			return apperr.Newf(apperr.KindNotVerified, "application fee requires a verified application, status is %s", app.Status)
		}
		if applicationFeePaid {
			return apperr.New(apperr.KindAlreadyPaid, "application fee already paid")
		}
		return nil
	case model.PaymentTypeIssueResolutionFee:
		if app.Status != model.StatusIssueRaised {
			return apperr.Newf(apperr.KindNoIssueRaised, "no open issue on application, status is %s", app.Status)
		}
		if issuePayment != nil && issuePayment.Status == model.PaymentCompleted {
			return apperr.New(apperr.KindAlreadyPaid, "issue resolution fee already paid")
		}
		return nil
	}
	return apperr.Validation("unsupported payment type " + string(t))
}

// Amount returns the fee for t, rounded to two decimals.
func (g *Gate) Amount(u *model.University, t model.PaymentType) (decimal.Decimal, error) {
	var amount decimal.Decimal
	switch t {
	case model.PaymentTypeApplicationFee:
		if u == nil {
			return decimal.Zero, apperr.NotFound("university")
		}
		amount = u.ApplicationFee
	case model.PaymentTypeIssueResolutionFee:
		amount = g.issueFee
	default:
		return decimal.Zero, apperr.Validation("unsupported payment type " + string(t))
	}

	amount = amount.Round(2)
	if !amount.IsPositive() {
		return decimal.Zero, apperr.Validation("fee amount must be greater than zero")
	}
	return amount, nil
}

// SettlementTrigger maps a completed payment to the transition it drives.
func SettlementTrigger(p *model.Payment) (lifecycle.Trigger, bool) {
	switch p.PaymentType {
	case model.PaymentTypeApplicationFee:
		return lifecycle.TriggerSettleApplicationFee, true
	case model.PaymentTypeIssueResolutionFee:
		return lifecycle.TriggerSettleIssueFee, true
	}
	return "", false
}

// CanViewIssueDetails is true once the issue payment recorded on app has completed.
func CanViewIssueDetails(app *model.Application, issuePayment *model.Payment) bool {
	if !app.HasIssue() || app.IssuePaymentID == nil || issuePayment == nil {
		return false
	}
	return issuePayment.ID == *app.IssuePaymentID &&
		issuePayment.PaymentType == model.PaymentTypeIssueResolutionFee &&
		issuePayment.Status == model.PaymentCompleted
}
