package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// IsSettled reports whether the payment has left the pending/processing states.
func (s PaymentStatus) IsSettled() bool {
	return s != PaymentPending && s != PaymentProcessing
}

type PaymentType string

const (
	PaymentTypeApplicationFee     PaymentType = "application_fee"
	PaymentTypeIssueResolutionFee PaymentType = "issue_resolution_fee"
	PaymentTypeOther              PaymentType = "other"
)

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentTypeApplicationFee, PaymentTypeIssueResolutionFee, PaymentTypeOther:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCreditCard PaymentMethod = "credit_card"
	MethodDebitCard  PaymentMethod = "debit_card"
	MethodNetbanking PaymentMethod = "netbanking"
	MethodUPI        PaymentMethod = "upi"
	MethodWallet     PaymentMethod = "wallet"
	MethodRazorpay   PaymentMethod = "razorpay"
	MethodOther      PaymentMethod = "other"
)

// ParsePaymentMethod maps a gateway method name onto the closed set, defaulting to other.
func ParsePaymentMethod(s string) PaymentMethod {
	switch s {
	case "card", "credit_card":
		return MethodCreditCard
	case "debit_card":
		return MethodDebitCard
	case "netbanking":
		return MethodNetbanking
	case "upi":
		return MethodUPI
	case "wallet":
		return MethodWallet
	case "razorpay":
		return MethodRazorpay
	}
	return MethodOther
}

type Payment struct {
	ID            string          `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID        string          `gorm:"size:64;index;not null" json:"user_id"`
	ApplicationID *string         `gorm:"size:36;index" json:"application_id,omitempty"`
	TransactionID string          `gorm:"size:64;uniqueIndex;not null" json:"transaction_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency      string          `gorm:"size:3;not null;default:INR" json:"currency"`
	PaymentMethod PaymentMethod   `gorm:"size:32;not null;default:razorpay" json:"payment_method"`
	PaymentType   PaymentType     `gorm:"size:32;index;not null" json:"payment_type"`
	Status        PaymentStatus   `gorm:"size:16;index;not null;default:pending" json:"status"`

	GatewayOrderID   string            `gorm:"size:64;index" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string            `gorm:"size:64;index" json:"gateway_payment_id,omitempty"`
	GatewayResponse  datatypes.JSONMap `json:"-"`
	FailureReason    string            `gorm:"type:text" json:"failure_reason,omitempty"`
	Description      string            `gorm:"type:text" json:"description,omitempty"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
