package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundApproved  RefundStatus = "approved"
	RefundRejected  RefundStatus = "rejected"
	RefundProcessed RefundStatus = "processed"
)

type Refund struct {
	ID           string          `gorm:"primaryKey;size:36;not null" json:"id"`
	RefundNumber string          `gorm:"size:32;uniqueIndex;not null" json:"refund_number"`
	PaymentID    string          `gorm:"size:36;index;not null" json:"payment_id"`
	UserID       string          `gorm:"size:64;index;not null" json:"user_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Reason       string          `gorm:"type:text;not null" json:"reason"`
	Status       RefundStatus    `gorm:"size:16;index;not null;default:pending" json:"status"`
	AdminNotes   string          `gorm:"type:text" json:"admin_notes,omitempty"`
	ProcessedBy  string          `gorm:"size:64" json:"processed_by,omitempty"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
