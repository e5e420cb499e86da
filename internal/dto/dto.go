package dto

import (
	"admissions-portal/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

type CreateApplicationRequest struct {
	UniversityID        string                 `json:"university_id"`
	ProgramName         string                 `json:"program_name"`
	Intake              string                 `json:"intake"`
	ApplicationData     map[string]interface{} `json:"application_data"`
	EligibilityCriteria map[string]interface{} `json:"eligibility_criteria"`
}

type UpdateApplicationRequest struct {
	ProgramName         *string                `json:"program_name"`
	Intake              *string                `json:"intake"`
	ApplicationData     map[string]interface{} `json:"application_data"`
	EligibilityCriteria map[string]interface{} `json:"eligibility_criteria"`
}

// ReviewRequest moves an application to Status on behalf of an admin.
type ReviewRequest struct {
	Status       model.ApplicationStatus `json:"status"`
	ReviewNotes  string                  `json:"review_notes"`
	IssueDetails string                  `json:"issue_details"`
}

type NotesRequest struct {
	Notes string `json:"notes"`
}

type RaiseIssueRequest struct {
	IssueDetails string `json:"issue_details"`
}

type IssueDetailsResponse struct {
	CanViewDetails  bool       `json:"can_view_details"`
	RequiresPayment bool       `json:"requires_payment,omitempty"`
	Message         string     `json:"message,omitempty"`
	IssueDetails    string     `json:"issue_details,omitempty"`
	IssueRaisedAt   *time.Time `json:"issue_raised_at,omitempty"`
	IssueResolvedAt *time.Time `json:"issue_resolved_at,omitempty"`
}

type ListResponse[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

type CreateOrderRequest struct {
	ApplicationID string            `json:"application_id"`
	PaymentType   model.PaymentType `json:"payment_type"`
}

type CreateOrderResponse struct {
	OrderID   string          `json:"order_id"`
	Amount    int64           `json:"amount"` // minor units, as returned by the gateway
	Currency  string          `json:"currency"`
	PaymentID string          `json:"payment_id"`
	Fee       decimal.Decimal `json:"fee"`
	Key       string          `json:"key"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
	// LocalPaymentID is the id returned by create-order.
	LocalPaymentID string `json:"payment_id"`
}

type AdminSettleRequest struct {
	Status           model.PaymentStatus `json:"status"`
	GatewayPaymentID string              `json:"gateway_payment_id"`
	Reason           string              `json:"reason"`
}

type AttachDocumentRequest struct {
	DocumentTypeID string `json:"document_type_id"`
	FileName       string `json:"file_name"`
	FileSize       int64  `json:"file_size"`
	MimeType       string `json:"mime_type"`
	StorageKey     string `json:"storage_key"`
}

type ReviewDocumentRequest struct {
	Status model.DocumentStatus `json:"status"`
	Notes  string               `json:"notes"`
}

type CreateRefundRequest struct {
	PaymentID string          `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
}

type ReviewRefundRequest struct {
	Status model.RefundStatus `json:"status"`
	Notes  string             `json:"notes"`
}

type CreateTicketRequest struct {
	Subject       string               `json:"subject"`
	Description   string               `json:"description"`
	Category      model.TicketCategory `json:"category"`
	Priority      model.TicketPriority `json:"priority"`
	ApplicationID string               `json:"application_id"`
}

type UpdateTicketRequest struct {
	Subject         *string               `json:"subject"`
	Description     *string               `json:"description"`
	Category        *model.TicketCategory `json:"category"`
	Priority        *model.TicketPriority `json:"priority"`
	Status          *model.TicketStatus   `json:"status"`
	AssignedTo      *string               `json:"assigned_to"`
	ResolutionNotes *string               `json:"resolution_notes"`
}

type Dashboard struct {
	ApplicationsByStatus map[model.ApplicationStatus]int64 `json:"applications_by_status"`
	TotalApplications    int64                             `json:"total_applications"`
	PendingRefunds       int64                             `json:"pending_refunds"`
	OpenTickets          int64                             `json:"open_tickets"`
	TotalRevenue         decimal.Decimal                   `json:"total_revenue"`
}
