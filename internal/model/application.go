package model

import (
	"time"

	"gorm.io/datatypes"
)

type ApplicationStatus string

const (
	StatusDraft            ApplicationStatus = "draft"
	StatusSubmitted        ApplicationStatus = "submitted"
	StatusUnderReview      ApplicationStatus = "under_review"
	StatusDocumentsPending ApplicationStatus = "documents_pending"
	StatusVerified         ApplicationStatus = "verified"
	StatusIssueRaised      ApplicationStatus = "issue_raised"
	StatusPaymentReceived  ApplicationStatus = "payment_received"
	StatusApproved         ApplicationStatus = "approved"
	StatusRejected         ApplicationStatus = "rejected"
	StatusWithdrawn        ApplicationStatus = "withdrawn"
)

// AllStatuses is the closed set of application statuses.
var AllStatuses = []ApplicationStatus{
	StatusDraft,
	StatusSubmitted,
	StatusUnderReview,
	StatusDocumentsPending,
	StatusVerified,
	StatusIssueRaised,
	StatusPaymentReceived,
	StatusApproved,
	StatusRejected,
	StatusWithdrawn,
}

func (s ApplicationStatus) Valid() bool {
	for _, st := range AllStatuses {
		if st == s {
			return true
		}
	}
	return false
}

func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusWithdrawn
}

type VerificationStatus string

const (
	VerificationPending    VerificationStatus = "pending"
	VerificationProcessing VerificationStatus = "processing"
	VerificationCompleted  VerificationStatus = "completed"
	VerificationFailed     VerificationStatus = "failed"
)

type Application struct {
	ID                string            `gorm:"primaryKey;size:36;not null" json:"id"`
	ApplicationNumber string            `gorm:"size:32;uniqueIndex;not null" json:"application_number"`
	StudentID         string            `gorm:"size:64;index;not null" json:"student_id"`
	UniversityID      string            `gorm:"size:36;index;not null" json:"university_id"`
	ProgramName       string            `gorm:"size:255;not null" json:"program_name"`
	Intake            string            `gorm:"size:64" json:"intake,omitempty"`
	ApplicationData   datatypes.JSONMap `json:"application_data,omitempty"`
	Status            ApplicationStatus `gorm:"size:32;index;not null;default:draft" json:"status"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	DecisionAt  *time.Time `json:"decision_at,omitempty"`
	ReviewNotes string     `gorm:"type:text" json:"review_notes,omitempty"`
	ReviewedBy  string     `gorm:"size:64" json:"reviewed_by,omitempty"`

	IssueDetails    *string    `gorm:"type:text" json:"issue_details,omitempty"`
	IssueRaisedAt   *time.Time `json:"issue_raised_at,omitempty"`
	IssueResolvedAt *time.Time `json:"issue_resolved_at,omitempty"`
	IssuePaymentID  *string    `gorm:"size:36" json:"issue_payment_id,omitempty"`

	AIVerificationStatus    VerificationStatus  `gorm:"size:16;index;not null;default:pending" json:"ai_verification_status"`
	AIVerificationResult    *VerificationReport `gorm:"serializer:json" json:"ai_verification_result,omitempty"`
	AIVerificationFlags     []string            `gorm:"serializer:json" json:"ai_verification_flags,omitempty"`
	AIVerificationError     string              `gorm:"type:text" json:"ai_verification_error,omitempty"`
	AIVerificationStartedAt *time.Time          `json:"-"`
	AIVerifiedAt            *time.Time          `json:"ai_verified_at,omitempty"`

	EligibilityCriteria datatypes.JSONMap `json:"eligibility_criteria,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasIssue reports whether an admin has raised an issue on the application.
func (a *Application) HasIssue() bool {
	return a.IssueDetails != nil && *a.IssueDetails != ""
}

// Redacted returns a copy with the issue text withheld.
func (a *Application) Redacted() *Application {
	cp := *a
	cp.IssueDetails = nil
	return &cp
}
