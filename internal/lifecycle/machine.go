// Package lifecycle holds the application status machine: which triggers exist, who may fire them,
// from which statuses, and what each one records on the application.
package lifecycle

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/model"
	"strings"
	"time"
)

type Trigger string

const (
	TriggerSubmit               Trigger = "submit"
	TriggerVerify               Trigger = "verify"
	TriggerRaiseIssue           Trigger = "raise_issue"
	TriggerMarkUnderReview      Trigger = "mark_under_review"
	TriggerRequestDocuments     Trigger = "request_documents"
	TriggerSettleApplicationFee Trigger = "settle_application_fee"
	TriggerSettleIssueFee       Trigger = "settle_issue_fee"
	TriggerApprove              Trigger = "approve"
	TriggerReject               Trigger = "reject"
	TriggerWithdraw             Trigger = "withdraw"
	TriggerUpdate               Trigger = "update"
	TriggerDelete               Trigger = "delete"
)

// AllTriggers lists every trigger the machine knows.
var AllTriggers = []Trigger{
	TriggerSubmit,
	TriggerVerify,
	TriggerRaiseIssue,
	TriggerMarkUnderReview,
	TriggerRequestDocuments,
	TriggerSettleApplicationFee,
	TriggerSettleIssueFee,
	TriggerApprove,
	TriggerReject,
	TriggerWithdraw,
	TriggerUpdate,
	TriggerDelete,
}

type driver int

const (
	byOwner driver = iota
	byAdmin
	bySystem
)

type rule struct {
	driver driver
	// from == nil means any non-terminal status.
	from []model.ApplicationStatus
	// to == "" leaves the status unchanged.
	to model.ApplicationStatus
}

var rules = map[Trigger]rule{
	TriggerSubmit: {
		driver: byOwner,
		from:   []model.ApplicationStatus{model.StatusDraft},
		to:     model.StatusSubmitted,
	},
	TriggerVerify: {
		driver: byAdmin,
		from:   []model.ApplicationStatus{model.StatusDraft, model.StatusSubmitted, model.StatusUnderReview},
		to:     model.StatusVerified,
	},
	TriggerRaiseIssue: {
		driver: byAdmin,
		from:   []model.ApplicationStatus{model.StatusDraft, model.StatusSubmitted, model.StatusUnderReview, model.StatusVerified},
		to:     model.StatusIssueRaised,
	},
	TriggerMarkUnderReview: {
		driver: byAdmin,
		to:     model.StatusUnderReview,
	},
	TriggerRequestDocuments: {
		driver: byAdmin,
		from:   []model.ApplicationStatus{model.StatusSubmitted, model.StatusUnderReview, model.StatusVerified},
		to:     model.StatusDocumentsPending,
	},
	TriggerSettleApplicationFee: {
		driver: bySystem,
		from:   []model.ApplicationStatus{model.StatusVerified},
		to:     model.StatusPaymentReceived,
	},
	TriggerSettleIssueFee: {
		driver: bySystem,
		from:   []model.ApplicationStatus{model.StatusIssueRaised},
		to:     model.StatusUnderReview,
	},
	TriggerApprove: {
		driver: byAdmin,
		from:   []model.ApplicationStatus{model.StatusPaymentReceived},
		to:     model.StatusApproved,
	},
	TriggerReject: {
		driver: byAdmin,
		from:   []model.ApplicationStatus{model.StatusDraft, model.StatusSubmitted, model.StatusUnderReview, model.StatusVerified, model.StatusPaymentReceived},
		to:     model.StatusRejected,
	},
	TriggerWithdraw: {
		driver: byOwner,
		to:     model.StatusWithdrawn,
	},
	TriggerUpdate: {
		driver: byOwner,
		from:   []model.ApplicationStatus{model.StatusDraft},
	},
	TriggerDelete: {
		driver: byOwner,
		from:   []model.ApplicationStatus{model.StatusDraft},
	},
}

// Input carries the per-trigger data recorded on the application.
type Input struct {
	Notes     string
	IssueText string
	PaymentID string
	Now       time.Time
}

// Allowed reports whether trigger may fire from status, ignoring the actor.
func Allowed(trigger Trigger, from model.ApplicationStatus) bool {
	r, ok := rules[trigger]
	if !ok || !from.Valid() {
		return false
	}
	if r.from == nil {
		return !from.IsTerminal()
	}
	for _, s := range r.from {
		if s == from {
			return true
		}
	}
	return false
}

// Target returns the status a trigger leads to, or "" when it leaves the status unchanged.
func Target(trigger Trigger) model.ApplicationStatus {
	return rules[trigger].to
}

// Check runs the actor and state checks without mutating the application.
func Check(app *model.Application, trigger Trigger, actor Actor) error {
	r, ok := rules[trigger]
	if !ok {
		return apperr.Validation("unknown trigger " + string(trigger))
	}

	switch r.driver {
	case byOwner:
		if !actor.Owns(app.StudentID) {
			return apperr.Forbidden("only the owning student can " + humanize(trigger))
		}
	case byAdmin:
		if !actor.IsAdmin() {
			return apperr.Forbidden("only an admin can " + humanize(trigger))
		}
	case bySystem:
		if actor.Role != RoleSystem {
			return apperr.Forbidden(humanize(trigger) + " is driven by payment settlement")
		}
	}

	if !Allowed(trigger, app.Status) {
		return apperr.InvalidTransition(humanize(trigger), string(app.Status))
	}
	return nil
}

// Fire applies trigger to app. On error the application is left untouched.
func Fire(app *model.Application, trigger Trigger, actor Actor, in Input) error {
	if err := Check(app, trigger, actor); err != nil {
		return err
	}

	notes := strings.TrimSpace(in.Notes)
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	switch trigger {
	case TriggerRaiseIssue:
		text := strings.TrimSpace(in.IssueText)
		if text == "" {
			return apperr.Validation("issue details are required")
		}
		app.IssueDetails = &text
		app.IssueRaisedAt = &now
		app.IssueResolvedAt = nil
		app.IssuePaymentID = nil
		app.ReviewedBy = actor.ID
		app.ReviewedAt = &now
	case TriggerReject:
		if notes == "" {
			return apperr.Validation("a rejection reason is required")
		}
		app.ReviewNotes = notes
		app.DecisionAt = &now
		app.ReviewedBy = actor.ID
	case TriggerSubmit:
		app.SubmittedAt = &now
	case TriggerVerify, TriggerMarkUnderReview, TriggerRequestDocuments:
		app.ReviewedAt = &now
		app.ReviewedBy = actor.ID
		if notes != "" {
			app.ReviewNotes = notes
		}
	case TriggerApprove:
		app.DecisionAt = &now
		app.ReviewedBy = actor.ID
		if notes != "" {
			app.ReviewNotes = notes
		}
	case TriggerSettleIssueFee:
		app.IssueResolvedAt = &now
		if in.PaymentID != "" {
			id := in.PaymentID
			app.IssuePaymentID = &id
		}
	}

	if to := rules[trigger].to; to != "" {
		app.Status = to
	}
	return nil
}

func humanize(t Trigger) string {
	return strings.ReplaceAll(string(t), "_", " ")
}
