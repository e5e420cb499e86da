package lifecycle

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/model"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	student = Actor{ID: "stu-1", Role: RoleStudent}
	other   = Actor{ID: "stu-2", Role: RoleStudent}
	admin   = Actor{ID: "adm-1", Role: RoleAdmin}
)

var nonTerminal = []model.ApplicationStatus{
	model.StatusDraft,
	model.StatusSubmitted,
	model.StatusUnderReview,
	model.StatusDocumentsPending,
	model.StatusVerified,
	model.StatusIssueRaised,
	model.StatusPaymentReceived,
}

// legal is written out independently of the rules map so the two can be compared.
var legal = map[Trigger][]model.ApplicationStatus{
	TriggerSubmit:               {model.StatusDraft},
	TriggerVerify:               {model.StatusDraft, model.StatusSubmitted, model.StatusUnderReview},
	TriggerRaiseIssue:           {model.StatusDraft, model.StatusSubmitted, model.StatusUnderReview, model.StatusVerified},
	TriggerMarkUnderReview:      nonTerminal,
	TriggerRequestDocuments:     {model.StatusSubmitted, model.StatusUnderReview, model.StatusVerified},
	TriggerSettleApplicationFee: {model.StatusVerified},
	TriggerSettleIssueFee:       {model.StatusIssueRaised},
	TriggerApprove:              {model.StatusPaymentReceived},
	TriggerReject:               {model.StatusDraft, model.StatusSubmitted, model.StatusUnderReview, model.StatusVerified, model.StatusPaymentReceived},
	TriggerWithdraw:             nonTerminal,
	TriggerUpdate:               {model.StatusDraft},
	TriggerDelete:               {model.StatusDraft},
}

func actorFor(t Trigger) Actor {
	switch rules[t].driver {
	case byAdmin:
		return admin
	case bySystem:
		return System()
	}
	return student
}

func validInput() Input {
	return Input{Notes: "reason", IssueText: "missing transcript", PaymentID: "pay-1", Now: time.Now()}
}

func contains(list []model.ApplicationStatus, s model.ApplicationStatus) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

func TestEveryTriggerStatusPair(t *testing.T) {
	for _, trigger := range AllTriggers {
		for _, from := range model.AllStatuses {
			app := &model.Application{ID: "a1", StudentID: student.ID, Status: from}
			err := Fire(app, trigger, actorFor(trigger), validInput())

			if contains(legal[trigger], from) {
				require.NoError(t, err, "%s from %s", trigger, from)
				if to := Target(trigger); to != "" {
					assert.Equal(t, to, app.Status)
				} else {
					assert.Equal(t, from, app.Status)
				}
				continue
			}

			require.Error(t, err, "%s from %s", trigger, from)
			assert.True(t, errors.Is(err, apperr.ErrInvalidTransition), "%s from %s: %v", trigger, from, err)
			assert.Equal(t, from, app.Status, "status must not change")
		}
	}
}

func TestActorCheckPrecedesStateCheck(t *testing.T) {
	app := &model.Application{StudentID: student.ID, Status: model.StatusApproved}

	err := Fire(app, TriggerApprove, student, validInput())
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	err = Fire(app, TriggerWithdraw, other, validInput())
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	err = Fire(app, TriggerSubmit, admin, validInput())
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
}

func TestSettlementIsSystemOnly(t *testing.T) {
	app := &model.Application{StudentID: student.ID, Status: model.StatusVerified}

	for _, a := range []Actor{student, admin} {
		err := Fire(app, TriggerSettleApplicationFee, a, Input{})
		assert.True(t, errors.Is(err, apperr.ErrForbidden))
	}
	assert.Equal(t, model.StatusVerified, app.Status)
}

func TestSuperAdminCountsAsAdmin(t *testing.T) {
	app := &model.Application{StudentID: student.ID, Status: model.StatusSubmitted}
	err := Fire(app, TriggerVerify, Actor{ID: "root", Role: RoleSuperAdmin}, Input{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, app.Status)
	assert.Equal(t, "root", app.ReviewedBy)
	assert.NotNil(t, app.ReviewedAt)
}

func TestRejectRequiresReason(t *testing.T) {
	app := &model.Application{StudentID: student.ID, Status: model.StatusSubmitted}

	err := Fire(app, TriggerReject, admin, Input{Notes: "   "})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, model.StatusSubmitted, app.Status)
	assert.Nil(t, app.DecisionAt)

	require.NoError(t, Fire(app, TriggerReject, admin, Input{Notes: "incomplete transcript"}))
	assert.Equal(t, model.StatusRejected, app.Status)
	assert.Equal(t, "incomplete transcript", app.ReviewNotes)
	assert.NotNil(t, app.DecisionAt)
}

func TestRaiseIssueRequiresText(t *testing.T) {
	app := &model.Application{StudentID: student.ID, Status: model.StatusVerified}

	err := Fire(app, TriggerRaiseIssue, admin, Input{})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Nil(t, app.IssueDetails)
	assert.Equal(t, model.StatusVerified, app.Status)
}

func TestIssueCycle(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	oldPayment := "pay-old"
	app := &model.Application{StudentID: student.ID, Status: model.StatusVerified, IssuePaymentID: &oldPayment}

	require.NoError(t, Fire(app, TriggerRaiseIssue, admin, Input{IssueText: " missing transcript ", Now: now}))
	assert.Equal(t, model.StatusIssueRaised, app.Status)
	assert.Equal(t, "missing transcript", *app.IssueDetails)
	assert.Equal(t, now, *app.IssueRaisedAt)
	assert.Nil(t, app.IssuePaymentID, "a new issue starts a new payment cycle")
	assert.Nil(t, app.IssueResolvedAt)

	later := now.Add(time.Hour)
	require.NoError(t, Fire(app, TriggerSettleIssueFee, System(), Input{PaymentID: "pay-new", Now: later}))
	assert.Equal(t, model.StatusUnderReview, app.Status)
	assert.Equal(t, "pay-new", *app.IssuePaymentID)
	assert.Equal(t, later, *app.IssueResolvedAt)
	assert.Equal(t, "missing transcript", *app.IssueDetails)
}

func TestSubmitSetsTimestamp(t *testing.T) {
	app := &model.Application{StudentID: student.ID, Status: model.StatusDraft}
	require.NoError(t, Fire(app, TriggerSubmit, student, Input{}))
	assert.NotNil(t, app.SubmittedAt)
}

func TestTerminalStatesAcceptNothing(t *testing.T) {
	for _, terminal := range []model.ApplicationStatus{model.StatusApproved, model.StatusRejected, model.StatusWithdrawn} {
		for _, trigger := range AllTriggers {
			assert.False(t, Allowed(trigger, terminal), "%s from %s", trigger, terminal)
		}
	}
}

func TestUnknownStatusIsInvalid(t *testing.T) {
	app := &model.Application{StudentID: student.ID, Status: "archived"}
	err := Fire(app, TriggerWithdraw, student, Input{})
	assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))
}
