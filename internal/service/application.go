package service

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/billing"
	"admissions-portal/internal/dto"
	"admissions-portal/internal/lifecycle"
	"admissions-portal/internal/metrics"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"admissions-portal/internal/verification"
	"admissions-portal/internal/worker"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type ApplicationService interface {
	Create(ctx context.Context, actor lifecycle.Actor, req *dto.CreateApplicationRequest) (*model.Application, error)
	Get(ctx context.Context, actor lifecycle.Actor, id string) (*model.Application, error)
	List(ctx context.Context, actor lifecycle.Actor, filter repository.ApplicationFilter) ([]*model.Application, int64, error)
	Update(ctx context.Context, actor lifecycle.Actor, id string, req *dto.UpdateApplicationRequest) (*model.Application, error)
	Delete(ctx context.Context, actor lifecycle.Actor, id string) error

	Submit(ctx context.Context, actor lifecycle.Actor, id string) (*model.Application, error)
	Withdraw(ctx context.Context, actor lifecycle.Actor, id string) (*model.Application, error)
	Verify(ctx context.Context, actor lifecycle.Actor, id, notes string) (*model.Application, error)
	RaiseIssue(ctx context.Context, actor lifecycle.Actor, id, issueText string) (*model.Application, error)
	MarkUnderReview(ctx context.Context, actor lifecycle.Actor, id, notes string) (*model.Application, error)
	RequestDocuments(ctx context.Context, actor lifecycle.Actor, id, notes string) (*model.Application, error)
	Approve(ctx context.Context, actor lifecycle.Actor, id, notes string) (*model.Application, error)
	Reject(ctx context.Context, actor lifecycle.Actor, id, reason string) (*model.Application, error)
	Review(ctx context.Context, actor lifecycle.Actor, id string, req *dto.ReviewRequest) (*model.Application, error)

	IssueDetails(ctx context.Context, actor lifecycle.Actor, id string) (*dto.IssueDetailsResponse, error)
	TriggerVerification(ctx context.Context, actor lifecycle.Actor, id string) (*model.VerificationReport, error)
}

type applicationServiceImpl struct {
	appRepo        repository.ApplicationRepository
	universityRepo repository.UniversityRepository
	paymentRepo    repository.PaymentRepository
	verifier       verification.Verifier
	dispatcher     worker.Dispatcher
	metrics        *metrics.Metrics
	logger         *slog.Logger
	now            func() time.Time
}

func NewApplicationService(
	appRepo repository.ApplicationRepository,
	universityRepo repository.UniversityRepository,
	paymentRepo repository.PaymentRepository,
	verifier verification.Verifier,
	dispatcher worker.Dispatcher,
	m *metrics.Metrics,
	logger *slog.Logger,
) ApplicationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &applicationServiceImpl{
		appRepo:        appRepo,
		universityRepo: universityRepo,
		paymentRepo:    paymentRepo,
		verifier:       verifier,
		dispatcher:     dispatcher,
		metrics:        m,
		logger:         logger.With(slog.String("component", "applications")),
		now:            time.Now,
	}
}

func (s *applicationServiceImpl) Create(ctx context.Context, actor lifecycle.Actor, req *dto.CreateApplicationRequest) (*model.Application, error) {
	if !actor.IsStudent() {
		return nil, apperr.Forbidden("only students can create applications")
	}

	program := strings.TrimSpace(req.ProgramName)
	if req.UniversityID == "" || program == "" {
		return nil, apperr.Validation("university_id and program_name are required")
	}

	university, err := s.universityRepo.FindByID(ctx, req.UniversityID)
	if err != nil {
		return nil, err
	}
	if !university.IsActive {
		return nil, apperr.Validation("university is not accepting applications")
	}

	app := &model.Application{
		ID:                   uuid.NewString(),
		StudentID:            actor.ID,
		UniversityID:         university.ID,
		ProgramName:          program,
		Intake:               strings.TrimSpace(req.Intake),
		ApplicationData:      req.ApplicationData,
		EligibilityCriteria:  req.EligibilityCriteria,
		Status:               model.StatusDraft,
		AIVerificationStatus: model.VerificationPending,
	}

	err = allocateNumber(ctx, s.now(), model.NewApplicationNumber, s.appRepo.NumberExists, func(number string) error {
		app.ApplicationNumber = number
		return s.appRepo.Create(ctx, nil, app)
	})
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.logger.InfoContext(ctx, "application created",
		slog.String("application_id", app.ID),
		slog.String("application_number", app.ApplicationNumber),
		slog.String("student_id", actor.ID),
	)
	return app, nil
}

func (s *applicationServiceImpl) Get(ctx context.Context, actor lifecycle.Actor, id string) (*model.Application, error) {
	app, err := s.appRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := canRead(actor, app.StudentID); err != nil {
		return nil, err
	}
	return viewFor(actor, app), nil
}

func (s *applicationServiceImpl) List(ctx context.Context, actor lifecycle.Actor, filter repository.ApplicationFilter) ([]*model.Application, int64, error) {
	switch {
	case actor.IsAdmin():
	case actor.IsStudent():
		filter.StudentID = actor.ID
	default:
		return nil, 0, apperr.Forbidden("access denied")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperr.Validation("unknown status " + string(filter.Status))
	}

	apps, total, err := s.appRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	for i, app := range apps {
		apps[i] = viewFor(actor, app)
	}
	return apps, total, nil
}

func (s *applicationServiceImpl) Update(ctx context.Context, actor lifecycle.Actor, id string, req *dto.UpdateApplicationRequest) (*model.Application, error) {
	app, err := s.appRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Check(app, lifecycle.TriggerUpdate, actor); err != nil {
		return nil, err
	}

	if req.ProgramName != nil {
		program := strings.TrimSpace(*req.ProgramName)
		if program == "" {
			return nil, apperr.Validation("program_name cannot be empty")
		}
		app.ProgramName = program
	}
	if req.Intake != nil {
		app.Intake = strings.TrimSpace(*req.Intake)
	}
	if req.ApplicationData != nil {
		app.ApplicationData = req.ApplicationData
	}
	if req.EligibilityCriteria != nil {
		app.EligibilityCriteria = req.EligibilityCriteria
	}

	if err := s.appRepo.UpdateDraft(ctx, app); err != nil {
		return nil, err
	}
	return viewFor(actor, app), nil
}

func (s *applicationServiceImpl) Delete(ctx context.Context, actor lifecycle.Actor, id string) error {
	app, err := s.appRepo.FindByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if err := lifecycle.Check(app, lifecycle.TriggerDelete, actor); err != nil {
		return err
	}
	return s.appRepo.DeleteDraft(ctx, id)
}

// Submit moves a draft to submitted and hands it to background verification.
// A failed hand-off is left to the sweeper.
func (s *applicationServiceImpl) Submit(ctx context.Context, actor lifecycle.Actor, id string) (*model.Application, error) {
	app, err := s.transition(ctx, actor, id, lifecycle.TriggerSubmit, lifecycle.Input{})
	if err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.Dispatch(context.WithoutCancel(ctx), app.ID); err != nil {
			s.logger.WarnContext(ctx, "dispatch verification",
				slog.String("application_id", app.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return app, nil
}

func (s *applicationServiceImpl) Withdraw(ctx context.Context, actor lifecycle.Actor, id string) (*model.Application, error) {
	return s.transition(ctx, actor, id, lifecycle.TriggerWithdraw, lifecycle.Input{})
}

func (s *applicationServiceImpl) Verify(ctx context.Context, actor lifecycle.Actor, id, notes string) (*model.Application, error) {
	return s.transition(ctx, actor, id, lifecycle.TriggerVerify, lifecycle.Input{Notes: notes})
}

func (s *applicationServiceImpl) RaiseIssue(ctx context.Context, actor lifecycle.Actor, id, issueText string) (*model.Application, error) {
	return s.transition(ctx, actor, id, lifecycle.TriggerRaiseIssue, lifecycle.Input{IssueText: issueText})
}

func (s *applicationServiceImpl) MarkUnderReview(ctx context.Context, actor lifecycle.Actor, id, notes string) (*model.Application, error) {
	return s.transition(ctx, actor, id, lifecycle.TriggerMarkUnderReview, lifecycle.Input{Notes: notes})
}

func (s *applicationServiceImpl) RequestDocuments(ctx context.Context, actor lifecycle.Actor, id, notes string) (*model.Application, error) {
	return s.transition(ctx, actor, id, lifecycle.TriggerRequestDocuments, lifecycle.Input{Notes: notes})
}

func (s *applicationServiceImpl) Approve(ctx context.Context, actor lifecycle.Actor, id, notes string) (*model.Application, error) {
	return s.transition(ctx, actor, id, lifecycle.TriggerApprove, lifecycle.Input{Notes: notes})
}

func (s *applicationServiceImpl) Reject(ctx context.Context, actor lifecycle.Actor, id, reason string) (*model.Application, error) {
	return s.transition(ctx, actor, id, lifecycle.TriggerReject, lifecycle.Input{Notes: reason})
}

// reviewTriggers maps the target status of an admin review to the trigger that reaches it.
var reviewTriggers = map[model.ApplicationStatus]lifecycle.Trigger{
	model.StatusVerified:         lifecycle.TriggerVerify,
	model.StatusIssueRaised:      lifecycle.TriggerRaiseIssue,
	model.StatusUnderReview:      lifecycle.TriggerMarkUnderReview,
	model.StatusDocumentsPending: lifecycle.TriggerRequestDocuments,
	model.StatusApproved:         lifecycle.TriggerApprove,
	model.StatusRejected:         lifecycle.TriggerReject,
}

func (s *applicationServiceImpl) Review(ctx context.Context, actor lifecycle.Actor, id string, req *dto.ReviewRequest) (*model.Application, error) {
	trigger, ok := reviewTriggers[req.Status]
	if !ok {
		return nil, apperr.Validation("status cannot be set by review: " + string(req.Status))
	}
	return s.transition(ctx, actor, id, trigger, lifecycle.Input{
		Notes:     req.ReviewNotes,
		IssueText: req.IssueDetails,
	})
}

func (s *applicationServiceImpl) transition(ctx context.Context, actor lifecycle.Actor, id string, trigger lifecycle.Trigger, in lifecycle.Input) (*model.Application, error) {
	app, err := s.appRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	from := app.Status
	in.Now = s.now()
	if err := lifecycle.Fire(app, trigger, actor, in); err != nil {
		s.metrics.RecordRejectedTransition(string(trigger), string(apperr.KindOf(err)))
		return nil, err
	}
	if err := s.appRepo.SaveTransition(ctx, nil, app, from); err != nil {
		s.metrics.RecordRejectedTransition(string(trigger), string(apperr.KindOf(err)))
		return nil, err
	}

	s.metrics.RecordTransition(string(trigger))
	s.logger.InfoContext(ctx, "application transition",
		slog.String("application_id", app.ID),
		slog.String("trigger", string(trigger)),
		slog.String("from", string(from)),
		slog.String("to", string(app.Status)),
		slog.String("actor", actor.ID),
	)
	return viewFor(actor, app), nil
}

// IssueDetails reveals the issue text once the matching issue-resolution fee has been paid.
func (s *applicationServiceImpl) IssueDetails(ctx context.Context, actor lifecycle.Actor, id string) (*dto.IssueDetailsResponse, error) {
	app, err := s.appRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := canRead(actor, app.StudentID); err != nil {
		return nil, err
	}
	if !app.HasIssue() {
		return nil, apperr.New(apperr.KindNoIssueRaised, "no issue raised for this application")
	}

	var issuePayment *model.Payment
	if app.IssuePaymentID != nil {
		issuePayment, err = s.paymentRepo.FindByID(ctx, nil, *app.IssuePaymentID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}

	if actor.IsAdmin() || billing.CanViewIssueDetails(app, issuePayment) {
		return &dto.IssueDetailsResponse{
			CanViewDetails:  true,
			IssueDetails:    *app.IssueDetails,
			IssueRaisedAt:   app.IssueRaisedAt,
			IssueResolvedAt: app.IssueResolvedAt,
		}, nil
	}

	return &dto.IssueDetailsResponse{
		CanViewDetails:  false,
		RequiresPayment: true,
		Message:         "Issue has been raised. Please pay the issue resolution fee to view detailed comments.",
		IssueRaisedAt:   app.IssueRaisedAt,
	}, nil
}

// TriggerVerification runs verification synchronously for an admin.
func (s *applicationServiceImpl) TriggerVerification(ctx context.Context, actor lifecycle.Actor, id string) (*model.VerificationReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.verifier.Run(ctx, id)
}

// viewFor withholds the issue text from students; it is only served by IssueDetails.
func viewFor(actor lifecycle.Actor, app *model.Application) *model.Application {
	if actor.IsAdmin() {
		return app
	}
	return app.Redacted()
}
