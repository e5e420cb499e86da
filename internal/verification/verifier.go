package verification

import (
	"admissions-portal/internal/apperr"
	"admissions-portal/internal/metrics"
	"admissions-portal/internal/model"
	"admissions-portal/internal/repository"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Verifier runs verification for stored applications.
type Verifier interface {
	Run(ctx context.Context, applicationID string) (*model.VerificationReport, error)
}

type verifierImpl struct {
	appRepo        repository.ApplicationRepository
	documentRepo   repository.DocumentRepository
	universityRepo repository.UniversityRepository
	backend        Backend
	breaker        *gobreaker.CircuitBreaker
	metrics        *metrics.Metrics
	logger         *slog.Logger
	now            func() time.Time
}

// NewVerifier builds a Verifier. backend may be nil, in which case every run uses Score.
func NewVerifier(
	appRepo repository.ApplicationRepository,
	documentRepo repository.DocumentRepository,
	universityRepo repository.UniversityRepository,
	backend Backend,
	m *metrics.Metrics,
	logger *slog.Logger,
) Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &verifierImpl{
		appRepo:        appRepo,
		documentRepo:   documentRepo,
		universityRepo: universityRepo,
		backend:        backend,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "generative-scoring",
			MaxRequests: 1,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		metrics: m,
		logger:  logger.With(slog.String("component", "verifier")),
		now:     time.Now,
	}
}

// Run claims the application, scores it and stores the report.
// A second Run while one is in progress fails with a conflict error.
func (v *verifierImpl) Run(ctx context.Context, applicationID string) (report *model.VerificationReport, err error) {
	start := v.now()

	claimed, err := v.appRepo.BeginVerification(ctx, applicationID, start)
	if err != nil {
		return nil, fmt.Errorf("claim verification: %w", err)
	}
	if !claimed {
		if _, err := v.appRepo.FindByID(ctx, nil, applicationID); err != nil {
			return nil, err
		}
		return nil, apperr.New(apperr.KindConflict, "verification already running")
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("verification panicked: %v", r)
			v.fail(ctx, applicationID, err, start)
			report = nil
		}
	}()

	report, err = v.assess(ctx, applicationID)
	if err != nil {
		v.fail(ctx, applicationID, err, start)
		return nil, err
	}

	if err := v.appRepo.CompleteVerification(ctx, applicationID, report, v.now()); err != nil {
		err = fmt.Errorf("store verification result: %w", err)
		v.fail(ctx, applicationID, err, start)
		return nil, err
	}

	v.metrics.RecordVerification(report.Source, string(model.VerificationCompleted), v.now().Sub(start))
	v.logger.InfoContext(ctx, "verification completed",
		slog.String("application_id", applicationID),
		slog.String("source", report.Source),
		slog.Int("score", report.OverallScore),
		slog.String("recommendation", string(report.OverallRecommendation)),
		slog.Int("flags", len(report.Flags)),
	)

	return report, nil
}

func (v *verifierImpl) assess(ctx context.Context, applicationID string) (*model.VerificationReport, error) {
	app, err := v.appRepo.FindByID(ctx, nil, applicationID)
	if err != nil {
		return nil, fmt.Errorf("load application: %w", err)
	}

	docs, err := v.documentRepo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	if v.backend == nil {
		return Score(app, docs, v.now()), nil
	}

	university, err := v.universityRepo.FindByID(ctx, app.UniversityID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("load university: %w", err)
	}

	subject := NewSubject(app, docs, university)
	out, err := v.breaker.Execute(func() (interface{}, error) {
		return Compose(ctx, v.backend, subject, Criteria(app, university), v.now())
	})
	if err == nil {
		return out.(*model.VerificationReport), nil
	}

	v.logger.WarnContext(ctx, "generative scoring unavailable, using deterministic report",
		slog.String("application_id", applicationID),
		slog.String("error", apperr.Wrap(apperr.KindScoringUnavailable, "scoring backend", err).Error()),
	)
	return Score(app, docs, v.now()), nil
}

func (v *verifierImpl) fail(ctx context.Context, applicationID string, cause error, start time.Time) {
	v.metrics.RecordVerification("none", string(model.VerificationFailed), v.now().Sub(start))
	v.logger.ErrorContext(ctx, "verification failed",
		slog.String("application_id", applicationID),
		slog.String("error", cause.Error()),
	)

	if err := v.appRepo.FailVerification(context.WithoutCancel(ctx), applicationID, cause.Error()); err != nil {
		v.logger.ErrorContext(ctx, "record verification failure",
			slog.String("application_id", applicationID),
			slog.String("error", err.Error()),
		)
	}
}
