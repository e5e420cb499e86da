package worker

import (
	"admissions-portal/internal/repository"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const interruptedReason = "verification interrupted"

type SweepResult struct {
	Interrupted  int64
	Redispatched int
}

// Sweeper recovers verification work lost to restarts: runs stuck in processing are failed and
// submitted applications that were never verified are dispatched again.
type Sweeper struct {
	appRepo    repository.ApplicationRepository
	dispatcher Dispatcher
	staleAfter time.Duration
	batch      int
	logger     *slog.Logger
	cron       *cron.Cron
	now        func() time.Time
}

func NewSweeper(appRepo repository.ApplicationRepository, dispatcher Dispatcher, staleAfter time.Duration, batch int, logger *slog.Logger) *Sweeper {
	if batch <= 0 {
		batch = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		appRepo:    appRepo,
		dispatcher: dispatcher,
		staleAfter: staleAfter,
		batch:      batch,
		logger:     logger.With(slog.String("component", "verification-sweeper")),
		now:        time.Now,
	}
}

// Start schedules Sweep with a cron spec such as "@every 1m".
func (s *Sweeper) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			s.logger.Error("verification sweep failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule sweeper %q: %w", schedule, err)
	}

	s.cron = c
	c.Start()
	s.logger.Info("verification sweeper started", slog.String("schedule", schedule))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	cutoff := s.now().Add(-s.staleAfter)

	n, err := s.appRepo.FailStaleVerifications(ctx, cutoff, interruptedReason)
	if err != nil {
		return res, fmt.Errorf("fail stale verifications: %w", err)
	}
	res.Interrupted = n

	ids, err := s.appRepo.FindAwaitingVerification(ctx, cutoff, s.batch)
	if err != nil {
		return res, fmt.Errorf("find unverified applications: %w", err)
	}
	for _, id := range ids {
		if err := s.dispatcher.Dispatch(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "redispatch verification",
				slog.String("application_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		res.Redispatched++
	}

	if res.Interrupted > 0 || res.Redispatched > 0 {
		s.logger.InfoContext(ctx, "verification sweep",
			slog.Int64("interrupted", res.Interrupted),
			slog.Int("redispatched", res.Redispatched),
		)
	}
	return res, nil
}
