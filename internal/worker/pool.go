// Package worker runs verification off the request path: an in-process pool, an optional
// Kafka-backed queue in front of it, and a cron sweeper that recovers lost or stuck runs.
package worker

import (
	"admissions-portal/internal/metrics"
	"admissions-portal/internal/model"
	"admissions-portal/internal/verification"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrQueueFull  = errors.New("verification queue is full")
	ErrPoolClosed = errors.New("verification pool is closed")
)

// Dispatcher hands an application to background verification without waiting for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, applicationID string) error
}

type Result struct {
	ApplicationID string
	Report        *model.VerificationReport
	Err           error
}

type job struct {
	applicationID string
	done          chan Result
}

// Pool executes verification runs on a fixed number of goroutines fed by a bounded queue.
type Pool struct {
	verifier verification.Verifier
	workers  int
	jobs     chan job
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewPool(verifier verification.Verifier, workers, queueSize int, m *metrics.Metrics, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		verifier: verifier,
		workers:  workers,
		jobs:     make(chan job, queueSize),
		metrics:  m,
		logger:   logger.With(slog.String("component", "verification-pool")),
	}
}

// Start launches the workers. Runs use ctx, not the context of whoever submitted them.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.metrics.SetQueued(len(p.jobs))
				j.done <- p.run(ctx, j.applicationID)
				close(j.done)
			}
		}()
	}
}

// Submit queues a run and returns a channel that receives its result once.
// Callers that do not care about the outcome may drop the channel.
func (p *Pool) Submit(applicationID string) (<-chan Result, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}

	done := make(chan Result, 1)
	select {
	case p.jobs <- job{applicationID: applicationID, done: done}:
		p.metrics.SetQueued(len(p.jobs))
		return done, nil
	default:
		return nil, ErrQueueFull
	}
}

func (p *Pool) Dispatch(ctx context.Context, applicationID string) error {
	_, err := p.Submit(applicationID)
	return err
}

// Stop refuses new work and waits for queued runs to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, applicationID string) (res Result) {
	res.ApplicationID = applicationID
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("verification worker panicked: %v", r)
			p.logger.Error("worker panic", slog.String("application_id", applicationID), slog.Any("panic", r))
		}
	}()

	res.Report, res.Err = p.verifier.Run(ctx, applicationID)
	if res.Err != nil {
		p.logger.WarnContext(ctx, "verification run failed",
			slog.String("application_id", applicationID),
			slog.String("error", res.Err.Error()),
		)
	}
	return res
}
