package main

import (
	"admissions-portal/internal/client"
	"admissions-portal/internal/repository"
	"admissions-portal/internal/verification"
	"admissions-portal/internal/worker"
	"fmt"

	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Recover interrupted and missed verification runs once",
		Long: `Sweep fails verification runs that have been processing for longer than
VERIFICATION_STALE_AFTER and dispatches submitted applications that were never
verified. Without Kafka the dispatched runs execute in this process before it exits.`,
		RunE: runSweep,
	}

	return cmd
}

func runSweep(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	db, closeDB, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	appRepo := repository.NewApplicationRepository(db)

	var backend verification.Backend
	if gemini := client.NewGeminiClient(&cfg.Gemini); gemini.Configured() {
		backend = gemini
	}
	verifier := verification.NewVerifier(
		appRepo,
		repository.NewDocumentRepository(db),
		repository.NewUniversityRepository(db),
		backend, nil, logger,
	)

	var dispatcher worker.Dispatcher
	if cfg.Kafka.Enabled() {
		kafkaDispatcher := worker.NewKafkaDispatcher(cfg.Kafka)
		defer kafkaDispatcher.Close()
		dispatcher = kafkaDispatcher
	} else {
		pool := worker.NewPool(verifier, cfg.Verification.Workers, cfg.Verification.QueueSize, nil, logger)
		pool.Start(ctx)
		// Stop drains queued runs before returning.
		defer pool.Stop()
		dispatcher = pool
	}

	sweeper := worker.NewSweeper(appRepo, dispatcher, cfg.Verification.StaleAfter, cfg.Verification.SweepBatch, logger)
	res, err := sweeper.Sweep(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("interrupted: %d, redispatched: %d\n", res.Interrupted, res.Redispatched)
	return nil
}
