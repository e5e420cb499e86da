package main

import (
	"admissions-portal/internal/client"
	"admissions-portal/internal/repository"
	"admissions-portal/internal/verification"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <application-id>",
		Short: "Run verification for one application now",
		Long: `Verify scores a submitted application synchronously and prints the stored
report. Use it to retry a run that failed or to inspect scoring for a single
application.`,
		Args: cobra.ExactArgs(1),
		RunE: runVerify,
	}

	cmd.Flags().Bool("deterministic", false, "Skip generative scoring even when it is configured")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	deterministic, _ := cmd.Flags().GetBool("deterministic")

	db, closeDB, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	var backend verification.Backend
	if gemini := client.NewGeminiClient(&cfg.Gemini); gemini.Configured() && !deterministic {
		backend = gemini
	}

	verifier := verification.NewVerifier(
		repository.NewApplicationRepository(db),
		repository.NewDocumentRepository(db),
		repository.NewUniversityRepository(db),
		backend, nil, logger,
	)

	report, err := verifier.Run(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("verify %s: %w", args[0], err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
