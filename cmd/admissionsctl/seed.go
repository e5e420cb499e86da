package main

import (
	"admissions-portal/internal/catalog"
	"admissions-portal/internal/client"
	"admissions-portal/internal/repository"
	"fmt"

	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load universities and document types",
		Long: `Seed inserts the reference universities and document types. Universities that
already exist are skipped; document types are updated in place by code.`,
		RunE: runSeed,
	}

	cmd.Flags().Bool("migrate", true, "Migrate the schema before seeding")

	return cmd
}

func runSeed(cmd *cobra.Command, _ []string) error {
	migrate, _ := cmd.Flags().GetBool("migrate")

	db, closeDB, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB()

	if migrate {
		if err := client.Migrate(db); err != nil {
			return err
		}
	}

	err = catalog.Seed(cmd.Context(),
		repository.NewUniversityRepository(db),
		repository.NewDocumentRepository(db),
	)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Seeded %d universities and %d document types\n",
		len(catalog.Universities()), len(catalog.DocumentTypes()))
	return nil
}
