package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-ranker/internal/db"
	"github.com/jonathan/candidate-ranker/internal/ingestion"
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Load candidates from a file or directory into the database",
	Long: `Import parses resume records or plain documents from path and upserts them
into the candidates table of DATABASE_URL, creating the schema if needed.
Candidates with an existing ID are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for import")
	}
	ctx := cmd.Context()

	docs, err := ingestion.LoadDocuments(ctx, args[0], cfg.Workers)
	if err != nil {
		return err
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := database.UpsertCandidates(ctx, docs); err != nil {
		return err
	}

	total, err := database.CountCandidates(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d candidates (%d in database)\n", len(docs), total)
	return nil
}
