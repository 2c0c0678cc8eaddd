package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-ranker/internal/observability"
	"github.com/jonathan/candidate-ranker/internal/pipeline"
	"github.com/jonathan/candidate-ranker/internal/schemas"
	schemafiles "github.com/jonathan/candidate-ranker/schemas"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank a candidate pool against a job description",
	Long: `Rank reads the job description from --jd, --jd-file or --jd-url and the pool
from --candidates (a JSON, JSONL or text file, or a directory of them) or from
the database with --from-db. Flags override the config file.`,
	Args: cobra.NoArgs,
	RunE: runRank,
}

var (
	rankJD         string
	rankJDFile     string
	rankJDURL      string
	rankCandidates string
	rankFromDB     bool
	rankTopN       int
	rankThreshold  float64
	rankVariants   int
	rankOut        string
	rankJSON       bool
	rankUseBrowser bool
)

func init() {
	rankCmd.Flags().StringVar(&rankJD, "jd", "", "Job description text")
	rankCmd.Flags().StringVar(&rankJDFile, "jd-file", "", "Path to a job description text file")
	rankCmd.Flags().StringVar(&rankJDURL, "jd-url", "", "URL of a job posting")
	rankCmd.Flags().StringVarP(&rankCandidates, "candidates", "c", "", "Candidate file or directory")
	rankCmd.Flags().BoolVar(&rankFromDB, "from-db", false, "Load candidates from DATABASE_URL")
	rankCmd.Flags().IntVar(&rankTopN, "top-n", 0, "Number of candidates to return")
	rankCmd.Flags().Float64Var(&rankThreshold, "threshold", 0, "Absolute raw-score threshold")
	rankCmd.Flags().IntVar(&rankVariants, "variants", 0, "Number of LLM paraphrases of the job description")
	rankCmd.Flags().StringVarP(&rankOut, "out", "o", "", "Write the ranking as JSON to this file")
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "Print the result as JSON instead of a table")
	rankCmd.Flags().BoolVar(&rankUseBrowser, "use-browser", false, "Render --jd-url in headless Chrome when the static page is too thin")

	rankCmd.MarkFlagsMutuallyExclusive("jd", "jd-file", "jd-url")
	rankCmd.MarkFlagsOneRequired("jd", "jd-file", "jd-url")
	rankCmd.MarkFlagsMutuallyExclusive("candidates", "from-db")
	rankCmd.MarkFlagsOneRequired("candidates", "from-db")

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if flags.Changed("top-n") {
		cfg.Ranking.TopN = rankTopN
	}
	if flags.Changed("threshold") {
		cfg.Ranking.AbsoluteThreshold = rankThreshold
	}
	if flags.Changed("variants") {
		cfg.Ranking.VariantCount = rankVariants
	}
	if rankUseBrowser {
		cfg.Fetch.UseBrowser = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := pipeline.RunOptions{
		JobDescription: rankJD,
		JobPath:        rankJDFile,
		JobURL:         rankJDURL,
		CandidatesPath: rankCandidates,
		FromDB:         rankFromDB,
		Config:         cfg,
	}
	collab, err := newCollaborators(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = collab.Close() }()
	opts.Collaborators = collab

	printer := observability.NewPrinter(cmd.OutOrStdout())
	if verbose {
		opts.Printer = observability.NewPrinter(cmd.ErrOrStderr())
	}

	result, err := pipeline.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	if rankOut != "" {
		if err := writeRanking(rankOut, result); err != nil {
			return err
		}
	}
	if rankJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	if !verbose {
		printer.PrintRanking(result.Ranking)
	}
	return nil
}

// writeRanking writes the ranking as indented JSON after checking it
// against the published schema.
func writeRanking(path string, result *pipeline.Result) error {
	data, err := json.MarshalIndent(result.Ranking, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ranking: %w", err)
	}
	if err := schemas.Validate(schemafiles.Ranking, string(data)); err != nil {
		return fmt.Errorf("ranking failed schema validation: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ranking: %w", err)
	}
	return nil
}
