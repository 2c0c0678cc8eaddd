package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/jonathan/candidate-ranker/internal/expansion"
	"github.com/jonathan/candidate-ranker/internal/observability"
	"github.com/jonathan/candidate-ranker/internal/pipeline"
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Print the LLM paraphrases of a job description",
	Args:  cobra.NoArgs,
	RunE:  runExpand,
}

var (
	expandJD     string
	expandJDFile string
	expandJDURL  string
	expandCount  int
	expandJSON   bool
)

func init() {
	expandCmd.Flags().StringVar(&expandJD, "jd", "", "Job description text")
	expandCmd.Flags().StringVar(&expandJDFile, "jd-file", "", "Path to a job description text file")
	expandCmd.Flags().StringVar(&expandJDURL, "jd-url", "", "URL of a job posting")
	expandCmd.Flags().IntVarP(&expandCount, "count", "n", 0, "Number of paraphrases (defaults to the configured variant count)")
	expandCmd.Flags().BoolVar(&expandJSON, "json", false, "Print the variants as JSON")

	expandCmd.MarkFlagsMutuallyExclusive("jd", "jd-file", "jd-url")
	expandCmd.MarkFlagsOneRequired("jd", "jd-file", "jd-url")

	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, _ []string) error {
	count := cfg.Ranking.VariantCount
	if cmd.Flags().Changed("count") {
		count = expandCount
	}

	jd, err := pipeline.ResolveJobDescription(cmd.Context(), pipeline.RunOptions{
		JobDescription: expandJD,
		JobPath:        expandJDFile,
		JobURL:         expandJDURL,
	}, cfg)
	if err != nil {
		return err
	}

	expander := expansion.New(nil)
	if count > 0 {
		collab, err := newCollaborators(cmd, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = collab.Close() }()
		expander = expansion.New(collab.Client)
	}

	variants, err := expander.Expand(cmd.Context(), jd, count)
	if err != nil {
		return err
	}

	if expandJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(variants)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintVariants(variants)
	return nil
}
