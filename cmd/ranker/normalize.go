package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Print the normalized form of a text as the lexical scorers see it",
	Long: `Normalize lowercases, strips punctuation, drops stopwords and stems the
text in file, or standard input when no file is given. With --terms it
prints one scoring term per line instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNormalize,
}

var normalizeTerms bool

func init() {
	normalizeCmd.Flags().BoolVar(&normalizeTerms, "terms", false, "Print one term per line")
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	normalizer, err := cfg.Ranking.Normalizer()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if normalizeTerms {
		terms := normalizer.Terms(string(data))
		if len(terms) > 0 {
			fmt.Fprintln(out, strings.Join(terms, "\n"))
		}
		return nil
	}
	fmt.Fprintln(out, normalizer.Normalize(string(data)))
	return nil
}
