// Package observability provides verbose CLI output and Prometheus metrics
// for ranking runs.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/candidate-ranker/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxVariantChars bounds how much of each variant is shown
	maxVariantChars = 200
)

// metadata keys shown on candidate cards, in display order
var cardFields = []string{"Name", "Email", "Phone", "Job Title", "Experience", "Education", "resume_path"}

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintVariants shows the query variants used for scoring.
func (p *Printer) PrintVariants(variants []types.QueryVariant) {
	if len(variants) == 0 {
		return
	}

	var sb strings.Builder
	for _, v := range variants {
		label := fmt.Sprintf("Variant %d", v.Index)
		if v.Index == 0 {
			label = "Original"
		}
		fmt.Fprintf(&sb, "%s:\n", label)
		for _, line := range wrap(truncate(oneLine(v.Text), maxVariantChars), boxWidth-6) {
			fmt.Fprintf(&sb, "  %s\n", line)
		}
	}
	p.printBox(fmt.Sprintf("QUERY VARIANTS (%d)", len(variants)), sb.String())
}

// PrintRanking shows the match summary and one card per ranked candidate.
func (p *Printer) PrintRanking(ranking *types.Ranking) {
	if ranking == nil {
		return
	}

	var sb strings.Builder
	switch {
	case len(ranking.Candidates) == 0:
		sb.WriteString("No candidates to rank.\n")
	case ranking.WeakMatch:
		sb.WriteString("No strong resumes found, showing relative ranking of top candidates.\n")
	default:
		fmt.Fprintf(&sb, "Found %d strong resumes, showing relative ranking of top candidates.\n", ranking.FilteredCount)
	}
	fmt.Fprintf(&sb, "Pool: %d  Shown: %d\n", ranking.PoolSize, len(ranking.Candidates))

	for _, c := range ranking.Candidates {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "#%d  %s  score %.1f\n", c.Rank, candidateName(c.Document), c.Score)
		for _, key := range cardFields[1:] {
			if v := c.Document.Metadata[key]; v != "" {
				fmt.Fprintf(&sb, "    %-11s %s\n", key+":", v)
			}
		}
		fmt.Fprintf(&sb, "    semantic %.2f  lexical %.2f  overlap %.2f  raw %.1f\n",
			c.Normalized.Semantic, c.Normalized.Lexical, c.Normalized.Overlap, c.RawScore)
	}
	p.printBox("RANKED CANDIDATES", sb.String())
}

// PrintProgress prints one progress line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(stage string, fraction float64, message string) {
	fmt.Fprintf(p.out, "[%3.0f%%] %-11s %s\n", fraction*100, stage, message)
}

func candidateName(doc types.Document) string {
	if name := doc.Metadata["Name"]; name != "" {
		return name
	}
	return doc.ID
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

// wrap splits s into lines of at most width runes on word boundaries.
func wrap(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if utf8.RuneCountInString(line)+1+utf8.RuneCountInString(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
