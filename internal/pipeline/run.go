// Package pipeline wires a ranking run end to end: it resolves the job
// description and the candidate pool, builds the collaborators and runs the
// ranking engine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/candidate-ranker/internal/config"
	"github.com/jonathan/candidate-ranker/internal/db"
	"github.com/jonathan/candidate-ranker/internal/embedcache"
	"github.com/jonathan/candidate-ranker/internal/expansion"
	"github.com/jonathan/candidate-ranker/internal/fetch"
	"github.com/jonathan/candidate-ranker/internal/ingestion"
	"github.com/jonathan/candidate-ranker/internal/observability"
	"github.com/jonathan/candidate-ranker/internal/ranking"
	"github.com/jonathan/candidate-ranker/internal/types"
)

// ErrNoJobDescription is returned when no JD source is set or the JD is blank.
var ErrNoJobDescription = errors.New("a job description is required")

// ErrNoCandidates is returned when no candidate source is set.
var ErrNoCandidates = errors.New("a candidate source is required")

// RunOptions holds configuration for one ranking run. Exactly one JD source
// and one candidate source must be set.
type RunOptions struct {
	JobDescription string
	JobPath        string
	JobURL         string

	Documents      []types.Document
	CandidatesPath string
	FromDB         bool

	Config *config.Config

	// Collaborators overrides the services built from Config.
	Collaborators *Collaborators
	Recorder      *observability.Metrics
	OnProgress    ranking.ProgressCallback
	// Printer receives verbose output when set.
	Printer *observability.Printer
}

// Result is the outcome of Run.
type Result struct {
	JobDescription string         `json:"job_description"`
	Ranking        *types.Ranking `json:"ranking"`
	Duration       time.Duration  `json:"duration_ns"`
}

// Run ranks the candidate pool against the job description.
func Run(ctx context.Context, opts RunOptions) (*Result, error) {
	start := time.Now()
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := slog.Default().With("component", "pipeline")

	if err := checkSources(opts); err != nil {
		return nil, err
	}

	var database *db.DB
	if opts.FromDB {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("candidates from database need DATABASE_URL")
		}
		var err error
		database, err = db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		defer database.Close()
	}

	// JD and pool are independent, resolve them together
	var jd string
	var docs []types.Document
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		jd, err = ResolveJobDescription(gCtx, opts, cfg)
		return err
	})
	g.Go(func() error {
		var err error
		docs, err = loadPool(gCtx, opts, cfg, database)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Info("resolved inputs", "jd_chars", len(jd), "pool", len(docs))

	if len(docs) == 0 && opts.Collaborators == nil {
		// nothing to score; skip building collaborators
		logger.Warn("candidate pool is empty")
		if opts.Recorder != nil {
			opts.Recorder.ObserveRun(ranking.OutcomeEmpty, time.Since(start), 0, 0, false)
		}
		empty := &types.Ranking{Candidates: []types.RankedCandidate{}}
		if opts.Printer != nil {
			opts.Printer.PrintRanking(empty)
		}
		return &Result{JobDescription: jd, Ranking: empty, Duration: time.Since(start)}, nil
	}

	collab := opts.Collaborators
	if collab == nil {
		var stats embedcache.LookupRecorder
		if opts.Recorder != nil {
			stats = opts.Recorder
		}
		var err error
		collab, err = NewCollaborators(ctx, cfg, stats)
		if err != nil {
			return nil, err
		}
		defer func() { _ = collab.Close() }()
	}

	engine, err := NewEngine(cfg, collab, opts)
	if err != nil {
		return nil, err
	}
	result, err := engine.Rank(ctx, jd, docs)
	if err != nil {
		return nil, err
	}
	if opts.Printer != nil {
		opts.Printer.PrintVariants(result.Variants)
		opts.Printer.PrintRanking(result)
	}

	return &Result{JobDescription: jd, Ranking: result, Duration: time.Since(start)}, nil
}

// NewEngine builds the ranking engine for cfg on top of collab.
func NewEngine(cfg *config.Config, collab *Collaborators, opts RunOptions) (*ranking.Engine, error) {
	normalizer, err := cfg.Ranking.Normalizer()
	if err != nil {
		return nil, err
	}

	engineOpts := []ranking.Option{
		ranking.WithParams(cfg.Ranking.Params()),
		ranking.WithNormalizer(normalizer),
	}
	if opts.Recorder != nil {
		engineOpts = append(engineOpts, ranking.WithRecorder(opts.Recorder))
	}
	if cb := progressFanout(opts); cb != nil {
		engineOpts = append(engineOpts, ranking.WithProgress(cb))
	}

	var expander ranking.Expander
	if collab.Client != nil {
		expander = expansion.New(collab.Client)
	}
	return ranking.NewEngine(expander, collab.Embedder, engineOpts...)
}

func progressFanout(opts RunOptions) ranking.ProgressCallback {
	switch {
	case opts.Printer == nil:
		return opts.OnProgress
	case opts.OnProgress == nil:
		return func(ev ranking.ProgressEvent) {
			opts.Printer.PrintProgress(ev.Stage, ev.Fraction, ev.Message)
		}
	}
	return func(ev ranking.ProgressEvent) {
		opts.Printer.PrintProgress(ev.Stage, ev.Fraction, ev.Message)
		opts.OnProgress(ev)
	}
}

func checkSources(opts RunOptions) error {
	jdSources := 0
	for _, set := range []bool{opts.JobDescription != "", opts.JobPath != "", opts.JobURL != ""} {
		if set {
			jdSources++
		}
	}
	if jdSources == 0 {
		return ErrNoJobDescription
	}
	if jdSources > 1 {
		return fmt.Errorf("job description text, file and URL are mutually exclusive")
	}

	poolSources := 0
	for _, set := range []bool{opts.Documents != nil, opts.CandidatesPath != "", opts.FromDB} {
		if set {
			poolSources++
		}
	}
	if poolSources == 0 {
		return ErrNoCandidates
	}
	if poolSources > 1 {
		return fmt.Errorf("documents, candidates path and database are mutually exclusive")
	}
	return nil
}

// ResolveJobDescription returns the JD text from whichever source opts sets.
func ResolveJobDescription(ctx context.Context, opts RunOptions, cfg *config.Config) (string, error) {
	var jd string
	switch {
	case opts.JobDescription != "":
		jd = opts.JobDescription
	case opts.JobPath != "":
		data, err := os.ReadFile(opts.JobPath)
		if err != nil {
			return "", fmt.Errorf("failed to read job description: %w", err)
		}
		jd = ingestion.CleanText(string(data))
	case opts.JobURL != "":
		fopts := fetch.DefaultOptions()
		fopts.Timeout = cfg.Fetch.Timeout
		fopts.UseBrowser = cfg.Fetch.UseBrowser
		text, err := fetch.JobDescription(ctx, opts.JobURL, fopts)
		if err != nil {
			return "", err
		}
		jd = text
	}
	if strings.TrimSpace(jd) == "" {
		return "", ErrNoJobDescription
	}
	return jd, nil
}

func loadPool(ctx context.Context, opts RunOptions, cfg *config.Config, database *db.DB) ([]types.Document, error) {
	switch {
	case opts.Documents != nil:
		return opts.Documents, nil
	case opts.FromDB:
		return database.ListCandidates(ctx, cfg.CandidateLimit)
	default:
		return ingestion.LoadDocuments(ctx, opts.CandidatesPath, cfg.Workers)
	}
}
