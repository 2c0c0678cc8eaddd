package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/candidate-ranker/internal/llm"
	"github.com/jonathan/candidate-ranker/internal/parsing"
	"github.com/jonathan/candidate-ranker/internal/types"
)

var (
	// ErrNilEmbedder is returned when semantic scoring has no embedder.
	ErrNilEmbedder = errors.New("ranking: no embedder configured")
	// ErrNilExpander is returned when Rank is called without an expander.
	ErrNilExpander = errors.New("ranking: no expander configured")
	// ErrNoVariants is returned when the variant set is empty.
	ErrNoVariants = errors.New("ranking: at least one query variant is required")
)

// Expander produces the query variants for a job description. Index 0 of the
// result must be the job description itself.
type Expander interface {
	Expand(ctx context.Context, jd string, n int) ([]types.QueryVariant, error)
}

// Recorder receives one observation per ranking run.
type Recorder interface {
	ObserveRun(outcome string, duration time.Duration, poolSize, kept int, weakMatch bool)
}

// Run outcomes passed to Recorder.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// Progress stages, in the order they complete.
const (
	StageIndexing    = "indexing"
	StageExpanding   = "expanding"
	StageScoring     = "scoring"
	StageNormalizing = "normalizing"
	StageRanking     = "ranking"
)

// ProgressEvent reports that a stage of a run has finished.
type ProgressEvent struct {
	Stage    string  `json:"stage"`
	Fraction float64 `json:"fraction"`
	Message  string  `json:"message"`
}

// ProgressCallback is called after each stage completes.
type ProgressCallback func(event ProgressEvent)

// Engine runs the full expand, score, aggregate and rank pipeline. It holds
// no per-run state, so one Engine may serve concurrent runs.
type Engine struct {
	expander   Expander
	embedder   llm.Embedder
	normalizer *parsing.Normalizer
	params     Params
	logger     *slog.Logger
	recorder   Recorder
	onProgress ProgressCallback
}

// Option configures an Engine.
type Option func(*Engine)

// WithParams overrides the default tuning.
func WithParams(p Params) Option {
	return func(e *Engine) { e.params = p }
}

// WithNormalizer sets the text normalizer used by the lexical and overlap scorers.
func WithNormalizer(n *parsing.Normalizer) Option {
	return func(e *Engine) { e.normalizer = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithProgress sets the progress callback.
func WithProgress(cb ProgressCallback) Option {
	return func(e *Engine) { e.onProgress = cb }
}

// NewEngine builds an Engine. The expander may be nil when only
// RankWithVariants is used.
func NewEngine(expander Expander, embedder llm.Embedder, opts ...Option) (*Engine, error) {
	e := &Engine{
		expander: expander,
		embedder: embedder,
		params:   DefaultParams(),
		logger:   slog.Default().With("component", "ranking-engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking parameters: %w", err)
	}
	if e.embedder == nil {
		return nil, ErrNilEmbedder
	}
	if e.normalizer == nil {
		n, err := parsing.NewNormalizer()
		if err != nil {
			return nil, err
		}
		e.normalizer = n
	}
	return e, nil
}

// Params returns the engine's tuning.
func (e *Engine) Params() Params {
	return e.params
}

// Rank expands jd into Params.VariantCount paraphrases plus the original and
// ranks docs against all of them. An empty pool returns an empty ranking
// without calling any collaborator.
func (e *Engine) Rank(ctx context.Context, jd string, docs []types.Document) (*types.Ranking, error) {
	start := time.Now()
	if len(docs) == 0 {
		return e.empty(start), nil
	}
	if e.expander == nil {
		return nil, ErrNilExpander
	}

	normDocs, corpus := e.index(docs)

	variants, err := e.expander.Expand(ctx, jd, e.params.VariantCount)
	if err != nil {
		e.fail(start, len(docs), err)
		return nil, fmt.Errorf("failed to expand job description: %w", err)
	}
	if len(variants) == 0 {
		e.fail(start, len(docs), ErrNoVariants)
		return nil, ErrNoVariants
	}
	e.progress(StageExpanding, 0.30, fmt.Sprintf("Generated %d query variants", len(variants)))

	return e.score(ctx, start, variants, docs, normDocs, corpus)
}

// RankWithVariants ranks docs against a caller-supplied variant set.
func (e *Engine) RankWithVariants(ctx context.Context, variants []types.QueryVariant, docs []types.Document) (*types.Ranking, error) {
	start := time.Now()
	if len(variants) == 0 {
		return nil, ErrNoVariants
	}
	if len(docs) == 0 {
		r := e.empty(start)
		r.Variants = variants
		return r, nil
	}
	normDocs, corpus := e.index(docs)
	return e.score(ctx, start, variants, docs, normDocs, corpus)
}

func (e *Engine) index(docs []types.Document) ([]string, [][]string) {
	normDocs := e.normalizer.NormalizeAll(types.DocumentTexts(docs))
	corpus := tokenizeAll(normDocs)
	e.progress(StageIndexing, 0.15, fmt.Sprintf("Indexed %d resumes", len(docs)))
	return normDocs, corpus
}

func (e *Engine) score(ctx context.Context, start time.Time, variants []types.QueryVariant, docs []types.Document, normDocs []string, corpus [][]string) (*types.Ranking, error) {
	normVariants := e.normalizer.NormalizeAll(types.VariantTexts(variants))

	signals := Signals{
		Lexical: bm25Pooled(corpus, tokenizeAll(normVariants), e.params.BM25),
		Overlap: jaccardPooled(normVariants, normDocs),
	}
	semantic, err := SemanticScores(ctx, docs, variants, e.embedder, e.params.Epsilon)
	if err != nil {
		e.fail(start, len(docs), err)
		return nil, fmt.Errorf("semantic scoring failed: %w", err)
	}
	signals.Semantic = semantic
	e.progress(StageScoring, 0.80, fmt.Sprintf("Scored %d resumes against %d variants", len(docs), len(variants)))

	agg, err := Aggregate(signals, e.params)
	if err != nil {
		e.fail(start, len(docs), err)
		return nil, err
	}
	e.progress(StageNormalizing, 0.90, fmt.Sprintf("Normalized scores over %d resumes", len(agg.Kept)))

	order := Order(agg.Final, e.params.TopN)
	candidates := make([]types.RankedCandidate, len(order))
	for r, k := range order {
		i := agg.Kept[k]
		candidates[r] = types.RankedCandidate{
			Rank:       r + 1,
			Document:   docs[i],
			Score:      agg.Final[k],
			RawScore:   agg.Raw[i],
			Pooled:     signals.at(i),
			Normalized: agg.Normalized[k],
		}
	}
	e.progress(StageRanking, 1.0, fmt.Sprintf("Ranked top %d candidates", len(candidates)))

	if agg.WeakMatch {
		e.logger.Warn("no strong matches, showing relative ranking", "pool", len(docs), "threshold", e.params.AbsoluteThreshold)
	} else {
		e.logger.Info("found strong matches", "strong", agg.Passed, "pool", len(docs))
	}
	if e.recorder != nil {
		e.recorder.ObserveRun(OutcomeOK, time.Since(start), len(docs), agg.Passed, agg.WeakMatch)
	}

	return &types.Ranking{
		Candidates:    candidates,
		WeakMatch:     agg.WeakMatch,
		FilteredCount: agg.Passed,
		PoolSize:      len(docs),
		Variants:      variants,
	}, nil
}

func (e *Engine) empty(start time.Time) *types.Ranking {
	e.logger.Info("empty candidate pool, nothing to rank")
	if e.recorder != nil {
		e.recorder.ObserveRun(OutcomeEmpty, time.Since(start), 0, 0, false)
	}
	return &types.Ranking{Candidates: []types.RankedCandidate{}}
}

func (e *Engine) fail(start time.Time, pool int, err error) {
	e.logger.Error("ranking run failed", "pool", pool, "err", err)
	if e.recorder != nil {
		e.recorder.ObserveRun(OutcomeError, time.Since(start), pool, 0, false)
	}
}

func (e *Engine) progress(stage string, fraction float64, message string) {
	if e.onProgress != nil {
		e.onProgress(ProgressEvent{Stage: stage, Fraction: fraction, Message: message})
	}
}
