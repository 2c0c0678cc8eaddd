// Package config provides configuration loading and validation for the ranker
// CLI and HTTP server.
//
// Values are resolved in three layers: Default(), then an optional YAML or
// JSON file, then environment variables. CLI flags are applied last by the
// caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/candidate-ranker/internal/llm"
	"github.com/jonathan/candidate-ranker/internal/parsing"
	"github.com/jonathan/candidate-ranker/internal/ranking"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Defaults for values outside ranking.Params.
const (
	DefaultPort              = 8080
	DefaultWorkers           = 8
	DefaultJWTExpiration     = 24
	DefaultRateLimit         = 2.0
	DefaultRateBurst         = 5
	DefaultFetchTimeout      = 30 * time.Second
	DefaultCandidateLimit    = 5000
	DefaultCacheDirName      = ".ranker-cache"
	DefaultEmbeddingCacheDir = DefaultCacheDirName + "/embeddings"
)

// Config is the full runtime configuration.
type Config struct {
	LLM     LLMConfig     `koanf:"llm"`
	Ranking RankingConfig `koanf:"ranking"`
	Cache   CacheConfig   `koanf:"cache"`
	Server  ServerConfig  `koanf:"server"`
	Fetch   FetchConfig   `koanf:"fetch"`

	DatabaseURL    string `koanf:"database_url"`
	CandidateLimit int    `koanf:"candidate_limit" validate:"min=1"`
	Workers        int    `koanf:"workers" validate:"min=1,max=256"`
}

// LLMConfig selects the paraphrase and embedding provider.
type LLMConfig struct {
	Provider       string  `koanf:"provider" validate:"oneof=gemini openai"`
	Model          string  `koanf:"model"`
	EmbeddingModel string  `koanf:"embedding_model"`
	BaseURL        string  `koanf:"base_url" validate:"omitempty,url"`
	Temperature    float64 `koanf:"temperature" validate:"gte=0,lte=2"`

	// Keys are only read from the environment.
	GeminiAPIKey string `koanf:"-"`
	OpenAIAPIKey string `koanf:"-"`
}

// RankingConfig holds every ranking tunable.
type RankingConfig struct {
	TopN              int                `koanf:"top_n" validate:"min=1"`
	AbsoluteThreshold float64            `koanf:"absolute_threshold"`
	VariantCount      int                `koanf:"variant_count" validate:"min=0,max=20"`
	FilterWeights     ranking.Weights    `koanf:"filter_weights"`
	ScoreWeights      ranking.Weights    `koanf:"score_weights"`
	BM25              ranking.BM25Params `koanf:"bm25"`
	Stopwords         StopwordConfig     `koanf:"stopwords"`
	StemmerLanguage   string             `koanf:"stemmer_language" validate:"required"`
}

// StopwordConfig adjusts the normalizer's stopword set. Replace wins over Extra.
type StopwordConfig struct {
	Extra   []string `koanf:"extra"`
	Replace []string `koanf:"replace"`
}

// CacheConfig controls the persistent embedding cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled"`
	Dir     string `koanf:"dir" validate:"required_if=Enabled true"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port               int     `koanf:"port" validate:"min=1,max=65535"`
	JWTSecret          string  `koanf:"jwt_secret"`
	JWTExpirationHours int     `koanf:"jwt_expiration_hours" validate:"min=1"`
	RateLimit          float64 `koanf:"rate_limit" validate:"gt=0"`
	RateBurst          int     `koanf:"rate_burst" validate:"min=1"`
	MaxCandidates      int     `koanf:"max_candidates" validate:"min=0"`
}

// FetchConfig configures job description fetching.
type FetchConfig struct {
	UseBrowser bool          `koanf:"use_browser"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	p := ranking.DefaultParams()
	return &Config{
		LLM: LLMConfig{
			Provider:    string(llm.ProviderGemini),
			Temperature: llm.DefaultTemperature,
		},
		Ranking: RankingConfig{
			TopN:              p.TopN,
			AbsoluteThreshold: p.AbsoluteThreshold,
			VariantCount:      p.VariantCount,
			FilterWeights:     p.FilterWeights,
			ScoreWeights:      p.ScoreWeights,
			BM25:              p.BM25,
			StemmerLanguage:   parsing.DefaultStemmerLanguage,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     DefaultEmbeddingCacheDir,
		},
		Server: ServerConfig{
			Port:               DefaultPort,
			JWTExpirationHours: DefaultJWTExpiration,
			RateLimit:          DefaultRateLimit,
			RateBurst:          DefaultRateBurst,
		},
		Fetch: FetchConfig{
			Timeout: DefaultFetchTimeout,
		},
		CandidateLimit: DefaultCandidateLimit,
		Workers:        DefaultWorkers,
	}
}

// Load builds a Config from defaults, the optional file at path and the
// environment, then validates it. Environment variables take precedence over
// file values.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		if err := k.Unmarshal("", cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	if verr := cfg.applyEnv(); verr != nil {
		return nil, verr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables. Malformed numbers are reported
// together as a ValidationError.
func (c *Config) applyEnv() error {
	var errs []FieldError

	envString(&c.LLM.GeminiAPIKey, "GEMINI_API_KEY")
	envString(&c.LLM.OpenAIAPIKey, "OPENAI_API_KEY")
	envString(&c.LLM.Provider, "RANKER_PROVIDER")
	envString(&c.LLM.BaseURL, "OPENAI_BASE_URL")
	envString(&c.DatabaseURL, "DATABASE_URL")
	envString(&c.Server.JWTSecret, "JWT_SECRET")
	envString(&c.Cache.Dir, "RANKER_CACHE_DIR")

	errs = appendIfErr(errs, envInt(&c.Ranking.TopN, "RANKER_TOP_N", "ranking.top_n"))
	errs = appendIfErr(errs, envInt(&c.Ranking.VariantCount, "RANKER_VARIANTS", "ranking.variant_count"))
	errs = appendIfErr(errs, envFloat(&c.Ranking.AbsoluteThreshold, "RANKER_THRESHOLD", "ranking.absolute_threshold"))
	errs = appendIfErr(errs, envInt(&c.Server.Port, "PORT", "server.port"))
	errs = appendIfErr(errs, envInt(&c.Server.JWTExpirationHours, "JWT_EXPIRATION_HOURS", "server.jwt_expiration_hours"))

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// APIKey returns the key for the configured provider.
func (l LLMConfig) APIKey() string {
	if llm.Provider(l.Provider) == llm.ProviderOpenAI {
		return l.OpenAIAPIKey
	}
	return l.GeminiAPIKey
}

// ClientConfig converts the section into an llm.Config, starting from the
// provider's defaults.
func (l LLMConfig) ClientConfig() *llm.Config {
	cfg := llm.ConfigFor(llm.Provider(l.Provider))
	if l.Model != "" {
		cfg = cfg.WithModel(llm.TierStandard, l.Model)
	}
	if l.EmbeddingModel != "" {
		cfg = cfg.WithEmbeddingModel(l.EmbeddingModel)
	}
	cfg.BaseURL = l.BaseURL
	cfg.Temperature = l.Temperature
	return cfg
}

// Params converts the section into ranking.Params.
func (r RankingConfig) Params() ranking.Params {
	p := ranking.DefaultParams()
	p.TopN = r.TopN
	p.AbsoluteThreshold = r.AbsoluteThreshold
	p.VariantCount = r.VariantCount
	p.FilterWeights = r.FilterWeights
	p.ScoreWeights = r.ScoreWeights
	p.BM25 = r.BM25
	return p
}

// NormalizerOptions returns the parsing options for the configured stopwords
// and stemmer. A replacement list is applied before the extra words.
func (r RankingConfig) NormalizerOptions() []parsing.Option {
	opts := []parsing.Option{parsing.WithStemmerLanguage(r.StemmerLanguage)}
	if len(r.Stopwords.Replace) > 0 {
		opts = append(opts, parsing.WithStopwords(r.Stopwords.Replace))
	}
	if len(r.Stopwords.Extra) > 0 {
		opts = append(opts, parsing.WithExtraStopwords(r.Stopwords.Extra))
	}
	return opts
}

// Normalizer builds the configured text normalizer.
func (r RankingConfig) Normalizer() (*parsing.Normalizer, error) {
	return parsing.NewNormalizer(r.NormalizerOptions()...)
}

func envString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envInt(dst *int, key, field string) *FieldError {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return &FieldError{Field: field, Message: fmt.Sprintf("%s must be an integer, got %q", key, val)}
	}
	*dst = n
	return nil
}

func envFloat(dst *float64, key, field string) *FieldError {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return &FieldError{Field: field, Message: fmt.Sprintf("%s must be a number, got %q", key, val)}
	}
	*dst = f
	return nil
}

func appendIfErr(errs []FieldError, fe *FieldError) []FieldError {
	if fe != nil {
		return append(errs, *fe)
	}
	return errs
}
