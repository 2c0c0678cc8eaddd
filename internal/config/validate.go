package config

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/candidate-ranker/internal/llm"
)

// FieldError describes one invalid configuration value.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invalid field found in one pass.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "config error: " + strings.Join(parts, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// report fields by their config-file names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks struct constraints and the cross-field rules that tags
// cannot express.
func (c *Config) Validate() error {
	var errs []FieldError

	if err := structValidator().Struct(c); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("config validation failed: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, FieldError{Field: fieldPath(fe.Namespace()), Message: describe(fe)})
		}
	}

	r := c.Ranking
	for name, w := range map[string]float64{
		"ranking.score_weights.semantic":  r.ScoreWeights.Semantic,
		"ranking.score_weights.lexical":   r.ScoreWeights.Lexical,
		"ranking.score_weights.overlap":   r.ScoreWeights.Overlap,
		"ranking.filter_weights.semantic": r.FilterWeights.Semantic,
		"ranking.filter_weights.lexical":  r.FilterWeights.Lexical,
		"ranking.filter_weights.overlap":  r.FilterWeights.Overlap,
	} {
		if w < 0 {
			errs = append(errs, FieldError{Field: name, Message: fmt.Sprintf("must be non-negative, got %g", w)})
		}
	}
	if err := r.Params().Validate(); err != nil && len(errs) == 0 {
		errs = append(errs, FieldError{Field: "ranking", Message: err.Error()})
	}
	if c.LLM.BaseURL != "" && llm.Provider(c.LLM.Provider) != llm.ProviderOpenAI {
		errs = append(errs, FieldError{Field: "llm.base_url", Message: "only supported with the openai provider"})
	}

	if len(errs) == 0 {
		return nil
	}
	slices.SortFunc(errs, func(a, b FieldError) int { return strings.Compare(a.Field, b.Field) })
	return &ValidationError{Errors: errs}
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %v", fe.Param(), fe.Value())
	case "min", "gte":
		return fmt.Sprintf("must be at least %s, got %v", fe.Param(), fe.Value())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s, got %v", fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("must be greater than %s, got %v", fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("must be a URL, got %q", fe.Value())
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}
