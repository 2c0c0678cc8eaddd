// Package server provides the HTTP API for the candidate ranker.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/candidate-ranker/internal/config"
	"github.com/jonathan/candidate-ranker/internal/fetch"
	"github.com/jonathan/candidate-ranker/internal/ingestion"
	"github.com/jonathan/candidate-ranker/internal/llm"
	"github.com/jonathan/candidate-ranker/internal/pipeline"
	"github.com/jonathan/candidate-ranker/internal/ranking"
	"github.com/jonathan/candidate-ranker/internal/schemas"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// errNoStore is returned for from_db requests when no database is configured.
var errNoStore = errors.New("candidate storage is not configured")

// ErrTooManyCandidates indicates the request pool exceeds the server limit.
type ErrTooManyCandidates struct {
	Count int
	Limit int
}

func (e *ErrTooManyCandidates) Error() string {
	return fmt.Sprintf("pool of %d candidates exceeds the limit of %d", e.Count, e.Limit)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		tooManyErr    *ErrTooManyCandidates
		configErr     *config.ValidationError
		recordErr     *ingestion.RecordError
		docSchemaErr  *schemas.ValidationError
		schemaErr     *llm.SchemaError
		apiErr        *llm.APICallError
		fetchErr      *fetch.Error
	)
	switch {
	case err == nil:
		return http.StatusInternalServerError
	// upstream failures first: an LLM schema error may wrap a document schema error
	case errors.As(err, &schemaErr), errors.As(err, &apiErr), errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.As(err, &validationErr), errors.As(err, &configErr), errors.As(err, &recordErr),
		errors.As(err, &docSchemaErr),
		errors.Is(err, pipeline.ErrNoJobDescription), errors.Is(err, pipeline.ErrNoCandidates):
		return http.StatusBadRequest
	case errors.As(err, &tooManyErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ranking.ErrNilExpander), errors.Is(err, errNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
