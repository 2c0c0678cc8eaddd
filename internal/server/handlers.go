package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/candidate-ranker/internal/expansion"
	"github.com/jonathan/candidate-ranker/internal/ingestion"
	"github.com/jonathan/candidate-ranker/internal/pipeline"
	"github.com/jonathan/candidate-ranker/internal/server/middleware"
	"github.com/jonathan/candidate-ranker/internal/types"
)

// RankRequest is the body of POST /rank. The pool is the union of the plain
// documents and the resume records, or the stored pool when FromDB is set.
type RankRequest struct {
	JobDescription string            `json:"job_description" validate:"required_without=JobURL,excluded_with=JobURL"`
	JobURL         string            `json:"job_url" validate:"omitempty,url"`
	Documents      []types.Document  `json:"documents" validate:"excluded_with=FromDB"`
	Records        []json.RawMessage `json:"records" validate:"excluded_with=FromDB"`
	FromDB         bool              `json:"from_db"`
	TopN           *int              `json:"top_n" validate:"omitempty,min=1"`
	Threshold      *float64          `json:"threshold"`
	Variants       *int              `json:"variants" validate:"omitempty,min=0,max=20"`
}

// ExpandRequest is the body of POST /expand.
type ExpandRequest struct {
	JobDescription string `json:"job_description" validate:"required"`
	Count          *int   `json:"count" validate:"omitempty,min=0,max=20"`
}

// ExpandResponse lists the query variants, the original first.
type ExpandResponse struct {
	Variants []types.QueryVariant `json:"variants"`
}

var (
	requestValidator     *validator.Validate
	requestValidatorOnce sync.Once
)

func getValidator() *validator.Validate {
	requestValidatorOnce.Do(func() {
		requestValidator = validator.New(validator.WithRequiredStructEnabled())
		requestValidator.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return requestValidator
}

// decodeRequest reads a JSON body into dst and validates it.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := getValidator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ErrValidation{Field: fe.Field(), Message: describeTag(fe)}
		}
		return err
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "excluded_with":
		return "cannot be combined with " + strings.ToLower(fe.Param())
	case "url":
		return "must be a valid URL"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	}
	return "failed " + fe.Tag()
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pool builds the candidate documents of a rank request.
func (s *Server) pool(ctx context.Context, req *RankRequest) ([]types.Document, error) {
	if req.FromDB {
		return s.storedPool(ctx)
	}
	if req.Documents == nil && req.Records == nil {
		return nil, &ErrValidation{Field: "documents", Message: "documents, records or from_db are required"}
	}

	docs := make([]types.Document, 0, len(req.Documents)+len(req.Records))
	for i, doc := range req.Documents {
		if strings.TrimSpace(doc.Text) == "" {
			return nil, &ErrValidation{Field: fmt.Sprintf("documents[%d].text", i), Message: "is required"}
		}
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		docs = append(docs, doc)
	}
	for i, raw := range req.Records {
		doc, err := ingestion.DecodeEntry(raw)
		if err != nil {
			return nil, &ErrValidation{Field: fmt.Sprintf("records[%d]", i), Message: err.Error()}
		}
		docs = append(docs, doc)
	}

	if limit := s.cfg.Server.MaxCandidates; limit > 0 && len(docs) > limit {
		return nil, &ErrTooManyCandidates{Count: len(docs), Limit: limit}
	}
	return docs, nil
}

// storedPool reads the candidate table, one row past the limit so an
// oversized pool is reported instead of silently truncated.
func (s *Server) storedPool(ctx context.Context) ([]types.Document, error) {
	if s.store == nil {
		return nil, errNoStore
	}
	limit := s.cfg.Server.MaxCandidates
	rows := 0
	if limit > 0 {
		rows = limit + 1
	}
	docs, err := s.store.ListCandidates(ctx, rows)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(docs) > limit {
		return nil, &ErrTooManyCandidates{Count: len(docs), Limit: limit}
	}
	return docs, nil
}

// handleRank ranks an inline pool against a job description.
func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	docs, err := s.pool(r.Context(), &req)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	cfg := *s.cfg
	if req.TopN != nil {
		cfg.Ranking.TopN = *req.TopN
	}
	if req.Threshold != nil {
		cfg.Ranking.AbsoluteThreshold = *req.Threshold
	}
	if req.Variants != nil {
		cfg.Ranking.VariantCount = *req.Variants
	}
	if err := cfg.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}

	result, err := pipeline.Run(r.Context(), pipeline.RunOptions{
		JobDescription: req.JobDescription,
		JobURL:         req.JobURL,
		Documents:      docs,
		Config:         &cfg,
		Collaborators:  s.collab,
		Recorder:       s.metrics,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	subject, _ := middleware.Subject(r)
	s.logger.Info("ranked pool",
		"subject", subject,
		"pool", result.Ranking.PoolSize,
		"shown", len(result.Ranking.Candidates),
		"weak_match", result.Ranking.WeakMatch)
	s.jsonResponse(w, http.StatusOK, result)
}

// handleExpand returns the query variants for a job description.
func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	var req ExpandRequest
	if err := decodeRequest(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	count := s.cfg.Ranking.VariantCount
	if req.Count != nil {
		count = *req.Count
	}

	if count > 0 && s.collab.Client == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "query expansion is not configured")
		return
	}
	variants, err := expansion.New(s.collab.Client).Expand(r.Context(), req.JobDescription, count)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ExpandResponse{Variants: variants})
}
