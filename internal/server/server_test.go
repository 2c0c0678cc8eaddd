package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/candidate-ranker/internal/config"
	"github.com/jonathan/candidate-ranker/internal/ingestion"
	"github.com/jonathan/candidate-ranker/internal/llm"
	"github.com/jonathan/candidate-ranker/internal/llm/llmtest"
	"github.com/jonathan/candidate-ranker/internal/observability"
	"github.com/jonathan/candidate-ranker/internal/pipeline"
	"github.com/jonathan/candidate-ranker/internal/types"
)

const pythonJD = "Senior Python developer with Django and REST API experience"

// memoryStore serves a fixed candidate pool.
type memoryStore struct {
	mu     sync.Mutex
	docs   []types.Document
	limits []int
}

func newMemoryStore(docs ...types.Document) *memoryStore {
	return &memoryStore{docs: docs}
}

func (m *memoryStore) ListCandidates(_ context.Context, limit int) ([]types.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits = append(m.limits, limit)
	if limit > 0 && limit < len(m.docs) {
		return append([]types.Document(nil), m.docs[:limit]...), nil
	}
	return append([]types.Document(nil), m.docs...), nil
}

func variantClient(variants ...string) *llmtest.MockClient {
	return &llmtest.MockClient{
		GenerateJSONFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			payload, _ := json.Marshal(map[string]any{"original_jd": pythonJD, "variant_jds": variants})
			return string(payload), nil
		},
	}
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Cache.Enabled = false
	cfg.Ranking.VariantCount = 1
	cfg.Server.RateLimit = 100
	cfg.Server.RateBurst = 100
	return cfg
}

type testServer struct {
	*Server
	client  *llmtest.MockClient
	store   *memoryStore
	metrics *observability.Metrics
	reg     *prometheus.Registry
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	client := variantClient("Python engineer experienced in Django and REST APIs")
	collab := &pipeline.Collaborators{Client: client, Embedder: &llmtest.MockEmbedder{Dimension: 4096}}
	metrics := observability.NewMetrics()
	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg))
	store := newMemoryStore(pool()...)

	s, err := New(context.Background(), cfg, collab, WithMetrics(metrics, reg), WithCandidateStore(store))
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	return &testServer{Server: s, client: client, store: store, metrics: metrics, reg: reg}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func pool() []types.Document {
	return []types.Document{
		{ID: "chef", Text: "Pastry chef with ten years of baking experience"},
		{ID: "py", Text: "Python developer building Django REST API services"},
		{ID: "java", Text: "Java engineer working on Spring microservices"},
	}
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) pipeline.Result {
	t.Helper()
	var res pipeline.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestNew_RequiresEmbedder(t *testing.T) {
	_, err := New(context.Background(), testConfig(), &pipeline.Collaborators{})
	assert.Error(t, err)
	_, err = New(context.Background(), nil, &pipeline.Collaborators{Embedder: llmtest.NewMockEmbedder()})
	assert.Error(t, err)
}

func TestNew_RejectsShortJWTSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Server.JWTSecret = "short"
	_, err := New(context.Background(), cfg, &pipeline.Collaborators{Embedder: llmtest.NewMockEmbedder()})
	assert.Error(t, err)
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t, testConfig())
	w := ts.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, testConfig())
	w := ts.do(t, http.MethodOptions, "/rank", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestHandleRank(t *testing.T) {
	ts := newTestServer(t, testConfig())
	w := ts.do(t, http.MethodPost, "/rank", RankRequest{JobDescription: pythonJD, Documents: pool()})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decodeResult(t, w)
	require.NotEmpty(t, res.Ranking.Candidates)
	assert.Equal(t, "py", res.Ranking.Candidates[0].Document.ID)
	assert.Equal(t, 3, res.Ranking.PoolSize)
	assert.Len(t, res.Ranking.Variants, 2)
	assert.Equal(t, 1, ts.client.CallCount())
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestHandleRank_Overrides(t *testing.T) {
	ts := newTestServer(t, testConfig())
	topN, variants := 1, 0
	w := ts.do(t, http.MethodPost, "/rank", RankRequest{
		JobDescription: pythonJD,
		Documents:      pool(),
		TopN:           &topN,
		Variants:       &variants,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decodeResult(t, w)
	assert.Len(t, res.Ranking.Candidates, 1)
	assert.Len(t, res.Ranking.Variants, 1)
	assert.Equal(t, 0, ts.client.CallCount())
	assert.Equal(t, config.Default().Ranking.TopN, ts.cfg.Ranking.TopN, "server config is not mutated")
	assert.Equal(t, 1, ts.cfg.Ranking.VariantCount)
}

func TestHandleRank_Records(t *testing.T) {
	ts := newTestServer(t, testConfig())
	record := json.RawMessage(`{
		"id": "ada",
		"candidate_name": "Ada Lovelace",
		"job_title": "Python Engineer",
		"experience": [{"role": "Engineer", "organization": "Engines", "start_date": "2015", "end_date": "2020",
			"responsibilities": ["Built Python Django REST API services"]}],
		"skills": {"languages": ["Python"], "frameworks": ["Django"]}
	}`)
	w := ts.do(t, http.MethodPost, "/rank", RankRequest{
		JobDescription: pythonJD,
		Documents:      []types.Document{{ID: "chef", Text: "Pastry chef"}},
		Records:        []json.RawMessage{record},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decodeResult(t, w)
	assert.Equal(t, 2, res.Ranking.PoolSize)
	require.NotEmpty(t, res.Ranking.Candidates)
	assert.Equal(t, "ada", res.Ranking.Candidates[0].Document.ID)
	assert.Equal(t, "Ada Lovelace", res.Ranking.Candidates[0].Document.Metadata[ingestion.FieldName])
}

func TestHandleRank_EmptyPool(t *testing.T) {
	ts := newTestServer(t, testConfig())
	w := ts.do(t, http.MethodPost, "/rank", `{"job_description": "Go developer", "documents": []}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decodeResult(t, w)
	assert.Empty(t, res.Ranking.Candidates)
	assert.False(t, res.Ranking.WeakMatch)
	assert.Equal(t, 0, ts.client.CallCount())
}

func TestHandleRank_FromDB(t *testing.T) {
	ts := newTestServer(t, testConfig())
	w := ts.do(t, http.MethodPost, "/rank", RankRequest{JobDescription: pythonJD, FromDB: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decodeResult(t, w)
	assert.Equal(t, 3, res.Ranking.PoolSize)
	require.NotEmpty(t, res.Ranking.Candidates)
	assert.Equal(t, "py", res.Ranking.Candidates[0].Document.ID)
	assert.Equal(t, []int{0}, ts.store.limits, "no limit lists every row")
}

func TestHandleRank_FromDBRejectsInlinePool(t *testing.T) {
	ts := newTestServer(t, testConfig())
	w := ts.do(t, http.MethodPost, "/rank", RankRequest{JobDescription: pythonJD, FromDB: true, Documents: pool()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ts.store.limits)
}

func TestHandleRank_FromDBTooMany(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxCandidates = 2
	ts := newTestServer(t, cfg)
	w := ts.do(t, http.MethodPost, "/rank", RankRequest{JobDescription: pythonJD, FromDB: true})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, []int{3}, ts.store.limits)
}

func TestHandleRank_BadRequests(t *testing.T) {
	ts := newTestServer(t, testConfig())

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"malformed json", `{"job_description": `, "body"},
		{"unknown field", `{"job_description": "x", "documents": [], "jd": "y"}`, "body"},
		{"no job description", `{"documents": []}`, "job_description"},
		{"both jd sources", `{"job_description": "x", "job_url": "https://jobs.example.com/1", "documents": []}`, "job_description"},
		{"bad url", `{"job_url": "not a url", "documents": []}`, "job_url"},
		{"no pool", `{"job_description": "x"}`, "documents"},
		{"blank document", `{"job_description": "x", "documents": [{"id": "a", "text": "  "}]}`, "documents[0].text"},
		{"bad top_n", `{"job_description": "x", "documents": [], "top_n": 0}`, "top_n"},
		{"too many variants", `{"job_description": "x", "documents": [], "variants": 21}`, "variants"},
		{"bad record", `{"job_description": "x", "records": [{"years_of_experience": [1]}]}`, "records[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/rank", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.wantField)
		})
	}
}

func TestHandleRank_InvalidConfig(t *testing.T) {
	ts := newTestServer(t, testConfig())
	topN := 1
	cfg := *ts.cfg
	cfg.Ranking.FilterWeights.Semantic = -1
	ts.cfg = &cfg
	w := ts.do(t, http.MethodPost, "/rank", RankRequest{JobDescription: pythonJD, Documents: pool(), TopN: &topN})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestHandleRank_MaxCandidates(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxCandidates = 2
	ts := newTestServer(t, cfg)
	w := ts.do(t, http.MethodPost, "/rank", RankRequest{JobDescription: pythonJD, Documents: pool()})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHandleRank_SchemaErrorIsBadGateway(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ts.client.GenerateJSONFunc = func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		return `{"original_jd": "x", "variant_jds": []}`, nil
	}
	w := ts.do(t, http.MethodPost, "/rank", RankRequest{JobDescription: pythonJD, Documents: pool()})
	assert.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
}

func TestHandleExpand_MalformedVariantsIsBadGateway(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ts.client.GenerateJSONFunc = func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
		return `{"original_jd": "x"}`, nil
	}
	count := 2
	w := ts.do(t, http.MethodPost, "/expand", ExpandRequest{JobDescription: pythonJD, Count: &count})
	assert.Equal(t, http.StatusBadGateway, w.Code, w.Body.String())
}

func TestHandleRank_FromDBWithoutStore(t *testing.T) {
	s, err := New(context.Background(), testConfig(), &pipeline.Collaborators{
		Client:   variantClient("Django developer"),
		Embedder: &llmtest.MockEmbedder{Dimension: 4096},
	})
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	ts := &testServer{Server: s}

	w := ts.do(t, http.MethodPost, "/rank", RankRequest{JobDescription: pythonJD, FromDB: true})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleExpand(t *testing.T) {
	ts := newTestServer(t, testConfig())
	w := ts.do(t, http.MethodPost, "/expand", ExpandRequest{JobDescription: pythonJD})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ExpandResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Variants, 2)
	assert.Equal(t, pythonJD, resp.Variants[0].Text)
	assert.Equal(t, 1, resp.Variants[1].Index)

	zero := 0
	w = ts.do(t, http.MethodPost, "/expand", ExpandRequest{JobDescription: pythonJD, Count: &zero})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Variants, 1)
	assert.Equal(t, 1, ts.client.CallCount())

	w = ts.do(t, http.MethodPost, "/expand", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleExpand_NoClient(t *testing.T) {
	s, err := New(context.Background(), testConfig(), &pipeline.Collaborators{Embedder: llmtest.NewMockEmbedder()})
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)
	ts := &testServer{Server: s}

	w := ts.do(t, http.MethodPost, "/expand", ExpandRequest{JobDescription: pythonJD})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())
	w := ts.do(t, http.MethodPost, "/rank", RankRequest{JobDescription: pythonJD, Documents: pool()})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), observability.MetricRunsTotal)
}

func TestAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Server.JWTSecret = testSecret
	ts := newTestServer(t, cfg)

	w := ts.do(t, http.MethodPost, "/rank", RankRequest{JobDescription: pythonJD, Documents: pool()})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code, "health stays public")

	token, err := ts.jwtService.GenerateToken("recruiting-ui")
	require.NoError(t, err)
	w = ts.do(t, http.MethodPost, "/rank", RankRequest{JobDescription: pythonJD, Documents: pool()},
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = 0.001
	cfg.Server.RateBurst = 2
	ts := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		w := ts.do(t, http.MethodPost, "/expand", `{"job_description": "x", "count": 0}`)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := ts.do(t, http.MethodPost, "/expand", `{"job_description": "x", "count": 0}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.True(t, strings.Contains(w.Body.String(), "rate_limit_exceeded"))

	w = ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
