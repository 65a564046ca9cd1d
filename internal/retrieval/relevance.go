package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rankfuse/rankfuse/internal/errors"
)

// Cross-encoder service defaults.
const (
	DefaultRelevanceModel   = "cross-encoder-small"
	DefaultRelevanceTimeout = 30 * time.Second
)

// HTTPRelevanceModelConfig holds configuration for the cross-encoder
// service client.
type HTTPRelevanceModelConfig struct {
	// Endpoint is the base URL of the scoring service.
	Endpoint string

	// Model is the model alias sent with each request.
	Model string

	// Timeout bounds a single scoring request.
	Timeout time.Duration
}

// HTTPRelevanceModel scores (query, passage) pairs against a remote
// cross-encoder service, one HTTP call per pair.
type HTTPRelevanceModel struct {
	client *http.Client
	config HTTPRelevanceModelConfig
}

var _ RelevanceModel = (*HTTPRelevanceModel)(nil)

// NewHTTPRelevanceModel creates a cross-encoder client.
func NewHTTPRelevanceModel(cfg HTTPRelevanceModelConfig) (*HTTPRelevanceModel, error) {
	if cfg.Endpoint == "" {
		return nil, errors.InvalidConfig("relevance model endpoint is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultRelevanceModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultRelevanceTimeout
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     30 * time.Second,
		},
	}

	return &HTTPRelevanceModel{client: client, config: cfg}, nil
}

// scoreRequest is the JSON request to the /score endpoint.
type scoreRequest struct {
	Model   string `json:"model"`
	Query   string `json:"query"`
	Passage string `json:"passage"`
}

// scoreResponse is the JSON response from the /score endpoint.
type scoreResponse struct {
	Score float64 `json:"score"`
}

// Score sends one (query, passage) pair to the service.
func (m *HTTPRelevanceModel) Score(ctx context.Context, query, passage string) (float64, error) {
	payload, err := json.Marshal(scoreRequest{
		Model:   m.config.Model,
		Query:   query,
		Passage: passage,
	})
	if err != nil {
		return 0, errors.New(errors.ErrCodeServiceResponse, "failed to encode score request", err)
	}

	url := m.config.Endpoint + "/score"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, errors.New(errors.ErrCodeServiceResponse, "failed to create score request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, errors.New(errors.ErrCodeServiceUnavailable, "relevance service unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, errors.New(errors.ErrCodeServiceResponse,
			fmt.Sprintf("relevance service returned status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var sr scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return 0, errors.New(errors.ErrCodeServiceResponse, "failed to decode score response", err)
	}

	return sr.Score, nil
}

// TermOverlapModel is a deterministic offline relevance model: the
// fraction of distinct query tokens that appear in the passage. It backs
// the CLI when no cross-encoder endpoint is configured.
type TermOverlapModel struct{}

var _ RelevanceModel = (*TermOverlapModel)(nil)

// Score returns |query terms ∩ passage terms| / |query terms|.
func (TermOverlapModel) Score(ctx context.Context, query, passage string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	queryTerms := make(map[string]bool)
	for _, tok := range Tokenize(query) {
		queryTerms[tok] = true
	}
	if len(queryTerms) == 0 {
		return 0, nil
	}

	passageTerms := make(map[string]bool)
	for _, tok := range Tokenize(passage) {
		passageTerms[tok] = true
	}

	matched := 0
	for term := range queryTerms {
		if passageTerms[term] {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTerms)), nil
}
