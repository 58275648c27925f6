package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ehcaw/codegraph/internal/config"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrEmptyText is returned when asked to embed blank input, which the API
// rejects anyway.
var ErrEmptyText = errors.New("cannot embed empty text")

// ErrMissingAPIKey is returned when GEMINI_API_KEY is not set. Embedding jobs
// fail individually; the rest of the ingest proceeds metadata-only.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY environment variable not set")

// Gemini calls the Gemini embedContent endpoint with its own connection pool
// and token bucket (defaults: 3000 idle connections, 30 s timeout,
// 4000 requests/minute).
type Gemini struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	model      string
	baseURL    string
}

// NewGemini creates a Gemini embedding client from the configuration.
func NewGemini(cfg config.EmbeddingConfig) *Gemini {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		IdleConnTimeout:     cfg.Timeout,
	}

	interval := time.Minute / time.Duration(cfg.RequestsPerMin)
	return &Gemini{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(rate.Every(interval), cfg.RequestsPerMin/60+1),
		model:   cfg.Model,
		baseURL: defaultBaseURL,
	}
}

type embedRequest struct {
	Model    string       `json:"model"`
	Content  embedContent `json:"content"`
	TaskType string       `json:"task_type"`
}

type embedContent struct {
	Parts []embedPart `json:"parts"`
}

type embedPart struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// Embed requests a semantic-similarity embedding for the given text. It
// blocks on the rate limiter, so callers bound their own parallelism.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload := embedRequest{
		Model:    "models/" + g.model,
		Content:  embedContent{Parts: []embedPart{{Text: text}}},
		TaskType: "SEMANTIC_SIMILARITY",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:embedContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding API returned status %d: %s", resp.StatusCode, string(raw))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(decoded.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding response missing values")
	}

	return decoded.Embedding.Values, nil
}
