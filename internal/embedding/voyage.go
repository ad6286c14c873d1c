// Package embedding is a small VoyageAI embeddings client used for the
// catalog's semantic search.
package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
)

const (
	voyageAPIURL       = "https://api.voyageai.com/v1/embeddings"
	defaultModel       = "voyage-3-lite"
	defaultBatchSize   = 128
	defaultHTTPTimeout = 30 * time.Second

	// Dimensions is the vector size of the default model; the catalog_items
	// embedding column is declared with it.
	Dimensions = 512
)

// Input types accepted by the API.
const (
	InputDocument = "document"
	InputQuery    = "query"
)

// Embedder turns texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string, inputType string) ([][]float32, error)
}

// Client is a lightweight VoyageAI embeddings HTTP client.
type Client struct {
	apiKey     string
	model      string
	url        string
	attempts   uint
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithURL points the client at another endpoint.
func WithURL(u string) Option { return func(c *Client) { c.url = u } }

// WithAttempts sets how many times a request is tried.
func WithAttempts(n uint) Option { return func(c *Client) { c.attempts = n } }

// NewClient creates a VoyageAI embedding client.
// If model is empty, it defaults to "voyage-3-lite".
func NewClient(apiKey, model string, opts ...Option) *Client {
	if model == "" {
		model = defaultModel
	}
	c := &Client{
		apiKey:     apiKey,
		model:      model,
		url:        voyageAPIURL,
		attempts:   3,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type embeddingRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type voyageErrorResponse struct {
	Detail string `json:"detail"`
}

// APIError is a non-200 answer from the API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("voyage API %d: %s", e.Status, e.Detail)
}

// Embed embeds texts in a single request, returning vectors in input order.
// inputType is InputDocument for stored content or InputQuery for searches.
// Rate limits and server errors are retried.
func (c *Client) Embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	body, err := json.Marshal(embeddingRequest{Input: texts, Model: c.model, InputType: inputType})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := retry.DoWithData(
		func() (*embeddingResponse, error) { return c.post(ctx, body) },
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500
			}
			return !errors.Is(err, context.Canceled)
		}),
	)
	if err != nil {
		return nil, err
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index >= 0 && d.Index < len(embeddings) {
			embeddings[d.Index] = d.Embedding
		}
	}
	for i, e := range embeddings {
		if e == nil {
			return nil, fmt.Errorf("voyage API returned no embedding for input %d", i)
		}
	}
	return embeddings, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*embeddingResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var voyageErr voyageErrorResponse
		_ = json.Unmarshal(respBody, &voyageErr)
		return nil, &APIError{Status: resp.StatusCode, Detail: voyageErr.Detail}
	}

	var out embeddingResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("unmarshal response: %w", err))
	}
	return &out, nil
}

// ProgressFunc is called after each batch completes during EmbedBatch.
type ProgressFunc func(batchIndex, totalBatches int)

// EmbedBatch splits texts into batches of batchSize and embeds each batch.
// Results keep input order. onProgress may be nil.
func EmbedBatch(ctx context.Context, e Embedder, texts []string, inputType string, batchSize int, onProgress ProgressFunc) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	total := (len(texts) + batchSize - 1) / batchSize
	all := make([][]float32, 0, len(texts))
	for i, n := 0, 1; i < len(texts); i, n = i+batchSize, n+1 {
		end := min(i+batchSize, len(texts))
		batch, err := e.Embed(ctx, texts[i:end], inputType)
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", i, end, err)
		}
		all = append(all, batch...)
		if onProgress != nil {
			onProgress(n, total)
		}
	}
	return all, nil
}
