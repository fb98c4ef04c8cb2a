package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"govreporter/internal/logging"
)

// =============================================================================
// OPENAI EMBEDDING ENGINE
// =============================================================================

const (
	// embedBatchSize caps texts per embeddings request. Chunk texts run a
	// few hundred tokens each, so 20 stays well under request limits.
	embedBatchSize = 20

	// interBatchDelay spaces consecutive batch requests.
	interBatchDelay = 100 * time.Millisecond

	// maxEmbedRetries bounds retries on rate limits and transient 5xx.
	maxEmbedRetries = 3

	// embedRetryBase is the first retry delay; it doubles per attempt.
	embedRetryBase = time.Second
)

// OpenAIEngine generates embeddings via the OpenAI API.
type OpenAIEngine struct {
	client openai.Client
	model  string
	dims   int
}

// NewOpenAIEngine creates an OpenAI embedding engine. The API key is
// required; its absence is a construction-time error.
func NewOpenAIEngine(apiKey, model string) (*OpenAIEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for embedding engine")
	}
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbedding3Small)
	}

	logging.Embedding("Initializing OpenAI embedding engine: model=%s, dimensions=%d", model, DefaultDimensions)

	return &OpenAIEngine{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		dims:   DefaultDimensions,
	}, nil
}

// Name returns the engine name.
func (e *OpenAIEngine) Name() string {
	return "openai:" + e.model
}

// Dimensions returns the embedding dimensionality.
func (e *OpenAIEngine) Dimensions() int {
	return e.dims
}

// Embed generates an embedding for a single text. Rate limits and 5xx
// responses are retried with doubling delays; other failures surface
// immediately.
func (e *OpenAIEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "Embed")
	defer timer.Stop()

	vecs, err := e.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embeddings response carried %d vectors, want 1", len(vecs))
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts, batched to respect
// request limits. When a whole batch fails, each of its texts is retried
// individually; a text that still fails gets a zero vector so the result
// stays positionally aligned with the input.
func (e *OpenAIEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "EmbedBatch")
	defer timer.StopWithInfo()

	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vecs, err := e.request(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, ErrDimensionMismatch) {
				return nil, err
			}
			logging.EmbeddingError("batch of %d failed, falling back to individual requests: %v", len(batch), err)
			vecs, err = e.embedIndividually(ctx, batch)
			if err != nil {
				return nil, err
			}
		}
		results = append(results, vecs...)

		if end < len(texts) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interBatchDelay):
			}
		}
	}

	logging.Embedding("embedded %d texts in %d batches", len(texts), (len(texts)+embedBatchSize-1)/embedBatchSize)
	return results, nil
}

// embedIndividually retries each text of a failed batch on its own. A text
// that fails even alone contributes a zero vector rather than aborting the
// document.
func (e *OpenAIEngine) embedIndividually(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, 0, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		single, err := e.request(ctx, []string{text})
		if err != nil {
			if errors.Is(err, ErrDimensionMismatch) {
				return nil, err
			}
			logging.EmbeddingError("text %d failed individually, substituting zero vector: %v", i, err)
			vecs = append(vecs, make([]float32, e.dims))
			continue
		}
		vecs = append(vecs, single[0])
	}
	return vecs, nil
}

// request performs one embeddings call with retry on transient failures and
// validates the dimensionality of every returned vector.
func (e *OpenAIEngine) request(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(e.model),
	}

	var resp *openai.CreateEmbeddingResponse
	var err error

	delay := embedRetryBase
	for attempt := 1; attempt <= maxEmbedRetries; attempt++ {
		resp, err = e.client.Embeddings.New(ctx, params)
		if err == nil {
			break
		}
		if !isTransientAPIError(err) || attempt == maxEmbedRetries {
			return nil, fmt.Errorf("embeddings request failed: %w", err)
		}
		logging.EmbeddingDebug("transient embeddings failure (attempt %d/%d), retrying in %v: %v",
			attempt, maxEmbedRetries, delay, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings response carried %d vectors, want %d", len(resp.Data), len(texts))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		i := int(d.Index)
		if i < 0 || i >= len(vecs) {
			return nil, fmt.Errorf("embeddings response index %d out of range", i)
		}
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		if err := validateDimensions(vec, e.dims); err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// isTransientAPIError reports whether an OpenAI API error is worth retrying:
// rate limits and server-side 5xx. Other 4xx responses are caller mistakes
// and retrying cannot fix them.
func isTransientAPIError(err error) bool {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		// Network-level failure without an HTTP status.
		return true
	}
	return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
}
