package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is the embedding model used when none is specified.
const DefaultOpenAIModel = "text-embedding-3-small"

// openAIModelDimensions maps known embedding models to their vector size.
var openAIModelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedder implements Embedder using OpenAI's embeddings API.
//
// The embedder retries transient failures (rate limits, timeouts, 5xx)
// with linear backoff and fails fast on permanent errors (invalid key,
// quota). It is safe for concurrent use.
type OpenAIEmbedder struct {
	client     openaiEmbeddingClient
	model      string
	dims       int
	maxRetries int
	retryDelay time.Duration
}

// openaiEmbeddingClient is the narrow surface of the OpenAI SDK used
// here, extracted so tests can inject a fake.
type openaiEmbeddingClient interface {
	createEmbeddings(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// NewOpenAIEmbedder creates an OpenAIEmbedder.
//
// An empty model selects DefaultOpenAIModel. Unknown models are accepted
// and assume the small-model vector size.
func NewOpenAIEmbedder(apiKey, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, &Error{Code: "missing_api_key", Message: "OpenAI API key is required"}
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	dims, ok := openAIModelDimensions[model]
	if !ok {
		dims = openAIModelDimensions[DefaultOpenAIModel]
	}
	sdk := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIEmbedder{
		client:     &openaiSDKClient{client: &sdk},
		model:      model,
		dims:       dims,
		maxRetries: 3,
		retryDelay: time.Second,
	}, nil
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		vectors, err := e.client.createEmbeddings(ctx, e.model, texts)
		if err == nil {
			if len(vectors) != len(texts) {
				return nil, &Error{
					Code:    "bad_response",
					Message: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(vectors)),
				}
			}
			return vectors, nil
		}

		lastErr = err
		if !IsRetryable(err) || attempt >= e.maxRetries {
			break
		}

		select {
		case <-time.After(e.retryDelay * time.Duration(attempt+1)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// Dimensions implements Embedder.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dims
}

// openaiSDKClient wraps the official openai-go SDK.
type openaiSDKClient struct {
	client *openai.Client
}

func (c *openaiSDKClient) createEmbeddings(ctx context.Context, model string, texts []string) ([][]float32, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Data) == 0 {
		return nil, &Error{Code: "bad_response", Message: "no embeddings in response"}
	}

	vectors := make([][]float32, len(texts))
	for _, datum := range resp.Data {
		idx := int(datum.Index)
		if idx < 0 || idx >= len(vectors) {
			return nil, &Error{Code: "bad_response", Message: fmt.Sprintf("embedding index %d out of range", idx)}
		}
		vec := make([]float32, len(datum.Embedding))
		for i, v := range datum.Embedding {
			vec[i] = float32(v)
		}
		vectors[idx] = vec
	}
	for i, v := range vectors {
		if v == nil {
			return nil, &Error{Code: "bad_response", Message: fmt.Sprintf("no embedding returned for input %d", i)}
		}
	}
	return vectors, nil
}

// mapOpenAIError classifies SDK errors as retryable or permanent.
func mapOpenAIError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: "timeout", Message: "OpenAI request timed out", Retryable: true}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "429"),
		strings.Contains(lower, "too many requests"):
		return &Error{Code: "rate_limited", Message: "OpenAI rate limit exceeded", Retryable: true}
	case strings.Contains(lower, "invalid api key"),
		strings.Contains(lower, "incorrect api key"),
		strings.Contains(lower, "401"),
		strings.Contains(lower, "unauthorized"):
		return &Error{Code: "invalid_api_key", Message: "OpenAI API key is invalid or expired"}
	case strings.Contains(lower, "quota"),
		strings.Contains(lower, "billing"):
		return &Error{Code: "quota_exceeded", Message: "OpenAI quota exceeded"}
	case strings.Contains(lower, "500"),
		strings.Contains(lower, "502"),
		strings.Contains(lower, "503"),
		strings.Contains(lower, "504"),
		strings.Contains(lower, "internal server error"),
		strings.Contains(lower, "service unavailable"):
		return &Error{Code: "server_error", Message: fmt.Sprintf("OpenAI server error: %v", err), Retryable: true}
	case strings.Contains(lower, "connection"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "network"):
		return &Error{Code: "network_error", Message: fmt.Sprintf("network error calling OpenAI: %v", err), Retryable: true}
	}
	return &Error{Code: "api_error", Message: fmt.Sprintf("OpenAI API error: %v", err)}
}
