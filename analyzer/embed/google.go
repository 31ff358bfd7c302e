package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGoogleModel is the Gemini embedding model used when none is
// specified.
const DefaultGoogleModel = "text-embedding-004"

var googleModelDimensions = map[string]int{
	"text-embedding-004": 768,
	"embedding-001":      768,
}

// GoogleEmbedder implements Embedder using Google's Gemini embeddings.
//
// Call Close when done to release the underlying client.
type GoogleEmbedder struct {
	client googleEmbeddingClient
	closer func() error
	model  string
	dims   int
}

// googleEmbeddingClient is the narrow SDK surface used here, extracted
// so tests can inject a fake.
type googleEmbeddingClient interface {
	batchEmbed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// NewGoogleEmbedder creates a GoogleEmbedder. An empty model selects
// DefaultGoogleModel.
func NewGoogleEmbedder(ctx context.Context, apiKey, model string) (*GoogleEmbedder, error) {
	if apiKey == "" {
		return nil, &Error{Code: "missing_api_key", Message: "Google API key is required"}
	}
	if model == "" {
		model = DefaultGoogleModel
	}
	dims, ok := googleModelDimensions[model]
	if !ok {
		dims = googleModelDimensions[DefaultGoogleModel]
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create Google client: %w", err)
	}

	return &GoogleEmbedder{
		client: &googleSDKClient{client: client},
		closer: client.Close,
		model:  model,
		dims:   dims,
	}, nil
}

// Embed implements Embedder.
func (g *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := g.client.batchEmbed(ctx, g.model, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, &Error{
			Code:    "bad_response",
			Message: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(vectors)),
		}
	}
	return vectors, nil
}

// Dimensions implements Embedder.
func (g *GoogleEmbedder) Dimensions() int {
	return g.dims
}

// Close releases the underlying Gemini client.
func (g *GoogleEmbedder) Close() error {
	if g.closer != nil {
		return g.closer()
	}
	return nil
}

// googleSDKClient wraps the official generative-ai-go SDK.
type googleSDKClient struct {
	client *genai.Client
}

func (c *googleSDKClient) batchEmbed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	em := c.client.EmbeddingModel(model)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, mapGoogleError(err)
	}

	vectors := make([][]float32, len(res.Embeddings))
	for i, e := range res.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

func mapGoogleError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: "timeout", Message: "Gemini request timed out", Retryable: true}
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "429"), strings.Contains(lower, "resource_exhausted"),
		strings.Contains(lower, "rate limit"):
		return &Error{Code: "rate_limited", Message: "Gemini rate limit exceeded", Retryable: true}
	case strings.Contains(lower, "api key"), strings.Contains(lower, "401"),
		strings.Contains(lower, "permission_denied"), strings.Contains(lower, "unauthenticated"):
		return &Error{Code: "invalid_api_key", Message: "Google API key is invalid or unauthorized"}
	case strings.Contains(lower, "500"), strings.Contains(lower, "503"),
		strings.Contains(lower, "unavailable"), strings.Contains(lower, "internal"):
		return &Error{Code: "server_error", Message: fmt.Sprintf("Gemini server error: %v", err), Retryable: true}
	}
	return &Error{Code: "api_error", Message: fmt.Sprintf("Gemini API error: %v", err)}
}
