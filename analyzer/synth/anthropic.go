package synth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/shelby-garrison/SEC-Filing/analyzer/index"
)

const (
	// DefaultAnthropicModel is the model used when none is configured.
	DefaultAnthropicModel = "claude-sonnet-4-20250514"

	// maxAnswerTokens caps the length of a synthesized answer.
	maxAnswerTokens = 4096

	// maxExcerptChars truncates a single excerpt before it enters the
	// prompt, keeping long 10-K sections from crowding out the rest.
	maxExcerptChars = 2000

	maxRetries = 3
	retryDelay = 2 * time.Second
)

// anthropicMessageClient is the narrow slice of the Anthropic SDK the
// synthesizer needs. Tests substitute a fake.
type anthropicMessageClient interface {
	createMessage(ctx context.Context, model, prompt string) (text string, tokens int, err error)
}

// AnthropicSynthesizer answers questions with Claude, grounding the
// prompt in the retrieved excerpts. Safe for concurrent use.
type AnthropicSynthesizer struct {
	client anthropicMessageClient
	model  string
}

// NewAnthropicSynthesizer creates a synthesizer backed by the Anthropic
// API. An empty model selects DefaultAnthropicModel.
func NewAnthropicSynthesizer(apiKey, model string) *AnthropicSynthesizer {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &AnthropicSynthesizer{
		client: newAnthropicSDKClient(apiKey),
		model:  model,
	}
}

// Synthesize builds a grounded prompt from the request and calls Claude,
// retrying transient failures. With no excerpts it returns a fixed
// "no relevant filings" answer without calling the API.
func (s *AnthropicSynthesizer) Synthesize(ctx context.Context, req Request) (Answer, error) {
	start := time.Now()

	if len(req.Results) == 0 {
		return Answer{
			Text:     "No relevant filing excerpts were found for this question.",
			Duration: time.Since(start),
		}, nil
	}

	prompt := buildPrompt(req)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Answer{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryDelay):
			}
		}

		text, tokens, err := s.client.createMessage(ctx, s.model, prompt)
		if err != nil {
			lastErr = mapAnthropicError(err)
			if !IsRetryable(lastErr) {
				return Answer{}, lastErr
			}
			continue
		}

		return Answer{
			Text:       text,
			Sources:    sourceIDs(req.Results),
			TokensUsed: tokens,
			Duration:   time.Since(start),
		}, nil
	}
	return Answer{}, lastErr
}

func sourceIDs(results []index.Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Chunk.Meta.ChunkID()
	}
	return ids
}

// buildPrompt lays out the question and each excerpt with its filing
// provenance so the answer can cite companies and periods accurately.
func buildPrompt(req Request) string {
	var sb strings.Builder

	sb.WriteString("You are a financial analyst answering questions about SEC filings. ")
	sb.WriteString("Answer the question using only the filing excerpts below. ")
	sb.WriteString("Cite the company and filing when you use an excerpt. ")
	sb.WriteString("If the excerpts do not contain the answer, say so plainly.\n\n")

	sb.WriteString("Question: ")
	sb.WriteString(req.Question)
	sb.WriteString("\n\nFiling excerpts:\n\n")

	for i, r := range req.Results {
		meta := r.Chunk.Meta
		fmt.Fprintf(&sb, "[%d] %s (%s) %s filed %s, section %s:\n",
			i+1, meta.CompanyName, meta.Ticker, meta.Form,
			meta.FiledAt.Format("2006-01-02"), meta.Section)
		content := r.Chunk.Text
		if len(content) > maxExcerptChars {
			content = content[:maxExcerptChars]
		}
		sb.WriteString(content)
		sb.WriteString("\n\n")
	}

	return sb.String()
}

// mapAnthropicError classifies SDK failures the same way the embedding
// clients do, by inspecting the error text.
func mapAnthropicError(err error) error {
	if err == context.Canceled || err == context.DeadlineExceeded {
		return &Error{Code: "timeout", Message: "request cancelled or timed out", Retryable: true}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"),
		strings.Contains(msg, "authentication"), strings.Contains(msg, "api_key"):
		return &Error{Code: "invalid_api_key", Message: "API key is invalid or expired", Retryable: false}
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate_limit"),
		strings.Contains(msg, "too many requests"):
		return &Error{Code: "rate_limited", Message: "API rate limit exceeded", Retryable: true}
	case strings.Contains(msg, "quota"), strings.Contains(msg, "billing"):
		return &Error{Code: "quota_exceeded", Message: "API quota exceeded", Retryable: false}
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return &Error{Code: "timeout", Message: "request timed out", Retryable: true}
	case strings.Contains(msg, "500"), strings.Contains(msg, "502"),
		strings.Contains(msg, "503"), strings.Contains(msg, "overloaded"):
		return &Error{Code: "server_error", Message: "Anthropic API server error", Retryable: true}
	default:
		return &Error{Code: "api_error", Message: fmt.Sprintf("Anthropic API error: %v", err), Retryable: false}
	}
}

// anthropicSDKClient adapts the official SDK to anthropicMessageClient.
type anthropicSDKClient struct {
	sdk *anthropic.Client
}

func newAnthropicSDKClient(apiKey string) *anthropicSDKClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &anthropicSDKClient{sdk: &client}
}

func (c *anthropicSDKClient) createMessage(ctx context.Context, model, prompt string) (string, int, error) {
	message, err := c.sdk.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxAnswerTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", 0, err
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	tokens := int(message.Usage.InputTokens + message.Usage.OutputTokens)
	return text.String(), tokens, nil
}
