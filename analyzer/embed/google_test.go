package embed

import (
	"context"
	"errors"
	"testing"
)

type fakeGoogleClient struct {
	vectors [][]float32
	fixed   [][]float32 // returned verbatim when set, regardless of input size
	err     error
	calls   int
}

func (f *fakeGoogleClient) batchEmbed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.fixed != nil {
		return f.fixed, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vectors[i%len(f.vectors)]
	}
	return out, nil
}

func TestGoogleEmbedderSuccess(t *testing.T) {
	fake := &fakeGoogleClient{vectors: [][]float32{{0.5, 0.5}}}
	g := &GoogleEmbedder{client: fake, model: DefaultGoogleModel, dims: 768}

	vecs, err := g.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	if g.Dimensions() != 768 {
		t.Errorf("Dimensions() = %d, want 768", g.Dimensions())
	}
}

func TestGoogleEmbedderError(t *testing.T) {
	fake := &fakeGoogleClient{err: &Error{Code: "rate_limited", Retryable: true}}
	g := &GoogleEmbedder{client: fake, model: DefaultGoogleModel, dims: 768}

	_, err := g.Embed(context.Background(), []string{"x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsRetryable(err) {
		t.Errorf("rate limit error should be retryable: %v", err)
	}
}

func TestGoogleEmbedderShapeMismatch(t *testing.T) {
	fake := &fakeGoogleClient{fixed: [][]float32{{1, 2}}}
	g := &GoogleEmbedder{client: fake, model: DefaultGoogleModel, dims: 768}

	_, err := g.Embed(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error for mismatched embedding count")
	}
	var pe *Error
	if !errors.As(err, &pe) || pe.Code != "bad_response" {
		t.Errorf("got %v, want bad_response error", err)
	}
}

func TestGoogleEmbedderEmptyInput(t *testing.T) {
	fake := &fakeGoogleClient{}
	g := &GoogleEmbedder{client: fake, model: DefaultGoogleModel, dims: 768}

	vecs, err := g.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("empty input should not error: %v", err)
	}
	if len(vecs) != 0 || fake.calls != 0 {
		t.Errorf("empty input should short-circuit, got %d vectors, %d calls", len(vecs), fake.calls)
	}
}

func TestMapGoogleError(t *testing.T) {
	cases := []struct {
		in        string
		code      string
		retryable bool
	}{
		{"googleapi: Error 429: RESOURCE_EXHAUSTED", "rate_limited", true},
		{"API key not valid", "invalid_api_key", false},
		{"rpc error: code = Unavailable", "server_error", true},
		{"weird failure", "api_error", false},
	}

	for _, tc := range cases {
		err := mapGoogleError(errors.New(tc.in))
		var pe *Error
		if !errors.As(err, &pe) {
			t.Errorf("mapGoogleError(%q) = %T, want *Error", tc.in, err)
			continue
		}
		if pe.Code != tc.code || pe.Retryable != tc.retryable {
			t.Errorf("mapGoogleError(%q) = {%s %v}, want {%s %v}",
				tc.in, pe.Code, pe.Retryable, tc.code, tc.retryable)
		}
	}
}
