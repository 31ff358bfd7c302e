package embed

import (
	"context"
	"math"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestLocalEmbedderDeterministic(t *testing.T) {
	ctx := context.Background()
	l := NewLocalEmbedder(128)

	a, err := l.Embed(ctx, []string{"revenue grew strongly"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	b, err := l.Embed(ctx, []string{"revenue grew strongly"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(a) != 1 || len(a[0]) != 128 {
		t.Fatalf("unexpected shape: %d x %d", len(a), len(a[0]))
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, a[0][i], b[0][i])
		}
	}
}

func TestLocalEmbedderNormalized(t *testing.T) {
	l := NewLocalEmbedder(0) // default dims
	if l.Dimensions() != DefaultLocalDimensions {
		t.Fatalf("Dimensions() = %d, want %d", l.Dimensions(), DefaultLocalDimensions)
	}

	vecs, err := l.Embed(context.Background(), []string{"apple reported record revenue"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	var norm float64
	for _, x := range vecs[0] {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("vector norm = %v, want 1", norm)
	}
}

func TestLocalEmbedderSimilarity(t *testing.T) {
	ctx := context.Background()
	l := NewLocalEmbedder(256)

	vecs, err := l.Embed(ctx, []string{
		"risk factors related to supply chain disruption",
		"supply chain risk and component shortages",
		"quarterly dividend declared by the board",
	})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	related := cosine(vecs[0], vecs[1])
	unrelated := cosine(vecs[0], vecs[2])
	if related <= unrelated {
		t.Errorf("related similarity %v should exceed unrelated %v", related, unrelated)
	}
}

func TestLocalEmbedderEmptyText(t *testing.T) {
	l := NewLocalEmbedder(64)
	vecs, err := l.Embed(context.Background(), []string{""})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	for _, x := range vecs[0] {
		if x != 0 {
			t.Fatal("empty text should produce zero vector")
		}
	}
}

func TestLocalEmbedderContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLocalEmbedder(64)
	if _, err := l.Embed(ctx, []string{"text"}); err == nil {
		t.Fatal("expected context error")
	}
}
