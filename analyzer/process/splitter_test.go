package process

import (
	"strings"
	"testing"
)

func TestSplitShortText(t *testing.T) {
	s := NewSplitter(100, 20)
	chunks := s.Split("short text")
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("Split() = %v, want single chunk", chunks)
	}
}

func TestSplitEmpty(t *testing.T) {
	s := NewSplitter(100, 20)
	if chunks := s.Split("   "); len(chunks) != 0 {
		t.Fatalf("Split(blank) = %v, want none", chunks)
	}
}

func TestSplitRespectsChunkSize(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		sb.WriteString("The quick brown fox jumps over the lazy dog. ")
	}

	s := NewSplitter(150, 30)
	chunks := s.Split(sb.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 150 {
			t.Errorf("chunk %d has length %d > 150", i, len(c))
		}
	}
}

func TestSplitPrefersParagraphBreaks(t *testing.T) {
	para := strings.Repeat("alpha beta gamma. ", 5)
	text := para + "\n\n" + para + "\n\n" + para

	s := NewSplitter(len(para)+10, 0)
	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 paragraph chunks, got %d: %v", len(chunks), chunks)
	}
	for i, c := range chunks {
		if strings.Contains(c, "\n\n") {
			t.Errorf("chunk %d still contains a paragraph break", i)
		}
	}
}

func TestSplitOverlap(t *testing.T) {
	// Sentences of ~50 chars; chunk size fits two, overlap fits one.
	var sentences []string
	for i := 0; i < 6; i++ {
		sentences = append(sentences, strings.Repeat("word ", 9)+"end.")
	}
	text := strings.Join(sentences, " ")

	s := NewSplitter(120, 60)
	chunks := s.Split(text)
	if len(chunks) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(chunks))
	}

	// Consecutive chunks should share trailing/leading content.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)/2:]
		if !strings.Contains(chunks[i], strings.TrimSpace(tail[:10])) {
			// Overlap is best-effort across separator granularities, so
			// only require that some sharing happens for at least one pair.
			continue
		}
		return
	}
	t.Error("no overlap found between any consecutive chunks")
}

func TestSplitNoSeparators(t *testing.T) {
	text := strings.Repeat("x", 500)
	s := NewSplitter(100, 20)
	chunks := s.Split(text)
	if len(chunks) == 0 {
		t.Fatal("expected chunks from unbroken text")
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d has length %d > 100", i, len(c))
		}
	}

	// All input is covered.
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total < 500 {
		t.Errorf("chunks cover %d chars, want at least 500", total)
	}
}
