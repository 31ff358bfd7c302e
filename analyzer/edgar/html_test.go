package edgar

import (
	"strings"
	"testing"
)

func TestExtractTextBasic(t *testing.T) {
	doc := `<html><body>
		<h1>Item 1. Business</h1>
		<p>We design and sell consumer electronics.</p>
	</body></html>`

	text, err := ExtractText(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}

	lines := strings.Split(text, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), text)
	}
	if lines[0] != "Item 1. Business" {
		t.Errorf("lines[0] = %q", lines[0])
	}
	if lines[1] != "We design and sell consumer electronics." {
		t.Errorf("lines[1] = %q", lines[1])
	}
}

func TestExtractTextStripsScriptAndStyle(t *testing.T) {
	doc := `<html><head><style>body { color: red }</style></head><body>
		<script>var x = 1;</script>
		<p>Visible content</p>
	</body></html>`

	text, err := ExtractText(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if strings.Contains(text, "color: red") || strings.Contains(text, "var x") {
		t.Errorf("script/style content leaked: %q", text)
	}
	if !strings.Contains(text, "Visible content") {
		t.Errorf("visible content missing: %q", text)
	}
}

func TestExtractTextPrefersWrapper(t *testing.T) {
	doc := `<html><body>
		<p>outside the wrapper</p>
		<document>
			<p>inside the wrapper</p>
		</document>
	</body></html>`

	text, err := ExtractText(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if !strings.Contains(text, "inside the wrapper") {
		t.Errorf("wrapper content missing: %q", text)
	}
	if strings.Contains(text, "outside the wrapper") {
		t.Errorf("content outside wrapper should be excluded: %q", text)
	}
}

func TestExtractTextCollapsesWhitespace(t *testing.T) {
	doc := "<html><body><p>spaced\t\tout    words</p></body></html>"

	text, err := ExtractText(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if text != "spaced out words" {
		t.Errorf("text = %q, want %q", text, "spaced out words")
	}
}

func TestExtractTextEmptyDocument(t *testing.T) {
	text, err := ExtractText(strings.NewReader("<html><body></body></html>"))
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}
