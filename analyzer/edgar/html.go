package edgar

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ExtractText converts a filing document to plain text.
//
// EDGAR primary documents are HTML, sometimes wrapped in SGML-era
// <document>/<text> containers. When such a container exists its
// subtree is preferred; otherwise the whole document is used. Script
// and style content is dropped, each text run becomes its own line,
// and blank lines are removed. Line structure is preserved so that
// downstream section detection can match headings.
func ExtractText(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	start := root
	if wrapper := findWrapper(root); wrapper != nil {
		start = wrapper
	}

	var lines []string
	collectText(start, &lines)
	return strings.Join(lines, "\n"), nil
}

// findWrapper locates the innermost EDGAR content container, if any.
func findWrapper(n *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "text", "document", "filing-content":
				found = n
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if found == nil {
				walk(child)
			}
		}
	}
	walk(n)
	return found
}

func collectText(n *html.Node, lines *[]string) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript":
			return
		}
	}
	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			// Collapse internal runs of whitespace within the node.
			*lines = append(*lines, strings.Join(strings.Fields(text), " "))
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, lines)
	}
}
