package process

import "strings"

// DefaultChunkSize and DefaultChunkOverlap are the splitter defaults used
// for filing text.
const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 300
)

// defaultSeparators are tried in order, from coarsest to finest.
var defaultSeparators = []string{"\n\n", "\n", ".", " "}

// Splitter breaks long text into overlapping chunks.
//
// It works recursively: the text is split on the coarsest separator that
// appears in it, pieces are merged back together up to the chunk size, and
// any merged run that is still too large is re-split with the remaining,
// finer separators. Adjacent chunks share up to Overlap characters of
// trailing context so that sentences cut at a boundary stay searchable.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewSplitter creates a Splitter with the given chunk size and overlap.
// Non-positive values fall back to the defaults.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultChunkOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 5
		}
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split breaks text into chunks of at most the configured size.
// Whitespace-only chunks are dropped.
func (s *Splitter) Split(text string) []string {
	raw := s.split(text, s.separators)
	chunks := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

func (s *Splitter) split(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		return []string{text}
	}

	// Pick the first separator present in the text; the remaining, finer
	// separators handle oversized merged runs.
	sep := ""
	rest := []string{}
	for i, candidate := range separators {
		if strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}
	if sep == "" {
		return s.hardCut(text)
	}

	pieces := strings.Split(text, sep)

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		merged := strings.Join(current, sep)
		if len(merged) > s.chunkSize {
			chunks = append(chunks, s.split(merged, rest)...)
		} else {
			chunks = append(chunks, merged)
		}
	}

	for _, piece := range pieces {
		pieceLen := len(piece) + len(sep)
		if currentLen+pieceLen > s.chunkSize && currentLen > 0 {
			flush()
			// Keep trailing pieces within the overlap budget as the
			// start of the next chunk.
			for currentLen > s.overlap && len(current) > 0 {
				currentLen -= len(current[0]) + len(sep)
				current = current[1:]
			}
		}
		current = append(current, piece)
		currentLen += pieceLen
	}
	flush()

	return chunks
}

// hardCut slices text at fixed offsets when no separator is available.
func (s *Splitter) hardCut(text string) []string {
	step := s.chunkSize - s.overlap
	if step <= 0 {
		step = s.chunkSize
	}
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}
