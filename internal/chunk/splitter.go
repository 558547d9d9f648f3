// Package chunk splits redacted text into bounded, overlapping windows for
// embedding.
package chunk

import "strings"

// Default window geometry, matching the ingestion pipeline contract.
const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Splitter produces overlapping chunks of at most Size runes, preferring to
// cut at structural boundaries: paragraph break, then line break, then
// sentence end, then word boundary, then a hard cut.
//
// Every chunk is a verbatim slice of the input: nothing is trimmed,
// reordered or lost, so the original content order can be reconstructed by
// dropping each chunk's overlapping head.
type Splitter struct {
	size    int
	overlap int
}

// NewSplitter creates a splitter. Non-positive size or a negative/too-large
// overlap fall back to the defaults.
func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultOverlap
		if overlap >= size {
			overlap = size / 5
		}
	}
	return &Splitter{size: size, overlap: overlap}
}

// Split returns the chunk sequence for text, in original order.
// Empty or whitespace-only input yields zero chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	var chunks []string
	start := 0
	for {
		if len(runes)-start <= s.size {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}

		cut := s.cutPoint(runes, start, start+s.size)
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - s.overlap
		if next <= start {
			next = start + 1 // always make progress
		}
		start = next
	}
}

// cutPoint picks where to end the chunk starting at start, scanning the
// window [start, limit) backwards for the most structural boundary. A
// boundary is only used when it leaves at least half a window of content;
// otherwise the next weaker boundary is tried, ending with a hard cut.
func (s *Splitter) cutPoint(runes []rune, start, limit int) int {
	minCut := start + s.size/2

	if cut := lastBoundary(runes, minCut, limit, isParagraphBreak); cut > 0 {
		return cut
	}
	if cut := lastBoundary(runes, minCut, limit, isLineBreak); cut > 0 {
		return cut
	}
	if cut := lastBoundary(runes, minCut, limit, isSentenceEnd); cut > 0 {
		return cut
	}
	if cut := lastBoundary(runes, minCut, limit, isWordBreak); cut > 0 {
		return cut
	}
	return limit
}

// lastBoundary returns the greatest cut in (minCut, limit] for which
// boundary(runes, cut) holds, or 0 if none.
func lastBoundary(runes []rune, minCut, limit int, boundary func([]rune, int) bool) int {
	for cut := limit; cut > minCut; cut-- {
		if boundary(runes, cut) {
			return cut
		}
	}
	return 0
}

// isParagraphBreak reports whether the text directly before cut ends a
// paragraph ("\n\n").
func isParagraphBreak(runes []rune, cut int) bool {
	return cut >= 2 && runes[cut-1] == '\n' && runes[cut-2] == '\n'
}

func isLineBreak(runes []rune, cut int) bool {
	return cut >= 1 && runes[cut-1] == '\n'
}

// isSentenceEnd reports whether cut sits just after sentence-ending
// punctuation followed by a space.
func isSentenceEnd(runes []rune, cut int) bool {
	if cut < 2 || runes[cut-1] != ' ' {
		return false
	}
	switch runes[cut-2] {
	case '.', '!', '?':
		return true
	}
	return false
}

func isWordBreak(runes []rune, cut int) bool {
	return cut >= 1 && runes[cut-1] == ' '
}
