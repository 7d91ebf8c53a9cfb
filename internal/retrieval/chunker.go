package retrieval

import "strings"

// Chunk splits extracted document text into word-aligned segments for
// embedding. Words are packed greedily; the running length counts each
// word plus one separator, and the chunk is closed once that length
// passes maxChunkSize. Words are never split, so a chunk may overrun the
// limit by its final word ("alpha beta gamma delta" at size 10 yields
// "alpha beta" and "gamma delta"). The trailing partial chunk is always
// emitted. Empty input yields no chunks.
func Chunk(text string, maxChunkSize int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var chunks []string
	var current []string
	length := 0
	for _, word := range words {
		current = append(current, word)
		length += len(word) + 1
		if length > maxChunkSize {
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
			length = 0
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
