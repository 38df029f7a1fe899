// Package stream provides the presentation-only text transforms applied to
// tool output before it is emitted as token events: a fixed-size chunker for
// internal tools and pacing transforms (typewriter, line-by-line) for
// communication-channel tools.
package stream

// DefaultChunkSize is the fixed chunk length used for internal tool output.
const DefaultChunkSize = 120

// Chunks splits text into fixed-size rune chunks. Empty input yields a nil
// slice, never a chunk with empty text. A non-positive size falls back to
// DefaultChunkSize.
func Chunks(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	runes := []rune(text)
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
