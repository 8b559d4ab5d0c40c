package ingestion

import "strings"

// DefaultChunkSize is the target chunk length in characters for SplitText.
const DefaultChunkSize = 1000

// SplitText splits plain text into chunks of roughly chunkSize characters,
// breaking on paragraph boundaries where possible. A paragraph longer than
// chunkSize becomes its own oversized chunk rather than being split
// mid-sentence. Whitespace-only input yields no chunks.
func SplitText(text string, chunkSize int) []ChunkInput {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}

	var chunks []ChunkInput
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, ChunkInput{Text: current.String()})
			current.Reset()
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(para) > chunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return chunks
}
