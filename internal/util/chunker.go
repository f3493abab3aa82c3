package util

import (
	"strings"
	"unicode"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100
)

// TextChunk is one window of words. StartOffset and EndOffset are byte
// offsets into the text passed to ChunkText.
type TextChunk struct {
	Text        string `json:"text"`
	TokenCount  int    `json:"token_count"`
	ChunkIndex  int    `json:"chunk_index"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

type wordSpan struct {
	start, end int
}

// ChunkText splits text into overlapping windows of chunkSize whitespace
// delimited words, stepping chunkSize-chunkOverlap words at a time. The last
// window ends at the final word even when it is shorter than chunkSize.
func ChunkText(text string, chunkSize, chunkOverlap int) ([]TextChunk, error) {
	if chunkSize <= 0 {
		return nil, Validation("chunk", "chunk_size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, Validation("chunk", "chunk_overlap must not be negative, got %d", chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, Validation("chunk", "chunk_overlap must be smaller than chunk_size")
	}

	spans := splitWords(text)
	out := make([]TextChunk, 0, len(spans)/(chunkSize-chunkOverlap)+1)
	start := 0
	for start < len(spans) {
		end := start + chunkSize
		if end > len(spans) {
			end = len(spans)
		}
		words := make([]string, 0, end-start)
		for _, s := range spans[start:end] {
			words = append(words, text[s.start:s.end])
		}
		out = append(out, TextChunk{
			Text:        strings.Join(words, " "),
			TokenCount:  end - start,
			ChunkIndex:  len(out),
			StartOffset: spans[start].start,
			EndOffset:   spans[end-1].end,
		})
		if end == len(spans) {
			break
		}
		start = end - chunkOverlap
		if start < 0 {
			start = 0
		}
	}
	return out, nil
}

func splitWords(text string) []wordSpan {
	spans := make([]wordSpan, 0, 64)
	inWord := false
	begin := 0
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord {
				spans = append(spans, wordSpan{start: begin, end: i})
				inWord = false
			}
			continue
		}
		if !inWord {
			begin = i
			inWord = true
		}
	}
	if inWord {
		spans = append(spans, wordSpan{start: begin, end: len(text)})
	}
	return spans
}
