package rag

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChunkingConfig controls the sliding-window chunker.
type ChunkingConfig struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int `json:"chunk_size"`
	// ChunkOverlap is the number of characters shared between consecutive
	// chunks of the same document.
	ChunkOverlap int `json:"chunk_overlap"`
}

// DefaultChunkingConfig returns the production defaults.
func DefaultChunkingConfig() ChunkingConfig {
	return ChunkingConfig{
		ChunkSize:    1000,
		ChunkOverlap: 100,
	}
}

// Chunker splits documents into fixed-size overlapping windows, preferring
// paragraph and sentence boundaries when one falls in the tail half of the
// window.
type Chunker struct {
	config ChunkingConfig
	logger *zap.Logger
}

// NewChunker creates a chunker, normalizing degenerate configuration.
func NewChunker(config ChunkingConfig, logger *zap.Logger) *Chunker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkingConfig().ChunkSize
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = 0
	}
	if config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 10
	}
	return &Chunker{
		config: config,
		logger: logger.With(zap.String("component", "chunker")),
	}
}

// ChunkDocument splits one document. Every chunk is at most ChunkSize
// characters; consecutive chunks share exactly ChunkOverlap characters.
// Provenance fields are carried onto every chunk.
func (c *Chunker) ChunkDocument(doc Document) []Chunk {
	runes := []rune(doc.Content)
	if len(runes) == 0 {
		return nil
	}

	var chunks []Chunk
	start := 0
	for start < len(runes) {
		end := start + c.config.ChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = c.adjustToBoundary(runes, start, end)
		}

		chunks = append(chunks, Chunk{
			ID:          uuid.NewString(),
			Text:        string(runes[start:end]),
			SourceID:    doc.SourceID,
			PageNumber:  doc.PageNumber,
			ContentType: doc.ContentType,
		})

		if end == len(runes) {
			break
		}
		next := end - c.config.ChunkOverlap
		if next <= start {
			// Progress guard for windows smaller than the overlap.
			next = end
		}
		start = next
	}

	return chunks
}

// ChunkDocuments splits a batch of documents, preserving document order.
func (c *Chunker) ChunkDocuments(docs []Document) []Chunk {
	var chunks []Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.ChunkDocument(doc)...)
	}
	c.logger.Debug("documents chunked",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)))
	return chunks
}

// adjustToBoundary moves the window end backwards to the nearest paragraph,
// sentence or word boundary, searching only the tail half of the window so
// chunks never collapse below half the configured size.
func (c *Chunker) adjustToBoundary(runes []rune, start, end int) int {
	mid := start + (end-start)/2
	sentenceCut := -1
	spaceCut := -1

	for i := end - 1; i > mid; i-- {
		r := runes[i]
		if r == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
		if sentenceCut < 0 && isSentenceEnd(r) {
			sentenceCut = i + 1
		}
		if spaceCut < 0 && (r == ' ' || r == '\t' || r == '\n') {
			spaceCut = i
		}
	}

	if sentenceCut > 0 {
		return sentenceCut
	}
	if spaceCut > 0 {
		return spaceCut
	}
	return end
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '\n', '。', '！', '？':
		return true
	default:
		return false
	}
}
