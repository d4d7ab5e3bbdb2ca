package rag

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ragshield/ragshield/llm/embedding"
)

// RetrieverConfig controls retrieval behavior.
type RetrieverConfig struct {
	// TopK is the number of chunks returned per query. Zero means
	// DefaultTopK.
	TopK int
}

// RetrievalRecorder receives the latency of successful retrievals;
// satisfied by the metrics collector. Nil recorders are allowed.
type RetrievalRecorder interface {
	RecordRetrieval(elapsed time.Duration)
}

// Retriever embeds a query and searches the snapshot for its nearest
// chunks. Retrieval failures carry enough context for the caller to
// degrade gracefully instead of surfacing a raw transport error.
type Retriever struct {
	snapshot *Snapshot
	embedder embedding.Provider
	config   RetrieverConfig
	recorder RetrievalRecorder
	logger   *zap.Logger
}

// NewRetriever creates a Retriever over an already-loaded snapshot.
func NewRetriever(snapshot *Snapshot, embedder embedding.Provider, cfg RetrieverConfig, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	return &Retriever{
		snapshot: snapshot,
		embedder: embedder,
		config:   cfg,
		logger:   logger.With(zap.String("component", "retriever")),
	}
}

// SetRecorder attaches a metrics recorder; nil leaves metrics disabled.
func (r *Retriever) SetRecorder(rec RetrievalRecorder) { r.recorder = rec }

// Retrieve embeds query and returns its TopK most similar chunks, best
// first. An embedding failure is wrapped in RetrievalUnavailableError so
// callers can distinguish "retrieval is down" from other errors.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]SearchResult, error) {
	start := time.Now()

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		r.logger.Warn("query embedding failed",
			zap.String("embedder", r.embedder.Name()),
			zap.Error(err))
		return nil, &RetrievalUnavailableError{Cause: err}
	}

	results := r.snapshot.Search(vector, r.config.TopK)
	if r.recorder != nil {
		r.recorder.RecordRetrieval(time.Since(start))
	}

	r.logger.Debug("retrieval complete",
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)))

	return results, nil
}
