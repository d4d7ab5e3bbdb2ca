package rag

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SourceLoader loads a single source file into documents. It is satisfied
// by loader.Registry; the ingester only needs routing and loading.
type SourceLoader interface {
	Load(ctx context.Context, source string) ([]Document, error)
	Supports(source string) bool
}

// IngesterConfig controls ingestion behavior.
type IngesterConfig struct {
	// Concurrency bounds how many source files are loaded in parallel.
	Concurrency int

	// Chunking configures the sliding-window chunker applied to every
	// loaded document.
	Chunking ChunkingConfig
}

// DefaultIngesterConfig returns the default ingestion configuration.
func DefaultIngesterConfig() IngesterConfig {
	return IngesterConfig{
		Concurrency: 4,
		Chunking:    DefaultChunkingConfig(),
	}
}

// Ingester walks a corpus directory, loads every supported file and chunks
// the resulting documents. Unsupported files are skipped silently;
// unreadable files are logged and skipped so one bad file never sinks a
// whole ingestion run.
type Ingester struct {
	loader  SourceLoader
	chunker *Chunker
	config  IngesterConfig
	logger  *zap.Logger
}

// NewIngester creates an Ingester over the given source loader.
func NewIngester(sl SourceLoader, cfg IngesterConfig, logger *zap.Logger) *Ingester {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultIngesterConfig().Concurrency
	}
	return &Ingester{
		loader:  sl,
		chunker: NewChunker(cfg.Chunking, logger),
		config:  cfg,
		logger:  logger.With(zap.String("component", "ingester")),
	}
}

// IngestDir walks root recursively and returns the chunks of every
// supported file, in walk order. Files are loaded in parallel but the
// output order is deterministic: chunks appear grouped per file, files
// sorted by path.
func (in *Ingester) IngestDir(ctx context.Context, root string) ([]Chunk, error) {
	var sources []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if in.loader.Supports(path) {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: walk %s: %w", root, err)
	}
	sort.Strings(sources)

	if len(sources) == 0 {
		return nil, fmt.Errorf("ingest: no supported files under %s", root)
	}

	perFile := make([][]Document, len(sources))
	var mu sync.Mutex
	skipped := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.config.Concurrency)

	for i, src := range sources {
		g.Go(func() error {
			docs, err := in.loader.Load(gctx, src)
			if err != nil {
				in.logger.Warn("skipping unreadable source",
					zap.String("source", src),
					zap.Error(err))
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			perFile[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var chunks []Chunk
	docCount := 0
	for _, docs := range perFile {
		for _, doc := range docs {
			docCount++
			chunks = append(chunks, in.chunker.ChunkDocument(doc)...)
		}
	}

	in.logger.Info("ingestion complete",
		zap.Int("files", len(sources)),
		zap.Int("skipped", skipped),
		zap.Int("documents", docCount),
		zap.Int("chunks", len(chunks)))

	return chunks, nil
}
