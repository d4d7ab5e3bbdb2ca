package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ragshield/ragshield/rag"
	"github.com/ragshield/ragshield/rag/loader"
)

// runIndex builds the vector index offline: walk the corpus, chunk,
// embed, and persist the snapshot to the configured index path.
func runIndex(args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	dataDir := fs.String("data", "", "Directory of documents to ingest")
	fs.Parse(args)

	if *dataDir == "" {
		fmt.Fprintln(os.Stderr, "index: --data is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("building index",
		zap.String("data", *dataDir),
		zap.String("index_path", cfg.Index.Path),
	)

	embedder := buildEmbeddingProvider(cfg, logger)

	registry := loader.NewRegistry()
	registry.RegisterLoader(loader.NewPDFLoader(logger))
	if captioner := buildCaptionProvider(cfg, logger); captioner != nil {
		registry.RegisterLoader(loader.NewImageLoader(captioner, logger))
	} else {
		logger.Info("no vision deployment configured, image files will be skipped")
	}

	ingester := rag.NewIngester(registry, rag.IngesterConfig{
		Concurrency: cfg.Index.IngestConcurrency,
		Chunking: rag.ChunkingConfig{
			ChunkSize:    cfg.Index.ChunkSize,
			ChunkOverlap: cfg.Index.ChunkOverlap,
		},
	}, logger)

	ctx := context.Background()

	chunks, err := ingester.IngestDir(ctx, *dataDir)
	if err != nil {
		logger.Fatal("ingestion failed", zap.Error(err))
	}

	snapshot, err := rag.BuildSnapshot(ctx, chunks, embedder, logger)
	if err != nil {
		logger.Fatal("snapshot build failed", zap.Error(err))
	}

	if err := snapshot.Save(cfg.Index.Path); err != nil {
		logger.Fatal("snapshot save failed", zap.Error(err))
	}

	logger.Info("index built",
		zap.Int("chunks", snapshot.Len()),
		zap.String("identity", snapshot.Identity().String()),
		zap.String("path", cfg.Index.Path),
	)
}
