package main

import (
	"context"
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ragshield/ragshield/config"
	"github.com/ragshield/ragshield/guardrails"
	"github.com/ragshield/ragshield/internal/cache"
	"github.com/ragshield/ragshield/internal/metrics"
	"github.com/ragshield/ragshield/internal/server"
	"github.com/ragshield/ragshield/internal/telemetry"
	"github.com/ragshield/ragshield/llm"
	"github.com/ragshield/ragshield/llm/image"
	"github.com/ragshield/ragshield/llm/tokenizer"
	"github.com/ragshield/ragshield/rag"
)

// runServe starts the chat API. The snapshot is loaded read-only at
// startup; a missing or mismatched snapshot aborts the process.
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting ragshield",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := otelProviders.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector("ragshield", registry)

	chat := buildChatProvider(cfg, logger)
	chat.SetRecorder(collector)
	embedder := buildEmbeddingProvider(cfg, logger)
	embedder.SetRecorder(collector)
	captioner := buildCaptionProvider(cfg, logger)
	if c, ok := captioner.(*image.AzureProvider); ok {
		c.SetRecorder(collector)
	}

	snapshot, err := rag.LoadSnapshot(cfg.Index.Path, rag.IdentityOf(embedder))
	if err != nil {
		// No index means nothing to retrieve from; refuse to start
		// rather than serve unguarded answers.
		logger.Fatal("cannot load vector index", zap.Error(err))
	}
	logger.Info("vector index loaded",
		zap.Int("chunks", snapshot.Len()),
		zap.String("identity", snapshot.Identity().String()),
	)

	retriever := rag.NewRetriever(snapshot, embedder, rag.RetrieverConfig{
		TopK: cfg.Retrieval.TopK,
	}, logger)
	retriever.SetRecorder(collector)

	var answerCache rag.AnswerCache
	if cfg.Cache.Enabled {
		c, err := cache.New(cfg.Cache, collector, logger)
		if err != nil {
			logger.Warn("answer cache unavailable, continuing without it", zap.Error(err))
		} else {
			answerCache = c
			defer c.Close()
		}
	}

	orchestrator := rag.NewOrchestrator(
		retriever,
		chat,
		captioner,
		tokenizer.ForModelOrEstimator(cfg.Azure.ChatDeployment),
		answerCache,
		rag.OrchestratorConfig{
			SystemPrompt:       cfg.Generation.SystemPrompt,
			Temperature:        cfg.Generation.Temperature,
			MaxTokens:          cfg.Generation.MaxTokens,
			ContextTokenBudget: cfg.Retrieval.ContextTokenBudget,
		},
		logger,
	)

	gate := buildGate(cfg, chat, orchestrator, collector, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/chat", chatHandler(gate, cfg.Server.MaxBodyBytes, logger))
	mux.Handle("/healthz", healthHandler(snapshot))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	handler := Chain(mux,
		Recovery(logger),
		RequestLogger(logger),
		Metrics(collector),
	)

	srv := server.NewManager(handler, cfg.Server, logger)
	if err := srv.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	srv.WaitForShutdown()
	logger.Info("ragshield stopped")
}

// buildGate assembles the validation gate around the orchestrator per the
// validation config.
func buildGate(cfg *config.Config, chat llm.Provider, answerer guardrails.Answerer, observer guardrails.StageObserver, logger *zap.Logger) *guardrails.Gate {
	var input, output guardrails.Validator

	if cfg.Validation.EnablePromptValidation {
		input = guardrails.NewInjectionValidator(chat, guardrails.InjectionValidatorConfig{
			ModelConfirmation: cfg.Validation.EnableModelConfirmation,
		}, logger)
	}
	if cfg.Validation.EnableRelevanceValidation {
		output = guardrails.NewRelevanceValidator(chat, guardrails.RelevanceValidatorConfig{
			ModelJudgment: true,
		}, logger)
	}

	return guardrails.NewGate(input, answerer, output, observer, guardrails.GateConfig{
		InputValidation:  cfg.Validation.EnablePromptValidation,
		OutputValidation: cfg.Validation.EnableRelevanceValidation,
		IsDegraded:       rag.IsDegraded,
	}, logger)
}
