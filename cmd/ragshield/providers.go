package main

import (
	"go.uber.org/zap"

	"github.com/ragshield/ragshield/config"
	"github.com/ragshield/ragshield/llm"
	"github.com/ragshield/ragshield/llm/embedding"
	"github.com/ragshield/ragshield/llm/image"
)

// buildChatProvider wires the Azure chat deployment from config.
func buildChatProvider(cfg *config.Config, logger *zap.Logger) *llm.AzureProvider {
	return llm.NewAzureProvider(llm.AzureConfig{
		Endpoint:          cfg.Azure.Endpoint,
		APIKey:            cfg.Azure.APIKey,
		Deployment:        cfg.Azure.ChatDeployment,
		APIVersion:        cfg.Azure.APIVersion,
		Temperature:       float32(cfg.Generation.Temperature),
		MaxTokens:         cfg.Generation.MaxTokens,
		Timeout:           cfg.Azure.Timeout,
		RequestsPerSecond: cfg.Azure.RequestsPerSecond,
	}, logger)
}

// buildEmbeddingProvider wires the Azure embedding deployment from config.
func buildEmbeddingProvider(cfg *config.Config, logger *zap.Logger) *embedding.AzureProvider {
	return embedding.NewAzureProvider(embedding.AzureConfig{
		Endpoint:          cfg.Azure.Endpoint,
		APIKey:            cfg.Azure.APIKey,
		Deployment:        cfg.Azure.EmbeddingDeployment,
		APIVersion:        cfg.Azure.APIVersion,
		Dimensions:        cfg.Index.EmbeddingDimensions,
		Timeout:           cfg.Azure.Timeout,
		RequestsPerSecond: cfg.Azure.RequestsPerSecond,
	}, logger)
}

// buildCaptionProvider wires the Azure vision deployment, or returns nil
// when no vision deployment is configured.
func buildCaptionProvider(cfg *config.Config, logger *zap.Logger) image.CaptionProvider {
	if cfg.Azure.VisionDeployment == "" {
		return nil
	}
	return image.NewAzureProvider(image.AzureConfig{
		Endpoint:          cfg.Azure.Endpoint,
		APIKey:            cfg.Azure.APIKey,
		Deployment:        cfg.Azure.VisionDeployment,
		APIVersion:        cfg.Azure.APIVersion,
		Timeout:           cfg.Azure.Timeout,
		RequestsPerSecond: cfg.Azure.RequestsPerSecond,
	}, logger)
}
