package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ragshield/ragshield/llm"
)

// AzureConfig configures the Azure OpenAI embedding provider.
type AzureConfig struct {
	// Endpoint is the resource base URL.
	Endpoint string
	// APIKey is sent in the api-key header.
	APIKey string
	// Deployment is the embedding deployment name, e.g. text-embedding-3-small.
	Deployment string
	// APIVersion is the api-version query parameter.
	APIVersion string
	// Dimensions is the output vector dimension of the deployed model.
	Dimensions int
	MaxBatch   int
	Timeout    time.Duration
	// RequestsPerSecond caps outbound calls; 0 disables the limiter.
	RequestsPerSecond float64
}

// AzureProvider implements Provider against an Azure OpenAI embeddings
// deployment.
type AzureProvider struct {
	*BaseProvider
	cfg      AzureConfig
	limiter  *rate.Limiter
	recorder llm.MetricsRecorder
	logger   *zap.Logger
}

// NewAzureProvider creates the embedding provider.
func NewAzureProvider(cfg AzureConfig, logger *zap.Logger) *AzureProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &AzureProvider{
		BaseProvider: NewBaseProvider(BaseConfig{
			Name:       "azure_openai",
			BaseURL:    cfg.Endpoint,
			APIKey:     cfg.APIKey,
			Model:      cfg.Deployment,
			Dimensions: cfg.Dimensions,
			MaxBatch:   cfg.MaxBatch,
			Timeout:    cfg.Timeout,
		}),
		cfg:     cfg,
		limiter: limiter,
		logger:  logger.With(zap.String("component", "embedding_azure")),
	}
}

type azureEmbeddingRequest struct {
	Input []string `json:"input"`
}

type azureEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

// SetRecorder attaches a metrics recorder; nil leaves metrics disabled.
func (p *AzureProvider) SetRecorder(r llm.MetricsRecorder) { p.recorder = r }

// Embed generates embeddings for the given inputs.
func (p *AzureProvider) Embed(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := p.embed(ctx, req)
	if p.recorder != nil {
		p.recorder.RecordLLMRequest(p.Name(), err, time.Since(start))
	}
	return resp, err
}

func (p *AzureProvider) embed(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || len(req.Input) == 0 {
		return nil, fmt.Errorf("embedding: empty input")
	}
	if len(req.Input) > p.MaxBatchSize() {
		return nil, fmt.Errorf("embedding: batch of %d exceeds max %d", len(req.Input), p.MaxBatchSize())
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := fmt.Sprintf("/openai/deployments/%s/embeddings?api-version=%s",
		p.cfg.Deployment, p.cfg.APIVersion)

	start := time.Now()
	respBody, err := p.DoRequest(ctx, http.MethodPost, endpoint,
		azureEmbeddingRequest{Input: req.Input},
		map[string]string{"api-key": p.cfg.APIKey})
	if err != nil {
		return nil, err
	}

	var azResp azureEmbeddingResponse
	if err := json.Unmarshal(respBody, &azResp); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}

	out := &Response{
		Provider:   p.Name(),
		Model:      p.Model(),
		Embeddings: make([]Data, len(azResp.Data)),
		Usage:      azResp.Usage,
	}
	for i, d := range azResp.Data {
		out.Embeddings[i] = Data{Index: d.Index, Embedding: d.Embedding}
	}

	p.logger.Debug("embeddings generated",
		zap.Int("inputs", len(req.Input)),
		zap.Duration("latency", time.Since(start)))

	return out, nil
}

// EmbedQuery embeds a single query string.
func (p *AzureProvider) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	return p.BaseProvider.EmbedQuery(ctx, query, p.Embed)
}

// EmbedDocuments embeds multiple documents.
func (p *AzureProvider) EmbedDocuments(ctx context.Context, documents []string) ([][]float64, error) {
	return p.BaseProvider.EmbedDocuments(ctx, documents, p.Embed)
}
