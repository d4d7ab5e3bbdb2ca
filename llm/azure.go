package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// AzureConfig configures an AzureProvider.
type AzureConfig struct {
	// Endpoint is the resource base URL, e.g. https://myres.openai.azure.com.
	Endpoint string
	// APIKey is sent in the api-key header.
	APIKey string
	// Deployment is the chat deployment name.
	Deployment string
	// APIVersion is the api-version query parameter.
	APIVersion string
	// Temperature and MaxTokens are applied when the request leaves them zero.
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	// RequestsPerSecond caps outbound calls; 0 disables the limiter.
	RequestsPerSecond float64
}

// AzureProvider implements Provider against an Azure OpenAI chat deployment.
type AzureProvider struct {
	cfg      AzureConfig
	client   *http.Client
	limiter  *rate.Limiter
	recorder MetricsRecorder
	logger   *zap.Logger
}

// NewAzureProvider creates a chat provider for the given deployment.
func NewAzureProvider(cfg AzureConfig, logger *zap.Logger) *AzureProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &AzureProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger.With(zap.String("component", "llm_azure")),
	}
}

// Name returns the provider identifier.
func (p *AzureProvider) Name() string { return "azure_openai" }

// SetRecorder attaches a metrics recorder; nil leaves metrics disabled.
func (p *AzureProvider) SetRecorder(r MetricsRecorder) { p.recorder = r }

type azureChatRequest struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
	TopP        float32   `json:"top_p,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
}

// Completion issues a synchronous chat-completions call.
func (p *AzureProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	start := time.Now()
	resp, err := p.completion(ctx, req)
	if p.recorder != nil {
		p.recorder.RecordLLMRequest(p.Name(), err, time.Since(start))
	}
	return resp, err
}

func (p *AzureProvider) completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, &Error{Code: ErrInvalidRequest, Message: "empty messages", HTTPStatus: http.StatusBadRequest, Provider: p.Name()}
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, &Error{Code: ErrRateLimited, Message: err.Error(), HTTPStatus: http.StatusTooManyRequests, Provider: p.Name()}
		}
	}

	body := azureChatRequest{
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Stop:        req.Stop,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = p.cfg.MaxTokens
	}
	if body.Temperature == 0 {
		body.Temperature = p.cfg.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(p.cfg.Endpoint, "/"), p.cfg.Deployment, p.cfg.APIVersion)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", p.cfg.APIKey)

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Code: ErrUpstreamError, Message: err.Error(), HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, MapHTTPError(resp.StatusCode, ReadErrorMessage(resp.Body), p.Name())
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &Error{Code: ErrUpstreamError, Message: err.Error(), HTTPStatus: http.StatusBadGateway, Retryable: true, Provider: p.Name()}
	}
	out.Provider = p.Name()

	p.logger.Debug("chat completion",
		zap.Duration("latency", time.Since(start)),
		zap.Int("prompt_tokens", out.Usage.PromptTokens),
		zap.Int("completion_tokens", out.Usage.CompletionTokens))

	return &out, nil
}

// HealthCheck sends a minimal one-token completion to probe availability.
func (p *AzureProvider) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()
	_, err := p.Completion(ctx, &ChatRequest{
		Messages:  []Message{{Role: RoleUser, Content: "ping"}},
		MaxTokens: 1,
	})
	status := &HealthStatus{
		Healthy: err == nil,
		Latency: time.Since(start),
	}
	if err != nil {
		status.Message = err.Error()
	}
	return status, nil
}
