package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ragshield/ragshield/llm"
)

// CaptionProvider turns raw image bytes into a short text description.
type CaptionProvider interface {
	Caption(ctx context.Context, image []byte) (string, error)
	Name() string
}

// captionPrompt asks for a retrieval-friendly factual description.
const captionPrompt = "Describe the content of this image in one or two factual sentences. " +
	"Mention any visible text verbatim."

// AzureConfig configures the Azure OpenAI vision captioner.
type AzureConfig struct {
	Endpoint string
	APIKey   string
	// Deployment is a vision-capable chat deployment.
	Deployment string
	APIVersion string
	MaxTokens  int
	Timeout    time.Duration
	// RequestsPerSecond caps outbound calls; 0 disables the limiter.
	RequestsPerSecond float64
}

// AzureProvider implements CaptionProvider against a vision-capable Azure
// OpenAI chat deployment.
type AzureProvider struct {
	cfg      AzureConfig
	client   *http.Client
	limiter  *rate.Limiter
	recorder llm.MetricsRecorder
	logger   *zap.Logger
}

// NewAzureProvider creates the captioner.
func NewAzureProvider(cfg AzureConfig, logger *zap.Logger) *AzureProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 120
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &AzureProvider{
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
		logger:  logger.With(zap.String("component", "image_caption")),
	}
}

// Name returns the provider identifier.
func (p *AzureProvider) Name() string { return "azure_openai_vision" }

// SetRecorder attaches a metrics recorder; nil leaves metrics disabled.
func (p *AzureProvider) SetRecorder(r llm.MetricsRecorder) { p.recorder = r }

// Vision requests carry mixed text and image content parts, so the message
// shape differs from llm.Message.
type visionContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *visionImageURL `json:"image_url,omitempty"`
}

type visionImageURL struct {
	URL string `json:"url"`
}

type visionMessage struct {
	Role    string              `json:"role"`
	Content []visionContentPart `json:"content"`
}

type visionRequest struct {
	Messages  []visionMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

// Caption sends the image as a base64 data URL and returns the model's
// description.
func (p *AzureProvider) Caption(ctx context.Context, image []byte) (string, error) {
	start := time.Now()
	caption, err := p.caption(ctx, image)
	if p.recorder != nil {
		p.recorder.RecordLLMRequest(p.Name(), err, time.Since(start))
	}
	return caption, err
}

func (p *AzureProvider) caption(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("caption: empty image")
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	dataURL := "data:" + sniffImageMIME(image) + ";base64," +
		base64.StdEncoding.EncodeToString(image)

	body := visionRequest{
		Messages: []visionMessage{{
			Role: "user",
			Content: []visionContentPart{
				{Type: "text", Text: captionPrompt},
				{Type: "image_url", ImageURL: &visionImageURL{URL: dataURL}},
			},
		}},
		MaxTokens: p.cfg.MaxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal caption request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(p.cfg.Endpoint, "/"), p.cfg.Deployment, p.cfg.APIVersion)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create caption request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("api-key", p.cfg.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", &llm.Error{
			Code:       llm.ErrUpstreamError,
			Message:    err.Error(),
			HTTPStatus: http.StatusBadGateway,
			Retryable:  true,
			Provider:   p.Name(),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", llm.MapHTTPError(resp.StatusCode, llm.ReadErrorMessage(resp.Body), p.Name())
	}

	var out llm.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode caption response: %w", err)
	}

	caption := out.FirstContent()
	if caption == "" {
		return "", fmt.Errorf("caption: empty model response")
	}

	p.logger.Debug("image captioned",
		zap.Int("image_bytes", len(image)),
		zap.Int("caption_len", len(caption)))

	return caption, nil
}

// sniffImageMIME detects the MIME type from magic bytes, defaulting to PNG.
func sniffImageMIME(data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case len(data) >= 6 && string(data[:6]) == "GIF87a",
		len(data) >= 6 && string(data[:6]) == "GIF89a":
		return "image/gif"
	case len(data) >= 12 && string(data[8:12]) == "WEBP":
		return "image/webp"
	default:
		return "image/png"
	}
}
