package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ragshield/ragshield/llm"
	"github.com/ragshield/ragshield/llm/image"
	"github.com/ragshield/ragshield/llm/tokenizer"
)

// DefaultSystemPrompt is used when the caller does not supply one.
const DefaultSystemPrompt = "You are a helpful assistant."

// answerErrorPrefix prefixes the degraded message returned when the
// pipeline cannot produce an answer. Callers and clients can rely on this
// exact prefix to detect degraded responses.
const answerErrorPrefix = "⚠️ Error during RAG or LLM response: "

// imageContextDelimiter introduces the caption of an attached image inside
// the user turn.
const imageContextDelimiter = "Image content:"

// AnswerCache caches final answers keyed by a digest of the request. A
// miss is (value="", ok=false); cache errors are reported separately so
// the orchestrator can log and carry on.
type AnswerCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, answer string) error
}

// OrchestratorConfig controls answer generation.
type OrchestratorConfig struct {
	// SystemPrompt is the default system prompt; empty means
	// DefaultSystemPrompt.
	SystemPrompt string

	// Temperature and MaxTokens are passed to the chat provider. Zero
	// values fall back to the provider's configured defaults.
	Temperature float64
	MaxTokens   int

	// ContextTokenBudget caps the tokens spent on retrieved context.
	// Chunks past the budget are dropped, best-scored first kept.
	ContextTokenBudget int
}

// DefaultOrchestratorConfig returns the default generation configuration.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		SystemPrompt:       DefaultSystemPrompt,
		Temperature:        0.2,
		MaxTokens:          800,
		ContextTokenBudget: 3000,
	}
}

// Orchestrator runs the full answer pipeline: optional image captioning,
// retrieval, context assembly under a token budget, and chat completion.
// It never returns an error to its caller: every failure degrades to a
// user-facing message carrying answerErrorPrefix.
type Orchestrator struct {
	retriever *Retriever
	chat      llm.Provider
	captioner image.CaptionProvider
	counter   tokenizer.Tokenizer
	cache     AnswerCache
	config    OrchestratorConfig
	logger    *zap.Logger
}

// NewOrchestrator creates an Orchestrator. captioner and cache may be nil;
// image requests then fail to a degraded message and caching is disabled.
func NewOrchestrator(
	retriever *Retriever,
	chat llm.Provider,
	captioner image.CaptionProvider,
	counter tokenizer.Tokenizer,
	cache AnswerCache,
	cfg OrchestratorConfig,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.ContextTokenBudget <= 0 {
		cfg.ContextTokenBudget = DefaultOrchestratorConfig().ContextTokenBudget
	}
	if counter == nil {
		counter = tokenizer.NewEstimator()
	}
	return &Orchestrator{
		retriever: retriever,
		chat:      chat,
		captioner: captioner,
		counter:   counter,
		cache:     cache,
		config:    cfg,
		logger:    logger.With(zap.String("component", "orchestrator")),
	}
}

// Answer produces the assistant's answer for a query, optionally grounded
// on an attached image. systemPrompt overrides the configured one when
// non-empty. On any pipeline failure the returned string is a degraded
// message, never empty.
func (o *Orchestrator) Answer(ctx context.Context, query string, imageData []byte, systemPrompt string) string {
	start := time.Now()

	answer, err := o.answer(ctx, query, imageData, systemPrompt)
	if err != nil {
		o.logger.Error("answer pipeline failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)))
		return answerErrorPrefix + err.Error()
	}

	o.logger.Info("answer produced",
		zap.Int("answer_chars", len(answer)),
		zap.Duration("elapsed", time.Since(start)))
	return answer
}

// IsDegraded reports whether an Answer result is the degraded error
// message rather than a model answer.
func IsDegraded(answer string) bool {
	return strings.HasPrefix(answer, answerErrorPrefix)
}

func (o *Orchestrator) answer(ctx context.Context, query string, imageData []byte, systemPrompt string) (string, error) {
	if strings.TrimSpace(query) == "" && len(imageData) == 0 {
		return "", fmt.Errorf("empty query")
	}
	if systemPrompt == "" {
		systemPrompt = o.config.SystemPrompt
	}

	userContent := query
	if len(imageData) > 0 {
		if o.captioner == nil {
			return "", fmt.Errorf("image attached but no caption provider configured")
		}
		caption, err := o.captioner.Caption(ctx, imageData)
		if err != nil {
			return "", fmt.Errorf("caption image: %w", err)
		}
		userContent = strings.TrimSpace(query + "\n\n" + imageContextDelimiter + " " + caption)
	}

	key := o.cacheKey(userContent, systemPrompt)
	if o.cache != nil {
		if cached, ok, err := o.cache.Get(ctx, key); err != nil {
			o.logger.Warn("answer cache get failed", zap.Error(err))
		} else if ok {
			o.logger.Debug("answer cache hit")
			return cached, nil
		}
	}

	results, err := o.retriever.Retrieve(ctx, userContent)
	if err != nil {
		return "", err
	}

	contextBlock := o.assembleContext(results)

	req := &llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: o.composeSystemMessage(systemPrompt, contextBlock)},
			{Role: llm.RoleUser, Content: userContent},
		},
		Temperature: float32(o.config.Temperature),
		MaxTokens:   o.config.MaxTokens,
	}

	resp, err := o.chat.Completion(ctx, req)
	if err != nil {
		return "", err
	}

	answer := resp.FirstContent()
	if answer == "" {
		return "", fmt.Errorf("model returned an empty answer")
	}

	if o.cache != nil {
		if err := o.cache.Set(ctx, key, answer); err != nil {
			o.logger.Warn("answer cache set failed", zap.Error(err))
		}
	}

	return answer, nil
}

// assembleContext joins retrieved chunks best-first until the token budget
// is spent. A chunk that does not fit is dropped along with everything
// after it.
func (o *Orchestrator) assembleContext(results []SearchResult) string {
	var parts []string
	used := 0
	for _, r := range results {
		n, err := o.counter.CountTokens(r.Chunk.Text)
		if err != nil {
			n = len(r.Chunk.Text) / 4
		}
		if used+n > o.config.ContextTokenBudget {
			break
		}
		used += n
		parts = append(parts, r.Chunk.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

func (o *Orchestrator) composeSystemMessage(systemPrompt, contextBlock string) string {
	if contextBlock == "" {
		return systemPrompt
	}
	return systemPrompt + "\n\nUse the following context to answer the user's question.\n\nContext:\n" + contextBlock
}

func (o *Orchestrator) cacheKey(userContent, systemPrompt string) string {
	sum := sha256.Sum256([]byte(systemPrompt + "\x00" + userContent))
	return "answer:" + hex.EncodeToString(sum[:])
}
