package guardrails

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ragshield/ragshield/llm"
)

// minAnswerLength is the shortest trimmed answer considered substantive.
const minAnswerLength = 5

// cannedNonAnswers are phrases that mark a non-answer regardless of what
// the relevance model would say.
var cannedNonAnswers = []string{
	"i'm not sure",
	"as an ai language model",
}

const relevanceConfirmPrompt = `You are a relevance judge. Decide whether the answer below actually addresses the question.

Answer with exactly one word: YES if the answer is relevant to the question, NO if it is not.

Question:
%s

Answer:
%s`

// RelevanceValidatorConfig configures the relevance validator.
type RelevanceValidatorConfig struct {
	// ModelJudgment runs the YES/NO relevance prompt for answers that
	// pass the fast path. Requires a chat provider.
	ModelJudgment bool
}

// RelevanceValidator checks that a generated answer addresses the query.
// Too-short answers and canned non-answers are rejected deterministically;
// otherwise an optional model judgment runs. Model failure fails open: an
// answer that was already generated is not thrown away because the judge
// is down.
type RelevanceValidator struct {
	chat   llm.Provider
	config RelevanceValidatorConfig
	logger *zap.Logger
}

// NewRelevanceValidator creates a RelevanceValidator. chat may be nil when
// model judgment is disabled.
func NewRelevanceValidator(chat llm.Provider, cfg RelevanceValidatorConfig, logger *zap.Logger) *RelevanceValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelevanceValidator{
		chat:   chat,
		config: cfg,
		logger: logger.With(zap.String("component", "relevance_validator")),
	}
}

// Name implements Validator.
func (v *RelevanceValidator) Name() string { return "answer_relevance" }

// Validate implements Validator. text is the answer, reference the query.
func (v *RelevanceValidator) Validate(ctx context.Context, text, reference string) (*Outcome, error) {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < minAnswerLength {
		return Reject("answer too short"), nil
	}

	lower := strings.ToLower(trimmed)
	for _, phrase := range cannedNonAnswers {
		if strings.Contains(lower, phrase) {
			return Reject("answer is a canned non-answer"), nil
		}
	}

	if !v.config.ModelJudgment || v.chat == nil {
		return Accept(), nil
	}

	relevant, err := classifyYesNo(ctx, v.chat, relevanceConfirmPrompt, reference, trimmed)
	if err != nil {
		// Fail open: keep the generated answer on judge failure.
		v.logger.Warn("relevance judgment unavailable, keeping answer",
			zap.Error(err))
		return Accept(), nil
	}
	if !relevant {
		return Reject("model judged answer irrelevant to the query"), nil
	}
	return Accept(), nil
}
