// Package tokenizer provides token counting for prompt budgeting, with a
// tiktoken-backed implementation for OpenAI-family models and a character
// estimator fallback.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenizer is the token-counting interface used for context budgeting.
type Tokenizer interface {
	// CountTokens returns the token count for the given text.
	CountTokens(text string) (int, error)

	// Name returns the tokenizer name.
	Name() string
}

// Estimator approximates token counts without model data: roughly one token
// per 4 ASCII characters, and one per CJK rune.
type Estimator struct{}

// NewEstimator creates the fallback estimator.
func NewEstimator() *Estimator { return &Estimator{} }

// Name returns the tokenizer name.
func (e *Estimator) Name() string { return "estimator" }

// CountTokens approximates the token count. Never returns an error.
func (e *Estimator) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	ascii := 0
	cjk := 0
	for _, r := range text {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			cjk++
		} else {
			ascii++
		}
	}
	count := ascii/4 + cjk
	if count == 0 && strings.TrimSpace(text) != "" {
		count = 1
	}
	return count, nil
}
