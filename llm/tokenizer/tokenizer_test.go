package tokenizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimator_CountTokens(t *testing.T) {
	e := NewEstimator()

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"short ascii", "ab", 1},
		{"ascii", "hello world, this is text", 6},
		{"cjk counts per rune", "你好世界", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.CountTokens(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTiktoken_EncodingResolution(t *testing.T) {
	assert.Equal(t, "tiktoken_o200k_base", NewTiktoken("gpt-4o-mini").Name())
	assert.Equal(t, "tiktoken_cl100k_base", NewTiktoken("text-embedding-3-small").Name())
	assert.Equal(t, "tiktoken_cl100k_base", NewTiktoken("some-unknown-model").Name())
}

type failingTokenizer struct{}

func (failingTokenizer) Name() string { return "failing" }

func (failingTokenizer) CountTokens(string) (int, error) { return 0, errors.New("no data") }

func TestFallbackTokenizer(t *testing.T) {
	f := &fallbackTokenizer{primary: failingTokenizer{}, fallback: NewEstimator()}

	got, err := f.CountTokens("hello world, this is text")
	require.NoError(t, err)
	assert.Equal(t, 6, got)
}

func TestForModelOrEstimator_EmptyModel(t *testing.T) {
	tok := ForModelOrEstimator("")
	assert.Equal(t, "estimator", tok.Name())
}
