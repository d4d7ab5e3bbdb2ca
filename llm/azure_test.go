package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *AzureProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewAzureProvider(AzureConfig{
		Endpoint:   srv.URL,
		APIKey:     "test-key",
		Deployment: "gpt-4o",
		APIVersion: "2024-06-01",
	}, nil)
}

func TestAzureProvider_Completion(t *testing.T) {
	var gotPath, gotKey string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("api-key")

		var req azureChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		json.NewEncoder(w).Encode(ChatResponse{
			Model: "gpt-4o",
			Choices: []ChatChoice{
				{Message: Message{Role: RoleAssistant, Content: "  Paris.  "}},
			},
			Usage: ChatUsage{PromptTokens: 12, CompletionTokens: 3, TotalTokens: 15},
		})
	})

	resp, err := p.Completion(context.Background(), &ChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "You are a helpful assistant."},
			{Role: RoleUser, Content: "What is the capital of France?"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "Paris.", resp.FirstContent())
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestAzureProvider_Completion_EmptyMessages(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be called")
	})

	_, err := p.Completion(context.Background(), &ChatRequest{})

	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrInvalidRequest, llmErr.Code)
}

func TestAzureProvider_Completion_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCode  ErrorCode
		wantRetry bool
	}{
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"error":{"message":"invalid api key"}}`,
			wantCode: ErrUnauthorized,
		},
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			body:      `{"error":{"message":"too many requests"}}`,
			wantCode:  ErrRateLimited,
			wantRetry: true,
		},
		{
			name:      "service unavailable",
			status:    http.StatusServiceUnavailable,
			body:      "upstream down",
			wantCode:  ErrProviderUnavailable,
			wantRetry: true,
		},
		{
			name:     "content filtered",
			status:   http.StatusBadRequest,
			body:     `{"error":{"message":"blocked by content_filter policy"}}`,
			wantCode: ErrContentFiltered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := p.Completion(context.Background(), &ChatRequest{
				Messages: []Message{{Role: RoleUser, Content: "hi"}},
			})

			var llmErr *Error
			require.ErrorAs(t, err, &llmErr)
			assert.Equal(t, tt.wantCode, llmErr.Code)
			assert.Equal(t, tt.wantRetry, llmErr.Retryable)
		})
	}
}

func TestAzureProvider_HealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ChatResponse{
				Choices: []ChatChoice{{Message: Message{Role: RoleAssistant, Content: "pong"}}},
			})
		})

		status, err := p.HealthCheck(context.Background())
		require.NoError(t, err)
		assert.True(t, status.Healthy)
	})

	t.Run("unhealthy", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		status, err := p.HealthCheck(context.Background())
		require.NoError(t, err)
		assert.False(t, status.Healthy)
		assert.NotEmpty(t, status.Message)
	})
}

type fakeRecorder struct {
	calls     int
	provider  string
	lastError error
}

func (f *fakeRecorder) RecordLLMRequest(provider string, err error, elapsed time.Duration) {
	f.calls++
	f.provider = provider
	f.lastError = err
}

func TestAzureProvider_CompletionRecordsMetrics(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ChatResponse{
				Choices: []ChatChoice{{Message: Message{Role: RoleAssistant, Content: "ok"}}},
			})
		})
		rec := &fakeRecorder{}
		p.SetRecorder(rec)

		_, err := p.Completion(context.Background(), &ChatRequest{
			Messages: []Message{{Role: RoleUser, Content: "hi"}},
		})
		require.NoError(t, err)

		assert.Equal(t, 1, rec.calls)
		assert.Equal(t, "azure_openai", rec.provider)
		assert.NoError(t, rec.lastError)
	})

	t.Run("upstream error", func(t *testing.T) {
		p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		rec := &fakeRecorder{}
		p.SetRecorder(rec)

		_, err := p.Completion(context.Background(), &ChatRequest{
			Messages: []Message{{Role: RoleUser, Content: "hi"}},
		})
		require.Error(t, err)

		assert.Equal(t, 1, rec.calls)
		assert.Error(t, rec.lastError)
	})
}

func TestChatResponse_FirstContent_Nil(t *testing.T) {
	var resp *ChatResponse
	assert.Equal(t, "", resp.FirstContent())
	assert.Equal(t, "", (&ChatResponse{}).FirstContent())
}

func TestErrorUnwrapping(t *testing.T) {
	err := MapHTTPError(http.StatusGatewayTimeout, "timeout", "azure_openai")
	var llmErr *Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, ErrUpstreamTimeout, llmErr.Code)
	assert.True(t, llmErr.Retryable)
}
