package embedding

import "context"

// Request is a batch embedding request.
type Request struct {
	Input []string `json:"input"`
	Model string   `json:"model,omitempty"`
}

// Data is a single embedding result.
type Data struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// Usage reports token accounting for an embedding call.
type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response is the full response to a Request.
type Response struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Embeddings []Data `json:"embeddings"`
	Usage      Usage  `json:"usage"`
}

// Provider is the unified embedding interface used at both index-build and
// query time.
type Provider interface {
	// Embed generates embeddings for the given inputs.
	Embed(ctx context.Context, req *Request) (*Response, error)

	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, query string) ([]float64, error)

	// EmbedDocuments embeds multiple documents.
	EmbedDocuments(ctx context.Context, documents []string) ([][]float64, error)

	// Name returns the provider name.
	Name() string

	// Model returns the configured model or deployment identifier.
	Model() string

	// Dimensions returns the output vector dimension.
	Dimensions() int

	// MaxBatchSize returns the largest supported batch size.
	MaxBatchSize() int
}
